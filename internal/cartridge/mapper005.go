package cartridge

// Mapper005 implements MMC5 at the bank-switching fidelity named in
// spec.md §4.2 ("a minimum of bank-switching fidelity") — 8KB PRG-ROM
// banking in mode 3 (the mode nearly every MMC5 game uses) and 1KB CHR
// banking through $5120-$5127, without the extended-attribute/split-screen/extra-RAM/sound
// channel features of the full chip.
type Mapper005 struct {
	baseMapper

	prgMode uint8 // $5100
	chrMode uint8 // $5101

	prgBank [5]uint8 // $5113-$5117, 8KB banks; bank[4] always ROM
	chrBank [8]uint16

	prgBankCount8k uint8
	chrIsRAM       bool

	extendedRAM [0x400]uint8
}

// NewMapper005 creates a new MMC5 mapper.
func NewMapper005(cart *Cartridge) *Mapper005 {
	count := uint8(len(cart.prgROM) / 0x2000)
	if count == 0 {
		count = 1
	}
	m := &Mapper005{
		baseMapper:     baseMapper{cart: cart},
		prgMode:        3,
		chrMode:        3,
		prgBankCount8k: count,
		chrIsRAM:       cart.hasCHRRAM,
	}
	m.prgBank[4] = count - 1
	return m
}

func (m *Mapper005) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x5C00 && address < 0x6000:
		return m.extendedRAM[address-0x5C00]
	case address >= 0x6000 && address < 0x8000:
		return m.cart.sram[address-0x6000]
	case address >= 0x8000:
		// Mode 3: $8000/$A000/$C000/$E000 use $5114/$5115/$5116/$5117.
		slot := int((address - 0x8000) / 0x2000)
		bank := int(m.prgBank[slot+1]) % int(m.prgBankCount8k)
		idx := bank*0x2000 + int(address&0x1FFF)
		if idx >= 0 && idx < len(m.cart.prgROM) {
			return m.cart.prgROM[idx]
		}
	}
	return 0
}

func (m *Mapper005) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x5C00 && address < 0x6000:
		m.extendedRAM[address-0x5C00] = value
	case address >= 0x6000 && address < 0x8000:
		m.cart.sram[address-0x6000] = value
	case address == 0x5100:
		m.prgMode = value & 0x03
	case address == 0x5101:
		m.chrMode = value & 0x03
	case address >= 0x5113 && address <= 0x5117:
		m.prgBank[address-0x5113] = value & 0x7F
	case address >= 0x5120 && address <= 0x5127:
		m.chrBank[address-0x5120] = uint16(value)
	}
}

func (m *Mapper005) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	bank := m.chrBank[(address/0x0400)%8]
	idx := int(bank)*0x0400 + int(address&0x03FF)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *Mapper005) WriteCHR(address uint16, value uint8) {
	if !m.chrIsRAM || address >= 0x2000 {
		return
	}
	bank := m.chrBank[(address/0x0400)%8]
	idx := int(bank)*0x0400 + int(address&0x03FF)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

type mapper005State struct {
	PrgMode, ChrMode uint8
	PrgBank          [5]uint8
	ChrBank          [8]uint16
	ExtendedRAM      [0x400]uint8
}

func (m *Mapper005) Serialize() []byte {
	return gobEncode(mapper005State{
		PrgMode: m.prgMode, ChrMode: m.chrMode,
		PrgBank: m.prgBank, ChrBank: m.chrBank,
		ExtendedRAM: m.extendedRAM,
	})
}

func (m *Mapper005) Deserialize(data []byte) error {
	var s mapper005State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.prgMode, m.chrMode = s.PrgMode, s.ChrMode
	m.prgBank, m.chrBank = s.PrgBank, s.ChrBank
	m.extendedRAM = s.ExtendedRAM
	return nil
}
