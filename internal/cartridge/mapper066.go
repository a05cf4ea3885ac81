package cartridge

// Mapper066 implements GxROM: a single register at $8000-$FFFF whose low
// two bits select a 32KB PRG bank and whose bits 4-5 select an 8KB CHR
// bank.
type Mapper066 struct {
	baseMapper
	prgBank uint8
	chrBank uint8
}

// NewMapper066 creates a new GxROM mapper.
func NewMapper066(cart *Cartridge) *Mapper066 {
	return &Mapper066{baseMapper: baseMapper{cart: cart}}
}

func (m *Mapper066) ReadPRG(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	idx := int(m.prgBank)*0x8000 + int(address-0x8000)
	if idx < len(m.cart.prgROM) {
		return m.cart.prgROM[idx]
	}
	return 0
}

func (m *Mapper066) WritePRG(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.prgBank = value & 0x03
	m.chrBank = (value >> 4) & 0x03
}

func (m *Mapper066) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := int(m.chrBank)*0x2000 + int(address)
	if idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *Mapper066) WriteCHR(address uint16, value uint8) {
	if !m.cart.hasCHRRAM || address >= 0x2000 {
		return
	}
	idx := int(m.chrBank)*0x2000 + int(address)
	if idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

type mapper066State struct {
	PrgBank, ChrBank uint8
}

func (m *Mapper066) Serialize() []byte {
	return gobEncode(mapper066State{PrgBank: m.prgBank, ChrBank: m.chrBank})
}

func (m *Mapper066) Deserialize(data []byte) error {
	var s mapper066State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.prgBank, m.chrBank = s.PrgBank, s.ChrBank
	return nil
}
