package cartridge

// Mapper011 implements Color Dreams: a single register at $8000-$FFFF
// whose low two bits select a 32KB PRG bank and whose high nibble selects an
// 8KB CHR bank.
type Mapper011 struct {
	baseMapper
	prgBank uint8
	chrBank uint8
}

// NewMapper011 creates a new Color Dreams mapper.
func NewMapper011(cart *Cartridge) *Mapper011 {
	return &Mapper011{baseMapper: baseMapper{cart: cart}}
}

func (m *Mapper011) ReadPRG(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	idx := int(m.prgBank)*0x8000 + int(address-0x8000)
	if idx < len(m.cart.prgROM) {
		return m.cart.prgROM[idx]
	}
	return 0
}

func (m *Mapper011) WritePRG(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.prgBank = value & 0x03
	m.chrBank = (value >> 4) & 0x0F
}

func (m *Mapper011) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := int(m.chrBank)*0x2000 + int(address)
	if idx < len(m.cart.chrROM) {
		return m.cart.chrROM[idx]
	}
	return 0
}

func (m *Mapper011) WriteCHR(address uint16, value uint8) {
	if !m.cart.hasCHRRAM || address >= 0x2000 {
		return
	}
	idx := int(m.chrBank)*0x2000 + int(address)
	if idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

type mapper011State struct {
	PrgBank, ChrBank uint8
}

func (m *Mapper011) Serialize() []byte {
	return gobEncode(mapper011State{PrgBank: m.prgBank, ChrBank: m.chrBank})
}

func (m *Mapper011) Deserialize(data []byte) error {
	var s mapper011State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.prgBank, m.chrBank = s.PrgBank, s.ChrBank
	return nil
}
