package cartridge

// Mapper007 implements AxROM: a single switchable 32KB PRG bank and
// mapper-controlled single-screen mirroring selected by bit 4 of the bank
// register. CHR is always 8KB RAM.
type Mapper007 struct {
	baseMapper
	prgBank  uint8
	mirrorHi bool
}

// NewMapper007 creates a new AxROM mapper.
func NewMapper007(cart *Cartridge) *Mapper007 {
	return &Mapper007{baseMapper: baseMapper{cart: cart}}
}

func (m *Mapper007) Mirroring() MirrorMode {
	if m.mirrorHi {
		return MirrorSingleScreen1
	}
	return MirrorSingleScreen0
}

func (m *Mapper007) ReadPRG(address uint16) uint8 {
	if address < 0x8000 {
		return 0
	}
	idx := int(m.prgBank&0x07)*0x8000 + int(address-0x8000)
	if idx < len(m.cart.prgROM) {
		return m.cart.prgROM[idx]
	}
	return 0
}

func (m *Mapper007) WritePRG(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.prgBank = value & 0x07
	m.mirrorHi = value&0x10 != 0
}

func (m *Mapper007) ReadCHR(address uint16) uint8 {
	if address < 0x2000 && int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *Mapper007) WriteCHR(address uint16, value uint8) {
	if address < 0x2000 && m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}

type mapper007State struct {
	PrgBank  uint8
	MirrorHi bool
}

func (m *Mapper007) Serialize() []byte {
	return gobEncode(mapper007State{PrgBank: m.prgBank, MirrorHi: m.mirrorHi})
}

func (m *Mapper007) Deserialize(data []byte) error {
	var s mapper007State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.prgBank, m.mirrorHi = s.PrgBank, s.MirrorHi
	return nil
}
