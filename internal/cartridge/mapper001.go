package cartridge

// Mapper001 implements MMC1, the 5-bit serial shift register mapper used by
// The Legend of Zelda, Metroid and many other early Nintendo carts.
//
// Writes to $8000-$FFFF shift a single bit (bit 0 of the written value) into
// a 5-bit register, LSB first. On the fifth write the accumulated value is
// copied into one of four internal registers selected by bits 14-13 of the
// written address. Any write with bit 7 set resets the shift register and
// forces the control register's PRG mode bits to 3 (mirroring is untouched).
type Mapper001 struct {
	baseMapper

	shift      uint8
	shiftCount uint8

	control uint8 // mirroring (1:0), PRG mode (3:2), CHR mode (4)
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgBankCount uint8
	chrIsRAM     bool

	// MMC1 ignores the second of two writes on consecutive CPU cycles; this
	// module compares the orchestrator-supplied ClockCPU tick count at each
	// write instead of wall time. Writes that see the same tick count (two
	// writes inside one instruction, since ticks arrive after it) all count.
	lastWriteCycle uint64
	cpuCycle       uint64
}

// NewMapper001 creates a new MMC1 mapper.
func NewMapper001(cart *Cartridge) *Mapper001 {
	m := &Mapper001{
		baseMapper:   baseMapper{cart: cart},
		control:      0x0C, // power-on: PRG mode 3 (fix last bank), CHR mode 0
		prgBankCount: uint8(len(cart.prgROM) / 0x4000),
		chrIsRAM:     cart.hasCHRRAM,
	}
	if m.prgBankCount == 0 {
		m.prgBankCount = 1
	}
	return m
}

func (m *Mapper001) ClockCPU() { m.cpuCycle++ }

func (m *Mapper001) Mirroring() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *Mapper001) ReadPRG(address uint16) uint8 {
	if address >= 0x6000 && address < 0x8000 {
		return m.cart.sram[address-0x6000]
	}
	if address < 0x8000 {
		return 0
	}

	prgMode := (m.control >> 2) & 0x03
	bank16k := int(m.prgBank & 0x0F)
	offset := int(address - 0x8000)

	switch prgMode {
	case 0, 1:
		// 32KB mode: bank register's low bit ignored, switches 32KB at a time.
		bank32k := bank16k &^ 1
		idx := bank32k*0x4000 + offset
		return m.readPRGAt(idx)
	case 2:
		// fix first bank at $8000, switch 16KB bank at $C000
		if address < 0xC000 {
			return m.readPRGAt(offset)
		}
		return m.readPRGAt(bank16k*0x4000 + offset - 0x4000)
	default: // 3
		// switch 16KB bank at $8000, fix last bank at $C000
		if address < 0xC000 {
			return m.readPRGAt(bank16k*0x4000 + offset)
		}
		lastBank := int(m.prgBankCount) - 1
		return m.readPRGAt(lastBank*0x4000 + offset - 0x4000)
	}
}

func (m *Mapper001) readPRGAt(idx int) uint8 {
	if idx < 0 || idx >= len(m.cart.prgROM) {
		return 0
	}
	return m.cart.prgROM[idx]
}

func (m *Mapper001) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.cart.sram[address-0x6000] = value
		return
	}
	if address < 0x8000 {
		return
	}

	if value&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}

	// Consecutive-cycle writes are ignored (only the first of the pair
	// takes effect) per the documented MMC1 quirk.
	if m.shiftCount > 0 && m.cpuCycle == m.lastWriteCycle+1 {
		m.lastWriteCycle = m.cpuCycle
		return
	}
	m.lastWriteCycle = m.cpuCycle

	m.shift |= (value & 0x01) << m.shiftCount
	m.shiftCount++

	if m.shiftCount == 5 {
		reg := (address >> 13) & 0x03
		switch reg {
		case 0:
			m.control = m.shift
		case 1:
			m.chrBank0 = m.shift
		case 2:
			m.chrBank1 = m.shift
		case 3:
			m.prgBank = m.shift
		}
		m.shift = 0
		m.shiftCount = 0
	}
}

func (m *Mapper001) ReadCHR(address uint16) uint8 {
	idx := m.chrIndex(address)
	if idx < 0 || idx >= len(m.cart.chrROM) {
		return 0
	}
	return m.cart.chrROM[idx]
}

func (m *Mapper001) WriteCHR(address uint16, value uint8) {
	if !m.chrIsRAM {
		return
	}
	idx := m.chrIndex(address)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

func (m *Mapper001) chrIndex(address uint16) int {
	chrMode := (m.control >> 4) & 0x01
	if chrMode == 0 {
		// 8KB mode: chrBank0's low bit ignored
		bank := int(m.chrBank0 &^ 1)
		return bank*0x1000 + int(address)
	}
	// 4KB mode: independent 4KB banks
	if address < 0x1000 {
		return int(m.chrBank0)*0x1000 + int(address)
	}
	return int(m.chrBank1)*0x1000 + int(address-0x1000)
}

type mapper001State struct {
	Shift, ShiftCount          uint8
	Control, ChrBank0, ChrBank1, PrgBank uint8
	LastWriteCycle, CPUCycle   uint64
}

func (m *Mapper001) Serialize() []byte {
	return gobEncode(mapper001State{
		Shift: m.shift, ShiftCount: m.shiftCount,
		Control: m.control, ChrBank0: m.chrBank0, ChrBank1: m.chrBank1, PrgBank: m.prgBank,
		LastWriteCycle: m.lastWriteCycle, CPUCycle: m.cpuCycle,
	})
}

func (m *Mapper001) Deserialize(data []byte) error {
	var s mapper001State
	if err := gobDecode(data, &s); err != nil {
		return err
	}
	m.shift, m.shiftCount = s.Shift, s.ShiftCount
	m.control, m.chrBank0, m.chrBank1, m.prgBank = s.Control, s.ChrBank0, s.ChrBank1, s.PrgBank
	m.lastWriteCycle, m.cpuCycle = s.LastWriteCycle, s.CPUCycle
	return nil
}
