package input

// Port is the protocol a device on a controller port speaks: the standard
// pad and the Zapper both implement it, so either can sit behind $4016 or
// $4017.
type Port interface {
	Read() uint8
	Write(value uint8)
	Reset()
}

// FrameSource is the subset of the PPU a LightGun needs to decide whether
// its sensor is pointed at a lit pixel: the completed frame buffer and the
// raster position currently being drawn.
type FrameSource interface {
	GetFrameBuffer() [256 * 240]uint32
	GetScanline() int
	GetCycle() int
}

// lightThreshold is the per-channel brightness (out of 0xFF) a pixel must
// clear to register as "lit" to the photodiode. NES light guns only
// respond to the brightest palette entries (whites and light yellows),
// not the full gamut, so this is set high rather than a plain "nonzero".
const lightThreshold = 0xB0

// zapperSenseWindow is how many PPU dots the photodiode stays triggered
// after the beam passes the aimed pixel, in scanlines worth of afterglow.
// Real CRTs decay over roughly 2-3 scanlines; approximated here as a flat
// window measured in PPU cycles.
const zapperSenseWindow = 20

// LightGun implements the Zapper light-gun protocol against a controller
// port. Aim is set by the host (mouse position mapped to the 256x240
// screen); sensing compares that position against the PPU's current beam
// position and the brightness of the pixel it last rendered there.
type LightGun struct {
	frame FrameSource

	x, y     int
	onScreen bool
	trigger  bool
}

// NewLightGun creates a Zapper bound to the PPU that supplies its frame
// buffer and raster position.
func NewLightGun(frame FrameSource) *LightGun {
	return &LightGun{frame: frame}
}

// SetAim records where the light gun is pointed, in screen pixel
// coordinates. onScreen is false when the gun is aimed off the display
// (real light guns report permanent darkness in that case).
func (z *LightGun) SetAim(x, y int, onScreen bool) {
	z.x, z.y, z.onScreen = x, y, onScreen
}

// SetTrigger sets whether the trigger is currently held.
func (z *LightGun) SetTrigger(pressed bool) {
	z.trigger = pressed
}

// Write is a no-op: the Zapper has no strobe/shift-register state, it
// just samples continuously.
func (z *LightGun) Write(value uint8) {}

// Read returns the Zapper's two status bits in the same $4016/$4017
// position a controller's button bit occupies. Bit 4 is the trigger
// (0 = pressed), bit 3 is the light sensor (0 = light detected).
func (z *LightGun) Read() uint8 {
	var result uint8
	if !z.trigger {
		result |= 0x10
	}
	if !z.lightDetected() {
		result |= 0x08
	}
	return result
}

// lightDetected reports whether the photodiode is currently over a lit
// pixel. It requires both spatial agreement (the aimed pixel is bright in
// the last completed frame) and rough temporal agreement (the beam has
// recently passed that scanline) so a gun aimed at a bright area of the
// screen doesn't read as "lit" for the entire frame.
func (z *LightGun) lightDetected() bool {
	if !z.onScreen || z.frame == nil {
		return false
	}
	if z.x < 0 || z.x >= 256 || z.y < 0 || z.y >= 240 {
		return false
	}

	scanline := z.frame.GetScanline()
	cycle := z.frame.GetCycle()
	beamDots := scanline*341 + cycle
	targetDots := z.y*341 + z.x
	delta := beamDots - targetDots
	if delta < 0 {
		delta += 262 * 341
	}
	if delta > zapperSenseWindow {
		return false
	}

	pixel := z.frame.GetFrameBuffer()[z.y*256+z.x]
	r := uint8(pixel >> 16)
	g := uint8(pixel >> 8)
	b := uint8(pixel)
	return r >= lightThreshold && g >= lightThreshold && b >= lightThreshold
}

// Reset clears trigger and aim state.
func (z *LightGun) Reset() {
	z.x, z.y, z.onScreen, z.trigger = 0, 0, false, false
}
