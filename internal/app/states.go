// Package app provides save state functionality for the NES emulator.
package app

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gones/internal/bus"
)

const saveStateVersion = "2.0"

// StateErrorKind enumerates the ways a save state can fail to load, per the
// external error-handling contract: the host switches on kind, not message.
type StateErrorKind uint8

const (
	StateErrorVersion StateErrorKind = iota
	StateErrorCartridgeMismatch
	StateErrorCorrupt
)

func (k StateErrorKind) String() string {
	switch k {
	case StateErrorVersion:
		return "version mismatch"
	case StateErrorCartridgeMismatch:
		return "cartridge mismatch"
	case StateErrorCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// StateError is returned by LoadState/ImportState when a save state cannot
// be applied to the currently loaded cartridge. The bus is left untouched
// when this is returned.
type StateError struct {
	Kind   StateErrorKind
	Detail string
}

func (e *StateError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("save state error: %s", e.Kind)
	}
	return fmt.Sprintf("save state error: %s: %s", e.Kind, e.Detail)
}

func newStateError(kind StateErrorKind, detail string) *StateError {
	return &StateError{Kind: kind, Detail: detail}
}

// StateManager manages save states
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// SaveState represents a saved emulator state. The metadata fields are kept
// as JSON so a slot listing can be built without decoding the machine
// snapshot; Snapshot itself is the gob blob produced by Bus.Serialize.
type SaveState struct {
	// Metadata
	Version         string    `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
	ROMPath         string    `json:"rom_path"`
	ROMChecksum     string    `json:"rom_checksum"`
	CartFingerprint string    `json:"cart_fingerprint"`
	SlotNumber      int       `json:"slot_number"`
	Description     string    `json:"description"`

	// Frame information, kept alongside Snapshot for slot listings.
	FrameCount uint64 `json:"frame_count"`
	CycleCount uint64 `json:"cycle_count"`

	// Snapshot is the gob-encoded Bus.Serialize() blob: CPU, PPU, APU,
	// CPU/PPU memory and mapper state.
	Snapshot []byte `json:"snapshot"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber  int       `json:"slot_number"`
	Used        bool      `json:"used"`
	Timestamp   time.Time `json:"timestamp"`
	ROMPath     string    `json:"rom_path"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string) *StateManager {
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10, // Default to 10 save slots
		initialized:   false,
	}

	if err := manager.initialize(); err != nil {
		// Log error but continue
		fmt.Printf("Warning: State manager initialization failed: %v\n", err)
	}

	return manager
}

// initialize initializes the state manager
func (sm *StateManager) initialize() error {
	// Create save directory if it doesn't exist
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %v", err)
	}

	sm.initialized = true
	return nil
}

// SaveState saves the current emulator state to a slot
func (sm *StateManager) SaveState(bus *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}

	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	if bus == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	fingerprint := ""
	if fp, ok := bus.Fingerprint(); ok {
		fingerprint = fmt.Sprintf("%x", fp)
	}

	// Create save state
	saveState := &SaveState{
		Version:         saveStateVersion,
		Timestamp:       time.Now(),
		ROMPath:         romPath,
		ROMChecksum:     sm.calculateROMChecksum(romPath),
		CartFingerprint: fingerprint,
		SlotNumber:      slot,
		Description:     fmt.Sprintf("Auto-save %s", time.Now().Format("2006-01-02 15:04:05")),
		FrameCount:      bus.GetFrameCount(),
		CycleCount:      bus.GetCycleCount(),
		Snapshot:        bus.Serialize(),
	}

	// Generate file path
	filePath := sm.getSlotFilePath(slot, romPath)

	// Save to file
	if err := sm.saveToFile(saveState, filePath); err != nil {
		return fmt.Errorf("failed to save state: %v", err)
	}

	return nil
}

// LoadState loads a saved state from a slot
func (sm *StateManager) LoadState(bus *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}

	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	if bus == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	// Generate file path
	filePath := sm.getSlotFilePath(slot, romPath)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}

	// Load from file. loadFromFile and validateSaveState return *StateError
	// for version/cartridge/corruption failures; wrap with %w so callers can
	// still errors.As through to the Kind.
	saveState, err := sm.loadFromFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	// Validate save state
	if err := sm.validateSaveState(saveState, bus, romPath); err != nil {
		return fmt.Errorf("invalid save state: %w", err)
	}

	// Restore state to bus
	if err := sm.restoreState(bus, saveState); err != nil {
		return fmt.Errorf("failed to restore state: %v", err)
	}

	return nil
}

// saveToFile saves a state to a file
func (sm *StateManager) saveToFile(state *SaveState, filePath string) error {
	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}

	// Marshal to JSON
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %v", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %v", err)
	}

	return nil
}

// loadFromFile loads a state from a file. A read failure is a plain I/O
// error (missing/unreadable file); a JSON decode failure means the file
// itself is corrupt and is reported as a StateError so the host can tell
// the two apart.
func (sm *StateManager) loadFromFile(filePath string) (*SaveState, error) {
	// Read file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	// Unmarshal JSON
	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, newStateError(StateErrorCorrupt, fmt.Sprintf("malformed save file: %v", err))
	}

	return &state, nil
}

// validateSaveState validates a loaded save state against the currently
// loaded cartridge. The ROM path match is a convenience check; the
// cartridge fingerprint is the one that actually guards against restoring
// mapper state onto an incompatible cartridge.
func (sm *StateManager) validateSaveState(state *SaveState, currentBus *bus.Bus, currentROMPath string) error {
	if state.Version == "" || state.Version != saveStateVersion {
		return newStateError(StateErrorVersion, fmt.Sprintf("save state version %q, expected %q", state.Version, saveStateVersion))
	}

	if state.ROMPath != currentROMPath {
		return newStateError(StateErrorCartridgeMismatch, "save state is for a different ROM")
	}

	if fp, ok := currentBus.Fingerprint(); ok {
		if state.CartFingerprint != "" && state.CartFingerprint != fmt.Sprintf("%x", fp) {
			return newStateError(StateErrorCartridgeMismatch, "save state cartridge fingerprint does not match loaded cartridge")
		}
	}

	if len(state.Snapshot) == 0 {
		return newStateError(StateErrorCorrupt, "save state has no snapshot data")
	}

	return nil
}

// restoreState restores emulator state from a save state by replaying the
// gob-encoded component snapshot onto the bus. The cartridge must already
// be loaded; CPU/PPU/APU/memory state and the cartridge's mapper, SRAM and
// CHR-RAM state are restored, but not the ROM data itself.
func (sm *StateManager) restoreState(bus *bus.Bus, state *SaveState) error {
	return bus.Deserialize(state.Snapshot)
}

// getSlotFilePath generates the file path for a save slot
func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romNameWithoutExt := romName[:len(romName)-len(filepath.Ext(romName))]
	fileName := fmt.Sprintf("%s_slot_%d.save", romNameWithoutExt, slot)
	return filepath.Join(sm.saveDirectory, fileName)
}

// calculateROMChecksum hashes the ROM file's contents. Falls back to a
// name-only tag if the file can't be read (e.g. it has since moved).
func (sm *StateManager) calculateROMChecksum(romPath string) string {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Sprintf("unreadable_%s", filepath.Base(romPath))
	}
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum)
}

// GetSlotInfo returns information about all save slots
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)

	for i := 0; i < sm.maxSlots; i++ {
		slotInfo := StateSlotInfo{
			SlotNumber: i,
			Used:       false,
		}

		filePath := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(filePath); err == nil {
			// File exists
			slotInfo.Used = true
			slotInfo.FilePath = filePath
			slotInfo.FileSize = stat.Size()
			slotInfo.Timestamp = stat.ModTime()

			// Try to load basic info from the save state
			if state, err := sm.loadFromFile(filePath); err == nil {
				slotInfo.ROMPath = state.ROMPath
				slotInfo.Description = state.Description
				slotInfo.Timestamp = state.Timestamp
			}
		}

		slots[i] = slotInfo
	}

	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}

	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d", slot)
	}

	filePath := sm.getSlotFilePath(slot, romPath)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}

	// Delete file
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete save state: %v", err)
	}

	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	_, err := os.Stat(filePath)
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// SetMaxSlots sets the maximum number of save slots
func (sm *StateManager) SetMaxSlots(slots int) {
	if slots > 0 {
		sm.maxSlots = slots
	}
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

// SetSaveDirectory sets the save directory path
func (sm *StateManager) SetSaveDirectory(directory string) error {
	sm.saveDirectory = directory
	return sm.initialize()
}

// ExportState exports a save state to a specific file
func (sm *StateManager) ExportState(bus *bus.Bus, filePath string, romPath string) error {
	fingerprint := ""
	if fp, ok := bus.Fingerprint(); ok {
		fingerprint = fmt.Sprintf("%x", fp)
	}

	saveState := &SaveState{
		Version:         saveStateVersion,
		Timestamp:       time.Now(),
		ROMPath:         romPath,
		ROMChecksum:     sm.calculateROMChecksum(romPath),
		CartFingerprint: fingerprint,
		SlotNumber:      -1, // Export doesn't use slots
		Description:     fmt.Sprintf("Export %s", time.Now().Format("2006-01-02 15:04:05")),
		FrameCount:      bus.GetFrameCount(),
		CycleCount:      bus.GetCycleCount(),
		Snapshot:        bus.Serialize(),
	}

	return sm.saveToFile(saveState, filePath)
}

// ImportState imports a save state from a specific file
func (sm *StateManager) ImportState(bus *bus.Bus, filePath string, romPath string) error {
	// Load from file
	saveState, err := sm.loadFromFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to import state: %w", err)
	}

	// Validate and restore
	if err := sm.validateSaveState(saveState, bus, romPath); err != nil {
		return fmt.Errorf("invalid imported state: %w", err)
	}

	return sm.restoreState(bus, saveState)
}

// Cleanup cleans up state manager resources
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}

// GetStateManagerStats returns statistics about the state manager
func (sm *StateManager) GetStateManagerStats(romPath string) StateManagerStats {
	slots := sm.GetSlotInfo(romPath)

	var usedSlots int
	var totalSize int64
	for _, slot := range slots {
		if slot.Used {
			usedSlots++
			totalSize += slot.FileSize
		}
	}

	return StateManagerStats{
		MaxSlots:      sm.maxSlots,
		UsedSlots:     usedSlots,
		FreeSlots:     sm.maxSlots - usedSlots,
		TotalSize:     totalSize,
		SaveDirectory: sm.saveDirectory,
		Initialized:   sm.initialized,
	}
}

// StateManagerStats contains state manager statistics
type StateManagerStats struct {
	MaxSlots      int    `json:"max_slots"`
	UsedSlots     int    `json:"used_slots"`
	FreeSlots     int    `json:"free_slots"`
	TotalSize     int64  `json:"total_size"`
	SaveDirectory string `json:"save_directory"`
	Initialized   bool   `json:"initialized"`
}
