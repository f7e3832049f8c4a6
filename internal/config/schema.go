// Package config loads the register-allocation policy for one target from a
// JSON document, and optionally watches it for live edits during
// development. It implements regalloc.Config and regalloc.TargetDescription
// directly so the demo CLI can hand a loaded *Target straight to
// regalloc.Allocate.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/riftlang/riftc/internal/lir"
	"github.com/riftlang/riftc/internal/regalloc"
	"github.com/riftlang/riftc/internal/rterr"
)

// schemaConstraint is the range of config-file schema versions this build
// understands; bumped whenever a field's meaning changes incompatibly.
const schemaConstraint = ">= 1.0.0, < 2.0.0"

// fileFormat mirrors the on-disk JSON document.
type fileFormat struct {
	SchemaVersion string `json:"schemaVersion"`

	GPR struct {
		Count        int   `json:"count"`
		Allocatable  []int `json:"allocatable"`
		CallerSaved  []int `json:"callerSaved"`
	} `json:"gpr"`

	XMM struct {
		Count       int   `json:"count"`
		Allocatable []int `json:"allocatable"`
		CallerSaved []int `json:"callerSaved"`
	} `json:"xmm"`

	NeverSpillConstants bool `json:"neverSpillConstants"`
	DetailedAsserts     bool `json:"detailedAsserts"`
	EliminateSpillMoves bool `json:"eliminateSpillMoves"`
	CacheStackSlots     bool `json:"cacheStackSlots"`
}

// Target is a loaded, validated configuration: both the register-file
// description and the allocation policy flags, for one architecture.
type Target struct {
	gprCount, xmmCount       int
	gprAllocatable           []int
	xmmAllocatable           []int
	gprCallerSaved           map[int]bool
	xmmCallerSaved           map[int]bool
	neverSpillConstants      bool
	detailedAsserts          bool
	eliminateSpillMoves      bool
	cacheStackSlots          bool
}

// Load reads and validates a register-file config document from path.
func Load(path string) (*Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(raw)
}

// Parse validates and builds a Target from an in-memory JSON document; Load
// is a thin wrapper around this plus a file read, split out so the hot-
// reload watcher can call it directly on each change event.
func Parse(raw []byte) (*Target, error) {
	var f fileFormat

	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	constraint, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return nil, fmt.Errorf("config: internal schema constraint: %w", err)
	}

	version, err := semver.NewVersion(f.SchemaVersion)
	if err != nil {
		return nil, rterr.New(rterr.CategoryConfig, "CONFIG_BAD_VERSION",
			fmt.Sprintf("schemaVersion %q is not a valid semantic version", f.SchemaVersion), nil)
	}

	if !constraint.Check(version) {
		return nil, rterr.New(rterr.CategoryConfig, "CONFIG_SCHEMA_MISMATCH",
			fmt.Sprintf("schemaVersion %s does not satisfy %s", version, schemaConstraint),
			map[string]interface{}{"version": version.String(), "constraint": schemaConstraint})
	}

	t := &Target{
		gprCount:            f.GPR.Count,
		xmmCount:            f.XMM.Count,
		gprAllocatable:      append([]int(nil), f.GPR.Allocatable...),
		xmmAllocatable:      append([]int(nil), f.XMM.Allocatable...),
		gprCallerSaved:      toSet(f.GPR.CallerSaved),
		xmmCallerSaved:      toSet(f.XMM.CallerSaved),
		neverSpillConstants: f.NeverSpillConstants,
		detailedAsserts:     f.DetailedAsserts,
		eliminateSpillMoves: f.EliminateSpillMoves,
		cacheStackSlots:     f.CacheStackSlots,
	}

	return t, nil
}

func toSet(ids []int) map[int]bool {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}

	return m
}

// NumRegisters implements regalloc.TargetDescription.
func (t *Target) NumRegisters(class regalloc.RegisterClass) int {
	if class == regalloc.ClassXMM {
		return t.xmmCount
	}

	return t.gprCount
}

// RegisterName implements regalloc.TargetDescription.
func (t *Target) RegisterName(class regalloc.RegisterClass, reg int) string {
	if class == regalloc.ClassXMM {
		return fmt.Sprintf("xmm%d", reg)
	}

	return fmt.Sprintf("r%d", reg)
}

// AllocatableRegisters implements regalloc.Config.
func (t *Target) AllocatableRegisters(class regalloc.RegisterClass) []int {
	if class == regalloc.ClassXMM {
		return t.xmmAllocatable
	}

	return t.gprAllocatable
}

// IsAllocatable implements regalloc.Config.
func (t *Target) IsAllocatable(class regalloc.RegisterClass, reg int) bool {
	for _, r := range t.AllocatableRegisters(class) {
		if r == reg {
			return true
		}
	}

	return false
}

// IsCallerSave implements regalloc.Config.
func (t *Target) IsCallerSave(class regalloc.RegisterClass, reg int) bool {
	if class == regalloc.ClassXMM {
		return t.xmmCallerSaved[reg]
	}

	return t.gprCallerSaved[reg]
}

// AreAllAllocatableRegistersCallerSaved implements regalloc.Config.
func (t *Target) AreAllAllocatableRegistersCallerSaved(class regalloc.RegisterClass) bool {
	for _, r := range t.AllocatableRegisters(class) {
		if !t.IsCallerSave(class, r) {
			return false
		}
	}

	return true
}

func (t *Target) NeverSpillConstants() bool { return t.neverSpillConstants }
func (t *Target) DetailedAsserts() bool     { return t.detailedAsserts }
func (t *Target) EliminateSpillMoves() bool { return t.eliminateSpillMoves }
func (t *Target) CacheStackSlots() bool     { return t.cacheStackSlots }

// DefaultFrameBuilder is a minimal regalloc.FrameBuilder: a monotonically
// growing slot counter, one slot per spilled value regardless of kind. A
// real frame-layout finalizer is an external concern; this is enough to
// drive the allocator and the demo CLI end to end.
type DefaultFrameBuilder struct {
	next int
}

func NewDefaultFrameBuilder() *DefaultFrameBuilder { return &DefaultFrameBuilder{} }

func (fb *DefaultFrameBuilder) AllocateSpillSlot(kind lir.Kind) int {
	slot := fb.next
	fb.next++

	return slot
}
