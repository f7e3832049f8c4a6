package config

import (
	"testing"

	"github.com/riftlang/riftc/internal/regalloc"
)

const validDoc = `{
  "schemaVersion": "1.0.0",
  "gpr": {"count": 16, "allocatable": [0,1,2,3], "callerSaved": [0,1]},
  "xmm": {"count": 8, "allocatable": [0,1], "callerSaved": [0,1]},
  "neverSpillConstants": false,
  "detailedAsserts": true,
  "eliminateSpillMoves": true,
  "cacheStackSlots": false
}`

func TestParseValidDocument(t *testing.T) {
	tgt, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := tgt.AllocatableRegisters(regalloc.ClassGPR); len(got) != 4 {
		t.Fatalf("AllocatableRegisters(GPR) = %v, want 4 entries", got)
	}

	if !tgt.IsCallerSave(regalloc.ClassGPR, 0) {
		t.Fatal("register 0 should be caller-saved per the document")
	}

	if tgt.IsCallerSave(regalloc.ClassGPR, 2) {
		t.Fatal("register 2 should not be caller-saved per the document")
	}

	if !tgt.DetailedAsserts() || !tgt.EliminateSpillMoves() {
		t.Fatal("flags should round-trip from the document")
	}

	if tgt.NumRegisters(regalloc.ClassGPR) != 16 || tgt.NumRegisters(regalloc.ClassXMM) != 8 {
		t.Fatal("register counts should round-trip from the document")
	}
}

func TestParseRejectsIncompatibleSchemaVersion(t *testing.T) {
	doc := `{"schemaVersion": "2.0.0", "gpr": {}, "xmm": {}}`

	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected an error for a schema version outside the supported range")
	}
}

func TestParseRejectsMalformedVersion(t *testing.T) {
	doc := `{"schemaVersion": "not-a-version", "gpr": {}, "xmm": {}}`

	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected an error for an unparsable schema version")
	}
}

func TestAreAllAllocatableRegistersCallerSaved(t *testing.T) {
	doc := `{
	  "schemaVersion": "1.0.0",
	  "gpr": {"count": 2, "allocatable": [0,1], "callerSaved": [0,1]},
	  "xmm": {"count": 1, "allocatable": [0], "callerSaved": []}
	}`

	tgt, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !tgt.AreAllAllocatableRegistersCallerSaved(regalloc.ClassGPR) {
		t.Fatal("both allocatable GPRs are caller-saved in this document")
	}

	if tgt.AreAllAllocatableRegistersCallerSaved(regalloc.ClassXMM) {
		t.Fatal("the one allocatable XMM register is not caller-saved in this document")
	}
}

func TestDefaultFrameBuilderAllocatesSequentialSlots(t *testing.T) {
	fb := NewDefaultFrameBuilder()

	first := fb.AllocateSpillSlot(0)
	second := fb.AllocateSpillSlot(0)

	if first == second {
		t.Fatal("successive AllocateSpillSlot calls must return distinct slots")
	}
}
