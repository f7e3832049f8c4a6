package regalloc

import (
	"fmt"

	"github.com/riftlang/riftc/internal/rterr"
)

// bailout builds an AllocatorBailout: the containing compilation should be
// retried with a fallback allocator. Not a bug.
func bailout(code, format string, ctx map[string]interface{}, args ...interface{}) *rterr.Error {
	return rterr.New(rterr.CategoryBailout, code, fmt.Sprintf(format, args...), ctx)
}

// bug builds an AllocatorBug: an internal invariant was violated. Implies a
// defect; callers should treat it as a hard fatal, not retry.
func bug(code, format string, ctx map[string]interface{}, args ...interface{}) *rterr.Error {
	return rterr.New(rterr.CategoryBug, code, fmt.Sprintf(format, args...), ctx)
}

// Error codes carried in the Code field of the errors this package builds.
// The pass-manager driver dispatches on the error's category (rterr.IsBug),
// not on these codes.
const (
	CodeSplitChildMiss       = "SPLIT_CHILD_MISS"
	CodeNoRegisterAvailable  = "NO_REGISTER_AVAILABLE"
	CodeVerifierOverlap      = "VERIFIER_OVERLAP"
	CodeVerifierStaleRoot    = "VERIFIER_STALE_ROOT"
	CodeRegisterOnVariable   = "REGISTER_AS_VARIABLE"
	CodeResolverCycle        = "RESOLVER_CYCLE_UNRESOLVED"
	CodeResolverDoubleEmit   = "RESOLVER_DOUBLE_EMIT"
	CodeListSentinelMisplace = "LIST_SENTINEL_MISPLACED"
)
