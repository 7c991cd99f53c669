package ir

// These consts gate optional validation and are the core's only
// "logging" surface, following wazevo's wazevoapi/debug_consts.go: rather
// than pull in a logging package, expensive consistency re-checks are
// compiled in behind a const and flipped by hand while debugging a
// specific pass. They must stay false/true as documented below in any
// commit; flipping one is a local debugging aid, not a runtime knob.

const (
	// UseListValidationEnabled re-checks the rewritten instruction's
	// use-list entries (§8 "Use-list consistency") after each
	// Data.ReplaceInstArg and after each φ-operand append in mem2reg
	// renaming. Enabled by default since the check is cheap relative to
	// the mutations it guards.
	UseListValidationEnabled = true

	// Mem2RegValidationEnabled re-checks use-list consistency over every
	// live instruction (Data.ValidateAllUses) after mem2reg completes.
	Mem2RegValidationEnabled = true

	// CFGValidationEnabled is not read by Layout or any pass: pred/succ
	// symmetry (§8 "CFG consistency") is checked only when
	// Function.ValidateCFG is called explicitly.
	CFGValidationEnabled = true
)
