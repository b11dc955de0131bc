package backbone

// Config toggles the five heuristic checks Compute uses to shrink its
// initial candidate set and to prune it further as models come in. Every
// flag defaults to true; soundness and completeness of the returned
// Backbone hold for any subset of enabled flags (see the config
// independence tests) — a disabled flag only costs extra confirmation
// calls, it never changes the result.
type Config struct {
	// InitialUBCheckForRotatableLiterals drops, before the main loop,
	// any initial candidate that is rotatable in the model from the
	// first SAT call.
	InitialUBCheckForRotatableLiterals bool

	// InitialLBCheckForUPZeroLiterals commits, before the main loop,
	// any relevant variable already fixed at decision level 0.
	InitialLBCheckForUPZeroLiterals bool

	// CheckForUPZeroLiterals commits, during refinement after each
	// non-confirming SAT call, any remaining candidate now at level 0.
	CheckForUPZeroLiterals bool

	// CheckForComplementModelLiterals drops, during refinement, any
	// candidate the latest model assigns to the complement of its
	// recorded phase.
	CheckForComplementModelLiterals bool

	// CheckForRotatableLiterals drops, during refinement, any
	// candidate that is rotatable in the latest model.
	CheckForRotatableLiterals bool
}

// DefaultConfig returns a Config with every heuristic enabled, the
// configuration used by the CLI unless a flag turns one off.
func DefaultConfig() Config {
	return Config{
		InitialUBCheckForRotatableLiterals: true,
		InitialLBCheckForUPZeroLiterals:    true,
		CheckForUPZeroLiterals:             true,
		CheckForComplementModelLiterals:    true,
		CheckForRotatableLiterals:          true,
	}
}
