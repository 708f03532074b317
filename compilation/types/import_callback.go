package types

// ImportResult is the outcome of resolving a single import. Exactly one of Contents or Err is meaningful: a nil Err
// signals success.
type ImportResult struct {
	// Contents holds the text of the resolved source.
	Contents string

	// Err describes why the import could not be resolved.
	Err error
}

// ImportCallback is invoked by a compiler backend for each import path the compiler could not find among the
// submitted sources. It is called synchronously, zero or more times, in the order the compiler requests them.
type ImportCallback func(path string) ImportResult
