package events

import "time"

// CompileStart is emitted before the refetchable fragments of a program are
// processed. Context carries the compile run ID.
type CompileStart struct {
	Fragments int
}

// CompileFinish is emitted once every refetchable fragment has been processed.
type CompileFinish struct {
	Roots      int
	Violations int
	Err        error
	Duration   time.Duration
}
