package events

import "time"

// RefetchStart is emitted before dispatching a single fragment.
// Context carries the fragment run ID; CompileID links it to its pass.
type RefetchStart struct {
	CompileID string
	Fragment  string
	QueryName string
}

// RefetchFinish is emitted after a fragment was dispatched. Path is nil when
// no root was produced.
type RefetchFinish struct {
	CompileID string
	Fragment  string
	QueryName string
	Path      []string
	Err       error
	Duration  time.Duration
}
