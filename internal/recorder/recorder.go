package recorder

import "SignalSentinel/internal/model"

// Recorder archives finished reports. It is write-only: nothing in a run
// reads the archive back.
type Recorder interface {
	RecordReport(report *model.Report) error
	Close() error
}
