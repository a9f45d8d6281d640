package artlife

import "fmt"

// ArchiveFormatError is returned when a genome archive cannot be decoded:
// zero frames, frames of the wrong size, or an unreadable image stream.
type ArchiveFormatError struct {
	Frame  int // -1 when the error is not tied to a frame
	Reason string
	Err    error
}

func (e *ArchiveFormatError) Error() string {
	msg := "archive format error"
	if e.Frame >= 0 {
		msg = fmt.Sprintf("%s in frame %d", msg, e.Frame)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArchiveFormatError) Unwrap() error { return e.Err }

// InvalidSelectionError is returned by the genetic operators when asked for more
// genomes than exist, or when given an empty input.
type InvalidSelectionError struct {
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return "invalid selection: " + e.Reason
}

// CoordinatorStateError is returned when the coordinator cannot run an evolution
// cycle, e.g. because the environment produced no fitness results.
type CoordinatorStateError struct {
	Reason string
}

func (e *CoordinatorStateError) Error() string {
	return "coordinator state error: " + e.Reason
}
