package aggregation

import (
	"errors"
	"fmt"
)

// ErrUnimplementedSummary is returned when a pushed Summary sample has to
// be merged into a stored sample with the same label set. Summary quantile
// merging has no well-defined semantics without the original sample
// population, so that merge is rejected rather than silently producing a
// misleading result (spec.md Non-goals). A Summary sample that creates a
// new family or a new label set is stored as pushed.
var ErrUnimplementedSummary = errors.New("aggregation: summary metrics cannot be merged")

// ParseError wraps a failure to decode a pushed exposition body.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("aggregation: parse exposition body: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidMergeError reports a push that is well-formed exposition text but
// cannot be reconciled with a family already on file: a type mismatch, a
// label-name-set mismatch (I1), or an unsupported metric kind.
type InvalidMergeError struct {
	Family string
	Reason string
}

func (e *InvalidMergeError) Error() string {
	if e.Family == "" {
		return fmt.Sprintf("aggregation: invalid merge: %s", e.Reason)
	}
	return fmt.Sprintf("aggregation: invalid merge for family %q: %s", e.Family, e.Reason)
}

// BadUTF8Error reports a pushed body that is not valid UTF-8 text, which
// the exposition format parser refuses to even attempt decoding.
type BadUTF8Error struct{}

func (e *BadUTF8Error) Error() string { return "aggregation: request body is not valid UTF-8" }
