package idom

import (
	"errors"
	"fmt"
	"strings"
)

// Op names a call of the render call stream.
type Op uint8

const (
	OpPatch Op = iota
	OpElementOpen
	OpElementOpenStart
	OpAttr
	OpElementOpenEnd
	OpElementClose
	OpText
	OpSkip
)

// String returns the call name as used in error messages.
func (op Op) String() string {
	switch op {
	case OpPatch:
		return "patch()"
	case OpElementOpen:
		return "elementOpen()"
	case OpElementOpenStart:
		return "elementOpenStart()"
	case OpAttr:
		return "attr()"
	case OpElementOpenEnd:
		return "elementOpenEnd()"
	case OpElementClose:
		return "elementClose()"
	case OpText:
		return "text()"
	case OpSkip:
		return "skip()"
	default:
		return "unknown()"
	}
}

// Messages of the sequencing errors. They are part of the public contract.
const (
	MsgAttrOutsideBuild      = "attr() can only be called after calling elementOpenStart()."
	MsgOpenEndMissing        = "elementOpenEnd() must be called after calling elementOpenStart()."
	MsgOpenEndWithoutStart   = "elementOpenEnd() can only be called after calling elementOpenStart()."
	MsgOpenInsideBuild       = "elementOpen() can not be called between elementOpenStart() and elementOpenEnd()."
	MsgOpenStartInsideBuild  = "elementOpenStart() can not be called between elementOpenStart() and elementOpenEnd()."
	MsgCloseInsideBuild      = "elementClose() can not be called between elementOpenStart() and elementOpenEnd()."
	MsgTextInsideBuild       = "text() can not be called between elementOpenStart() and elementOpenEnd()."
	MsgSkipInsideBuild       = "skip() can not be called between elementOpenStart() and elementOpenEnd()."
	MsgCloseWithoutOpen      = "elementClose() called without a matching elementOpen()."
	msgUnclosedTagsPrefix    = "One or more tags were not closed:\n"
	msgCloseMismatchTemplate = "Received a call to close %q but %q was open."
)

// ErrNoTextSupport is returned by Text when the tree has no text nodes.
var ErrNoTextSupport = errors.New("idom: tree does not implement TextTree")

// SequencingError reports a call made out of order. Error returns the
// message alone so callers can compare it verbatim.
type SequencingError struct {
	Op      Op
	Message string
}

// Error implements the error interface.
func (e *SequencingError) Error() string {
	return e.Message
}

// Is matches any *SequencingError with the same message, so sentinel
// comparisons against the exported values work with errors.Is.
func (e *SequencingError) Is(target error) bool {
	t, ok := target.(*SequencingError)
	if !ok {
		return false
	}
	return t.Message == e.Message
}

// Sentinel sequencing errors for errors.Is comparisons.
var (
	ErrAttrOutsideBuild     = &SequencingError{Op: OpAttr, Message: MsgAttrOutsideBuild}
	ErrOpenEndMissing       = &SequencingError{Op: OpPatch, Message: MsgOpenEndMissing}
	ErrOpenEndWithoutStart  = &SequencingError{Op: OpElementOpenEnd, Message: MsgOpenEndWithoutStart}
	ErrOpenInsideBuild      = &SequencingError{Op: OpElementOpen, Message: MsgOpenInsideBuild}
	ErrOpenStartInsideBuild = &SequencingError{Op: OpElementOpenStart, Message: MsgOpenStartInsideBuild}
	ErrCloseInsideBuild     = &SequencingError{Op: OpElementClose, Message: MsgCloseInsideBuild}
	ErrTextInsideBuild      = &SequencingError{Op: OpText, Message: MsgTextInsideBuild}
	ErrSkipInsideBuild      = &SequencingError{Op: OpSkip, Message: MsgSkipInsideBuild}
	ErrCloseWithoutOpen     = &SequencingError{Op: OpElementClose, Message: MsgCloseWithoutOpen}
)

func newSequencingError(op Op, msg string) *SequencingError {
	return &SequencingError{Op: op, Message: msg}
}

func errCloseMismatch(tag, open string) *SequencingError {
	return newSequencingError(OpElementClose, fmt.Sprintf(msgCloseMismatchTemplate, tag, open))
}

func errUnclosedTags(tags []string) *SequencingError {
	return newSequencingError(OpPatch, msgUnclosedTagsPrefix+strings.Join(tags, "\n"))
}

// IsSequencingError reports whether err is or wraps a *SequencingError.
func IsSequencingError(err error) bool {
	var se *SequencingError
	return errors.As(err, &se)
}
