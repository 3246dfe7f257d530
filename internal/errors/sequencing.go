package errors

import (
	stderrors "errors"
	"strings"

	"github.com/vango-dev/idom/pkg/idom"
)

// sequencingCodes maps engine sentinels to registry codes.
var sequencingCodes = []struct {
	target error
	code   string
}{
	{idom.ErrAttrOutsideBuild, "E001"},
	{idom.ErrOpenEndMissing, "E002"},
	{idom.ErrOpenEndWithoutStart, "E003"},
	{idom.ErrOpenInsideBuild, "E004"},
	{idom.ErrOpenStartInsideBuild, "E005"},
	{idom.ErrCloseInsideBuild, "E006"},
	{idom.ErrTextInsideBuild, "E007"},
	{idom.ErrSkipInsideBuild, "E008"},
	{idom.ErrCloseWithoutOpen, "E009"},
	{idom.ErrNotPatching, "E012"},
	{idom.ErrNoTextSupport, "E013"},
}

// SequencingCode returns the registry code for an engine error, or "" if
// err is not one.
func SequencingCode(err error) string {
	for _, sc := range sequencingCodes {
		if stderrors.Is(err, sc.target) {
			return sc.code
		}
	}
	var se *idom.SequencingError
	if stderrors.As(err, &se) {
		switch {
		case strings.HasPrefix(se.Message, "Received a call to close"):
			return "E010"
		case strings.HasPrefix(se.Message, "One or more tags were not closed"):
			return "E011"
		}
	}
	return ""
}

// FromSequencing converts an engine error into a diagnostic whose message
// is the engine's exact message. It returns nil for other errors.
func FromSequencing(err error) *Error {
	code := SequencingCode(err)
	if code == "" {
		return nil
	}
	e := New(code).Wrap(err)
	e.Message = err.Error()
	return e
}
