package corpus

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/inv-mschultz/edgy-sub001/internal/compiler"
)

// Error code constants - shared with the CLI's JSON error output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoDocuments   = "E003" // No rule documents found
	ErrCodeReadFailed    = "E004" // Document could not be read
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeParseFailed   = "E006" // CUE/YAML/JSON syntax error
	ErrCodeSchema        = "E007" // Document does not match the schema
	ErrCodeEmptyCorpus   = "E008" // Documents define no rules or flows
	ErrCodeDuplicateID   = "E120" // Rule id defined twice
	ErrCodeDuplicateFlow = "E121" // Flow type defined twice

	// Compile errors, keyed by the failing field.
	ErrCodeInvalidTemplate    = "E130"
	ErrCodeInvalidSeverity    = "E131"
	ErrCodeInvalidTrigger     = "E132"
	ErrCodeInvalidExpectation = "E133"
	ErrCodeInvalidFlow        = "E140"
)

// LoadError is a malformed or unreadable rule corpus. It always names the
// offending document; Pos adds line and column when the parser knows them.
type LoadError struct {
	Code     string
	Document string
	Message  string
	Pos      token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Document != "" {
		return fmt.Sprintf("%s: %s: %s", e.Document, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, doc, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if context != "" {
			msg = fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message)
		}
		return &LoadError{
			Code:     MapFieldToErrorCode(compileErr.Field),
			Document: doc,
			Message:  msg,
			Pos:      compileErr.Pos,
		}
	}
	return &LoadError{
		Code:     ErrCodeGeneric,
		Document: doc,
		Message:  fmt.Sprintf("%s: %v", context, err),
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	head := field
	if i := strings.IndexAny(head, ".["); i >= 0 {
		head = head[:i]
	}
	switch head {
	case "cue":
		return ErrCodeParseFailed
	case "schema":
		return ErrCodeSchema
	case "title", "description", "recommendation":
		return ErrCodeInvalidTemplate
	case "severity":
		return ErrCodeInvalidSeverity
	case "trigger":
		return ErrCodeInvalidTrigger
	case "expect":
		return ErrCodeInvalidExpectation
	case "flow_type", "screens", "keywords":
		return ErrCodeInvalidFlow
	default:
		return ErrCodeGeneric
	}
}
