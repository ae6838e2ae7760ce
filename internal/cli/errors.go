package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/lyssym/opendial/internal/compiler"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Domain file, database, or session not found
	ErrCodeLoadFailed  = "E003" // CUE parse/compile failed
	ErrCodeWriteFailed = "E004" // File write error
	ErrCodeRuleUnknown = "E005" // Rule identifier not present in domain
	ErrCodeBadInput    = "E006" // Malformed assignment or value flag
	ErrCodeStoreFailed = "E007" // Session store error
	ErrCodeEmptySample = "E008" // Sampling from an empty distribution

	// Domain compile errors
	ErrCodeMissingDomain = "E101" // Missing domain struct
	ErrCodeMissingName   = "E102" // Missing domain name
	ErrCodeBadVariable   = "E103" // Malformed variable declaration
	ErrCodeBadKind       = "E104" // Missing or unknown rule kind
	ErrCodeBadCondition  = "E110" // Malformed when clause
	ErrCodeBadEffect     = "E111" // Malformed then clause
	ErrCodeBadWeight     = "E112" // Malformed weight
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Compile error fields are hierarchical (rule.r1.cases[0].when[1].var),
// so matching is on the path tail.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "domain":
		return ErrCodeMissingDomain
	case field == "domain.name":
		return ErrCodeMissingName
	case strings.HasPrefix(field, "domain.variables"):
		return ErrCodeBadVariable
	case strings.HasSuffix(field, ".kind"):
		return ErrCodeBadKind
	case strings.HasSuffix(field, ".var"), strings.HasSuffix(field, ".op"), strings.HasSuffix(field, ".value"):
		return ErrCodeBadCondition
	case strings.HasSuffix(field, ".then"), strings.HasSuffix(field, ".set"):
		return ErrCodeBadEffect
	case strings.HasSuffix(field, ".weight"):
		return ErrCodeBadWeight
	case field == "cue":
		return ErrCodeLoadFailed
	default:
		return ErrCodeGeneric
	}
}

// parseDomainError normalizes a LoadDomain/CompileDomain failure into an
// error code, a message, and a source line (0 when unknown).
func parseDomainError(err error) (code, message string, line int) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		line := 0
		if compileErr.Pos.IsValid() {
			line = compileErr.Pos.Line()
		}
		return MapFieldToErrorCode(compileErr.Field),
			fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			line
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound, err.Error(), 0
	}
	return ErrCodeGeneric, err.Error(), 0
}
