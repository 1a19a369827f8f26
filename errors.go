package datasets

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError means the manifest bytes are not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists every required manifest field that is missing or malformed.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "manifest validation failed: " + strings.Join(e.Problems, ", ")
}

// NormalizationError reports a content entry that cannot be turned into a tree node.
// Path is the slash-joined location of the entry inside the manifest.
type NormalizationError struct {
	Path   string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.Path == "" {
		return "manifest normalization failed: " + e.Reason
	}
	return fmt.Sprintf("manifest normalization failed at %q: %s", e.Path, e.Reason)
}

// IsClientError reports whether err was caused by the uploaded manifest itself.
func IsClientError(err error) bool {
	var (
		pe *ParseError
		ve *ValidationError
		ne *NormalizationError
	)
	return errors.As(err, &pe) || errors.As(err, &ve) || errors.As(err, &ne)
}
