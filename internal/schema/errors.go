package schema

import "fmt"

// StructureError is the fatal error raised while normalizing a schema
// description: malformed input, illegal identifiers, name clashes, type or
// default-value violations, key/property contradictions. The message
// identifies the offending key or value so the input is locatable.
type StructureError struct {
	Message string
}

func (e *StructureError) Error() string { return e.Message }

func structErrf(format string, args ...any) *StructureError {
	return &StructureError{Message: fmt.Sprintf(format, args...)}
}
