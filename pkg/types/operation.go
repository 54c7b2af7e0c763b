package types

import "fmt"

// OperationType defines how an operation writes its target
type OperationType string

const (
	// OperationCopy copies the source over the target, merging into an
	// existing directory
	OperationCopy OperationType = "copy"

	// OperationReplace removes an existing target directory before copying
	// a directory source onto it
	OperationReplace OperationType = "replace"
)

// Operation represents a single resolved copy from a checkout into the
// output tree. Operations are applied in order; a later operation writing
// the same target wins.
type Operation struct {
	// Type is the type of operation
	Type OperationType `json:"type"`

	// Source is the absolute path inside the checkout
	Source string `json:"source"`

	// Target is the absolute path inside the output directory
	Target string `json:"target"`
}

// Replace reports whether an existing target directory is removed first
func (o Operation) Replace() bool {
	return o.Type == OperationReplace
}

// String renders the operation for logs and dry runs
func (o Operation) String() string {
	return fmt.Sprintf("%s %s -> %s", o.Type, o.Source, o.Target)
}
