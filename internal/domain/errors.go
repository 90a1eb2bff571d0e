package domain

import (
	"errors"
	"fmt"
)

// Setup errors abort a batch before any search is dispatched.
var (
	// ErrUnsupportedTool signals a tool name missing from the tool registry.
	ErrUnsupportedTool = errors.New("unsupported tool")
	// ErrProvisionFailed signals a failure to create or inspect a tool environment.
	ErrProvisionFailed = errors.New("environment provisioning failed")
	// ErrDatabaseNotFound signals a missing or unreadable reference database.
	ErrDatabaseNotFound = errors.New("database not found")
	// ErrInvalidParams signals search parameters that failed validation.
	ErrInvalidParams = errors.New("invalid search parameters")
)

// Per-query and I/O errors.
var (
	// ErrSearchFailed signals that one aligner invocation failed.
	ErrSearchFailed = errors.New("search failed")
	// ErrSchemaMismatch signals aligner output that does not fit the declared columns.
	ErrSchemaMismatch = errors.New("output does not match column schema")
	// ErrPersist signals a failure to write results to disk.
	ErrPersist = errors.New("persist results")
	// ErrFetchFailed signals a failure of the reference record fetch tool.
	ErrFetchFailed = errors.New("fetch failed")
)

// ToolError classifies a setup failure with the tool and step it concerns.
type ToolError struct {
	Tool string
	Op   string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Tool, e.Err.Error())
}

func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError wraps err with the tool name and the failing step.
func NewToolError(tool, op string, err error) error {
	return &ToolError{Tool: tool, Op: op, Err: err}
}
