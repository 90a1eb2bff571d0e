package blastr

import "github.com/villabioinfo/BLASTr/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedTool  = domain.ErrUnsupportedTool
	ErrProvisionFailed  = domain.ErrProvisionFailed
	ErrDatabaseNotFound = domain.ErrDatabaseNotFound
	ErrInvalidParams    = domain.ErrInvalidParams
	ErrSearchFailed     = domain.ErrSearchFailed
	ErrSchemaMismatch   = domain.ErrSchemaMismatch
	ErrPersist          = domain.ErrPersist
	ErrFetchFailed      = domain.ErrFetchFailed
)

// ToolError classifies a setup failure with the tool it concerns.
type ToolError = domain.ToolError
