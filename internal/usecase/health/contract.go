package health

import "context"

// ToolChecker checks that the package manager can be run.
type ToolChecker interface {
	Available() error
}

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
