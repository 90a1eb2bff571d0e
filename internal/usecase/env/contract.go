package env

import (
	"context"

	"github.com/villabioinfo/BLASTr/internal/domain/tool"
)

// Provisioner inspects and creates isolated tool environments.
type Provisioner interface {
	EnvExists(ctx context.Context, name string) (bool, error)
	Which(name string) bool
	Create(ctx context.Context, name string, pkgs []tool.Package, verbose, overwrite bool) error
}
