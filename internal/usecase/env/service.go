package env

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain"
	"github.com/villabioinfo/BLASTr/internal/domain/tool"
	"github.com/villabioinfo/BLASTr/internal/logger"
	"github.com/villabioinfo/BLASTr/internal/metrics"
)

// Action is the decision the gate took for one call.
type Action string

// Gate actions.
const (
	ActionForce       Action = "force"
	ActionCreate      Action = "create"
	ActionCreateEmpty Action = "create_empty"
	ActionNoop        Action = "noop"
)

// Service makes a tool available inside a named environment.
type Service struct {
	prov Provisioner
}

// New creates an environment gate.
func New(prov Provisioner) *Service {
	return &Service{prov: prov}
}

// EnsureTool makes toolName runnable in envName.
//
// With force the environment is recreated with the pinned package. A missing
// environment is created with the package when the tool is not on PATH, and
// empty when it is. An existing environment is left alone.
func (s *Service) EnsureTool(ctx context.Context, toolName, envName string, verbose, force bool) error {
	_, err := s.Ensure(ctx, toolName, envName, verbose, force)
	return err
}

// Ensure is EnsureTool that also reports the action taken.
func (s *Service) Ensure(ctx context.Context, toolName, envName string, verbose, force bool) (Action, error) {
	log := logger.FromContext(ctx).With(zap.String("tool", toolName), zap.String("env", envName))

	pkg, err := tool.Lookup(toolName)
	if err != nil {
		metrics.ProvisionTotal.WithLabelValues(toolName, "error").Inc()
		return "", err
	}

	action, err := s.decide(ctx, toolName, envName, force)
	if err != nil {
		metrics.ProvisionTotal.WithLabelValues(toolName, "error").Inc()
		return "", provisionError(toolName, "inspect", err)
	}

	var pkgs []tool.Package
	switch action {
	case ActionNoop:
		log.Debug("environment exists")
		metrics.ProvisionTotal.WithLabelValues(toolName, string(action)).Inc()
		return action, nil
	case ActionForce, ActionCreate:
		pkgs = []tool.Package{pkg}
	}

	log.Info("provisioning environment",
		zap.String("action", string(action)),
		zap.String("package", pkg.Spec()),
	)
	if err := s.prov.Create(ctx, envName, pkgs, verbose, action == ActionForce); err != nil {
		metrics.ProvisionTotal.WithLabelValues(toolName, "error").Inc()
		return "", provisionError(toolName, string(action), err)
	}
	metrics.ProvisionTotal.WithLabelValues(toolName, string(action)).Inc()
	return action, nil
}

func (s *Service) decide(ctx context.Context, toolName, envName string, force bool) (Action, error) {
	if force {
		return ActionForce, nil
	}
	exists, err := s.prov.EnvExists(ctx, envName)
	if err != nil {
		return "", err
	}
	if exists {
		return ActionNoop, nil
	}
	if s.prov.Which(toolName) {
		return ActionCreateEmpty, nil
	}
	return ActionCreate, nil
}

func provisionError(toolName, op string, err error) error {
	return domain.NewToolError(toolName, op, fmt.Errorf("%w: %w", domain.ErrProvisionFailed, err))
}
