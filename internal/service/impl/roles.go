package impl

import (
	"context"
	"fmt"
	"log/slog"

	"userauth/internal/domain"
)

type roleEnsurer interface {
	Ensure(ctx context.Context, name string) (*domain.Role, bool, error)
}

// EnsureRoles creates each named role that does not exist yet. It is safe to
// run from several processes at once and on every start.
func EnsureRoles(ctx context.Context, roles roleEnsurer, logger *slog.Logger, names ...string) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range names {
		role, created, err := roles.Ensure(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure role %q: %w", name, err)
		}
		if created {
			logger.InfoContext(ctx, "role created", "role", role.Name, "role_id", role.ID)
		} else {
			logger.DebugContext(ctx, "role present", "role", role.Name)
		}
	}
	return nil
}
