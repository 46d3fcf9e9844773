package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dshalev/slide-explainer/gen/ent"
	"github.com/dshalev/slide-explainer/gen/ent/user"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetOrCreateByEmail(ctx context.Context, email string) (*entity.User, error)
}

type userRepository struct {
	ent    *ent.Client
	logger *slog.Logger
}

func NewUserRepository(entc *ent.Client, logger *slog.Logger) UserRepository {
	return &userRepository{
		ent:    entc,
		logger: logger,
	}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	normalized := common.NormalizeEmail(email)
	row, err := r.ent.User.Query().Where(user.Email(normalized)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", normalized, common.ErrNotFound)
		}
		r.logger.Error("failed to get user", "email", normalized, "error", err)
		return nil, common.WrapError(err, "get user")
	}
	return toUser(row), nil
}

// GetOrCreateByEmail is idempotent on the normalized email. A lost race on
// the unique index resolves by re-reading the winner's row.
func (r *userRepository) GetOrCreateByEmail(ctx context.Context, email string) (*entity.User, error) {
	normalized := common.NormalizeEmail(email)

	row, err := r.ent.User.Query().Where(user.Email(normalized)).Only(ctx)
	if err == nil {
		return toUser(row), nil
	}
	if !ent.IsNotFound(err) {
		r.logger.Error("failed to get user", "email", normalized, "error", err)
		return nil, common.WrapError(err, "get user")
	}

	row, err = r.ent.User.Create().SetEmail(normalized).Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			row, err = r.ent.User.Query().Where(user.Email(normalized)).Only(ctx)
			if err != nil {
				return nil, common.WrapError(err, "get user after create race")
			}
			return toUser(row), nil
		}
		r.logger.Error("failed to create user", "email", normalized, "error", err)
		return nil, common.WrapError(err, "create user")
	}
	r.logger.Info("user created", "user_id", row.ID, "email", normalized)
	return toUser(row), nil
}

func toUser(row *ent.User) *entity.User {
	return &entity.User{
		ID:        row.ID,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
}
