package status

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/repository"
)

// Service answers read-only questions about jobs. Snapshots come from
// committed rows only, so repeated reads of a terminal job are identical.
type Service struct {
	jobs   repository.JobRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewService creates a new status service.
func NewService(jobs repository.JobRepository, users repository.UserRepository, logger *slog.Logger) *Service {
	return &Service{
		jobs:   jobs,
		users:  users,
		logger: logger,
	}
}

// Get returns the current snapshot of one job.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// LatestByOwnerAndFilename returns the newest job the owner uploaded under
// that filename. Unknown owner and unknown filename both come back NotFound.
func (s *Service) LatestByOwnerAndFilename(ctx context.Context, email, filename string) (*entity.Job, error) {
	v := common.NewValidator()
	v.Field("email", email, common.Required, common.Email)
	v.Field("filename", filename, common.Required)
	if err := v.Error(); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.jobs.LatestByUserAndFilename(ctx, owner.ID, strings.TrimSpace(filename))
}

// History returns every job of the owner, newest first, with the total.
func (s *Service) History(ctx context.Context, email string) ([]*entity.Job, int, error) {
	v := common.NewValidator()
	v.Field("email", email, common.Required, common.Email)
	if err := v.Error(); err != nil {
		return nil, 0, err
	}

	owner, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, 0, err
	}

	jobs, err := s.jobs.HistoryByUser(ctx, owner.ID)
	if err != nil {
		return nil, 0, err
	}
	s.logger.Debug("history fetched", "user_id", owner.ID, "total", len(jobs))
	return jobs, len(jobs), nil
}
