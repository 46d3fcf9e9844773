package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/gen/ent"
	"github.com/dshalev/slide-explainer/gen/ent/job"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
)

// CreateJobParams carries everything intake knows about a new job. The ID
// is chosen by the caller so the upload path can be derived before the row
// exists.
type CreateJobParams struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	Filename   string
	SourcePath string
	Style      constants.SummaryStyle
	Language   constants.Language
}

type JobRepository interface {
	Create(ctx context.Context, params CreateJobParams) (*entity.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	ListUploaded(ctx context.Context, limit int) ([]*entity.Job, error)
	TryClaim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, summaries []entity.SlideSummary) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	LatestByUserAndFilename(ctx context.Context, userID uuid.UUID, filename string) (*entity.Job, error)
	HistoryByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Job, error)
	RequeueStale(ctx context.Context, claimedBefore time.Time) (int, error)
}

type jobRepository struct {
	ent    *ent.Client
	logger *slog.Logger
}

func NewJobRepository(entc *ent.Client, logger *slog.Logger) JobRepository {
	return &jobRepository{
		ent:    entc,
		logger: logger,
	}
}

func (r *jobRepository) Create(ctx context.Context, params CreateJobParams) (*entity.Job, error) {
	create := r.ent.Job.Create().
		SetID(params.ID).
		SetFilename(params.Filename).
		SetSourcePath(params.SourcePath).
		SetSummaryStyle(string(params.Style)).
		SetLanguage(string(params.Language)).
		SetStatus(string(constants.JobStatusUploaded))
	if params.UserID != nil {
		create = create.SetUserID(*params.UserID)
	}

	row, err := create.Save(ctx)
	if err != nil {
		r.logger.Error("failed to create job", "job_id", params.ID, "filename", params.Filename, "error", err)
		return nil, common.WrapError(err, "create job")
	}
	r.logger.Info("job created", "job_id", row.ID, "filename", row.Filename, "status", row.Status)
	return toJob(row)
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	row, err := r.ent.Job.Query().Where(job.ID(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
		}
		r.logger.Error("failed to get job", "job_id", id, "error", err)
		return nil, common.WrapError(err, "get job")
	}
	return toJob(row)
}

// ListUploaded returns claimable jobs in arrival order. limit <= 0 means
// no limit.
func (r *jobRepository) ListUploaded(ctx context.Context, limit int) ([]*entity.Job, error) {
	q := r.ent.Job.Query().
		Where(job.StatusEQ(string(constants.JobStatusUploaded))).
		Order(job.ByCreatedAt())
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows, err := q.All(ctx)
	if err != nil {
		r.logger.Error("failed to list uploaded jobs", "error", err)
		return nil, common.WrapError(err, "list uploaded jobs")
	}
	return toJobs(rows)
}

// TryClaim flips uploaded -> processing in a single conditional update.
// It returns false when another worker won the row first.
func (r *jobRepository) TryClaim(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.ent.Job.Update().
		Where(
			job.ID(id),
			job.StatusEQ(string(constants.JobStatusUploaded)),
		).
		SetStatus(string(constants.JobStatusProcessing)).
		SetClaimedAt(time.Now()).
		Save(ctx)
	if err != nil {
		r.logger.Error("failed to claim job", "job_id", id, "error", err)
		return false, common.WrapError(err, "claim job")
	}
	return n == 1, nil
}

func (r *jobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, summaries []entity.SlideSummary) error {
	result, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode job %s result: %w", id, err)
	}

	n, err := r.ent.Job.Update().
		Where(
			job.ID(id),
			job.StatusEQ(string(constants.JobStatusProcessing)),
		).
		SetStatus(string(constants.JobStatusCompleted)).
		SetResult(result).
		SetFinishedAt(time.Now()).
		Save(ctx)
	if err != nil {
		r.logger.Error("failed to mark job completed", "job_id", id, "error", err)
		return common.WrapError(err, "mark job completed")
	}
	if n == 0 {
		return fmt.Errorf("job %s is not processing: %w", id, common.ErrConflict)
	}
	r.logger.Info("job completed", "job_id", id, "slides", len(summaries))
	return nil
}

// MarkFailed moves any non-terminal job to failed. Intake uses it for
// uploads whose file never reached disk, the worker for processing errors.
func (r *jobRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	n, err := r.ent.Job.Update().
		Where(
			job.ID(id),
			job.StatusIn(
				string(constants.JobStatusUploaded),
				string(constants.JobStatusProcessing),
			),
		).
		SetStatus(string(constants.JobStatusFailed)).
		SetErrorMessage(message).
		SetFinishedAt(time.Now()).
		Save(ctx)
	if err != nil {
		r.logger.Error("failed to mark job failed", "job_id", id, "error", err)
		return common.WrapError(err, "mark job failed")
	}
	if n == 0 {
		return fmt.Errorf("job %s is already terminal: %w", id, common.ErrConflict)
	}
	r.logger.Warn("job failed", "job_id", id, "error", message)
	return nil
}

func (r *jobRepository) LatestByUserAndFilename(ctx context.Context, userID uuid.UUID, filename string) (*entity.Job, error) {
	row, err := r.ent.Job.Query().
		Where(
			job.UserID(userID),
			job.FilenameEQ(filename),
		).
		Order(job.ByCreatedAt(entsql.OrderDesc())).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("no upload named %q: %w", filename, common.ErrNotFound)
		}
		r.logger.Error("failed to get latest job", "user_id", userID, "filename", filename, "error", err)
		return nil, common.WrapError(err, "get latest job")
	}
	return toJob(row)
}

func (r *jobRepository) HistoryByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Job, error) {
	rows, err := r.ent.Job.Query().
		Where(job.UserID(userID)).
		Order(job.ByCreatedAt(entsql.OrderDesc())).
		All(ctx)
	if err != nil {
		r.logger.Error("failed to list job history", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list job history")
	}
	return toJobs(rows)
}

// RequeueStale resets processing jobs claimed before the cutoff back to
// uploaded so a live worker can pick them up again.
func (r *jobRepository) RequeueStale(ctx context.Context, claimedBefore time.Time) (int, error) {
	n, err := r.ent.Job.Update().
		Where(
			job.StatusEQ(string(constants.JobStatusProcessing)),
			job.ClaimedAtLT(claimedBefore),
		).
		SetStatus(string(constants.JobStatusUploaded)).
		ClearClaimedAt().
		Save(ctx)
	if err != nil {
		r.logger.Error("failed to requeue stale jobs", "error", err)
		return 0, common.WrapError(err, "requeue stale jobs")
	}
	if n > 0 {
		r.logger.Warn("requeued stale jobs", "count", n, "claimed_before", claimedBefore)
	}
	return n, nil
}

func toJob(row *ent.Job) (*entity.Job, error) {
	j := &entity.Job{
		ID:           row.ID,
		UserID:       row.UserID,
		Filename:     row.Filename,
		SourcePath:   row.SourcePath,
		SummaryStyle: constants.SummaryStyle(row.SummaryStyle),
		Language:     constants.Language(row.Language),
		Status:       constants.JobStatus(row.Status),
		CreatedAt:    row.CreatedAt,
		ClaimedAt:    row.ClaimedAt,
		FinishedAt:   row.FinishedAt,
		ErrorMessage: row.ErrorMessage,
	}
	if len(row.Result) > 0 {
		if err := json.Unmarshal(row.Result, &j.Summaries); err != nil {
			return nil, fmt.Errorf("decode job %s result: %w", row.ID, err)
		}
	}
	return j, nil
}

func toJobs(rows []*ent.Job) ([]*entity.Job, error) {
	out := make([]*entity.Job, 0, len(rows))
	for _, row := range rows {
		j, err := toJob(row)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
