package intake

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/filestore"
	"github.com/dshalev/slide-explainer/internal/pptx"
	"github.com/dshalev/slide-explainer/internal/repository"
)

// Service accepts presentation uploads and durably records them as jobs.
type Service struct {
	jobs   repository.JobRepository
	users  repository.UserRepository
	store  *filestore.Store
	logger *slog.Logger
}

// NewService creates a new intake service.
func NewService(jobs repository.JobRepository, users repository.UserRepository, store *filestore.Store, logger *slog.Logger) *Service {
	return &Service{
		jobs:   jobs,
		users:  users,
		store:  store,
		logger: logger,
	}
}

// UploadRequest represents one presentation upload.
type UploadRequest struct {
	Filename string
	Content  []byte
	Style    string // empty -> comprehensive
	Language string // empty -> en
	Email    string // optional owner
}

// CreateJob validates the upload, records the job row at uploaded, and
// stores the file. The job only becomes visible to workers once both the
// row and the bytes exist; a failed disk write fails the job immediately.
func (s *Service) CreateJob(ctx context.Context, req UploadRequest) (*entity.Job, error) {
	filename := strings.TrimSpace(req.Filename)
	email := strings.TrimSpace(req.Email)

	v := common.NewValidator()
	v.Field("filename", filename, common.Required)
	if email != "" {
		v.Field("email", email, common.Email)
	}
	if err := v.Error(); err != nil {
		s.logger.Error("upload rejected", "filename", filename, "error", err)
		return nil, err
	}

	if ext := constants.NormalizeExt(filepath.Ext(filename)); !isAllowedExt(ext) {
		s.logger.Error("upload rejected", "filename", filename, "ext", ext)
		return nil, fmt.Errorf("%w: only .pptx presentations are supported", common.ErrValidation)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", common.ErrValidation)
	}
	if len(req.Content) > constants.MaxUploadBytes {
		s.logger.Error("upload rejected", "filename", filename, "bytes", len(req.Content))
		return nil, fmt.Errorf("%w: file exceeds the %d MiB limit", common.ErrValidation, constants.MaxUploadBytes>>20)
	}

	style, ok := constants.NormalizeStyle(req.Style)
	if !ok {
		return nil, fmt.Errorf("%w: unknown summary style %q", common.ErrValidation, req.Style)
	}
	language, ok := constants.NormalizeLanguage(req.Language)
	if !ok {
		return nil, fmt.Errorf("%w: unknown language %q", common.ErrValidation, req.Language)
	}

	if err := pptx.Sniff(bytes.NewReader(req.Content), int64(len(req.Content))); err != nil {
		s.logger.Error("upload rejected", "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: file is not a PowerPoint presentation", common.ErrValidation)
	}

	var userID *uuid.UUID
	if email != "" {
		owner, err := s.users.GetOrCreateByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		userID = &owner.ID
	}

	id := uuid.New()
	s.logger.Info("starting upload", "job_id", id, "filename", filename, "style", style, "language", language, "bytes", len(req.Content))

	job, err := s.jobs.Create(ctx, repository.CreateJobParams{
		ID:         id,
		UserID:     userID,
		Filename:   filename,
		SourcePath: s.store.Path(id),
		Style:      style,
		Language:   language,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Save(id, req.Content); err != nil {
		// No uploaded row may point at a missing file.
		if markErr := s.jobs.MarkFailed(ctx, id, "failed to store uploaded file"); markErr != nil {
			s.logger.Error("failed to fail job after storage error", "job_id", id, "error", markErr)
		}
		return nil, err
	}

	s.logger.Info("upload accepted", "job_id", id, "filename", filename, "status", job.Status)
	return job, nil
}

func isAllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[ext]
	return ok
}
