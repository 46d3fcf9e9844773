package intake

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
)

// FSIngestor submits presentations from the local filesystem through the
// intake service, so directory runs obey the same validation as uploads.
type FSIngestor struct {
	svc    *Service
	logger *slog.Logger
}

func NewFSIngestor(svc *Service, logger *slog.Logger) *FSIngestor {
	return &FSIngestor{
		svc:    svc,
		logger: logger,
	}
}

// IngestionResult describes one submitted presentation.
type IngestionResult struct {
	SourcePath   string
	JobID        string
	Deduplicated bool
	Err          string
}

// DirStats aggregates a directory walk.
type DirStats struct {
	Scanned      int
	Matched      int
	Succeeded    int
	Failed       int
	Deduplicated int
}

// IngestPath submits a single presentation. When an owner email is given and
// that owner already has a non-failed job for the same filename, the existing
// job is returned instead of a new submission.
func (i *FSIngestor) IngestPath(ctx context.Context, path, style, language, email string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !isAllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension")
	}

	filename := filepath.Base(abs)
	if email != "" {
		prev, err := i.lastJobFor(ctx, email, filename)
		if err != nil {
			return out, err
		}
		if prev != "" {
			i.logger.Info("skipping already submitted presentation", "path", abs, "job_id", prev)
			return IngestionResult{SourcePath: abs, JobID: prev, Deduplicated: true}, nil
		}
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return out, err
	}

	job, err := i.svc.CreateJob(ctx, UploadRequest{
		Filename: filename,
		Content:  content,
		Style:    style,
		Language: language,
		Email:    email,
	})
	if err != nil {
		return out, err
	}

	return IngestionResult{SourcePath: abs, JobID: job.ID.String()}, nil
}

// lastJobFor returns the ID of the owner's most recent non-failed job for
// filename, or "" when there is none. Failed jobs do not count so a rerun
// retries them.
func (i *FSIngestor) lastJobFor(ctx context.Context, email, filename string) (string, error) {
	owner, err := i.svc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	prev, err := i.svc.jobs.LatestByUserAndFilename(ctx, owner.ID, filename)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if prev.Status == constants.JobStatusFailed {
		return "", nil
	}
	return prev.ID.String(), nil
}

// IngestDirectory walks root, skips hidden entries if requested, and submits
// every presentation it finds. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root, style, language, email string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !isAllowedExt(ext) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path, style, language, email)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// isHidden reports whether a path names a dotfile or a PowerPoint lock file.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$")
}
