package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/filestore"
	"github.com/dshalev/slide-explainer/internal/repository"
)

// memJobs is an in-memory JobRepository for tests.
type memJobs struct {
	rows  map[uuid.UUID]*entity.Job
	clock time.Time
}

func newMemJobs() *memJobs {
	return &memJobs{rows: map[uuid.UUID]*entity.Job{}, clock: time.Now()}
}

func (m *memJobs) Create(_ context.Context, params repository.CreateJobParams) (*entity.Job, error) {
	m.clock = m.clock.Add(time.Second)
	j := &entity.Job{
		ID:           params.ID,
		UserID:       params.UserID,
		Filename:     params.Filename,
		SourcePath:   params.SourcePath,
		SummaryStyle: params.Style,
		Language:     params.Language,
		Status:       constants.JobStatusUploaded,
		CreatedAt:    m.clock,
	}
	m.rows[j.ID] = j
	return j, nil
}

func (m *memJobs) GetByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	j, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return j, nil
}

func (m *memJobs) ListUploaded(_ context.Context, limit int) ([]*entity.Job, error) {
	var out []*entity.Job
	for _, j := range m.rows {
		if j.Status == constants.JobStatusUploaded {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobs) TryClaim(_ context.Context, id uuid.UUID) (bool, error) {
	j, ok := m.rows[id]
	if !ok || j.Status != constants.JobStatusUploaded {
		return false, nil
	}
	now := time.Now()
	j.Status = constants.JobStatusProcessing
	j.ClaimedAt = &now
	return true, nil
}

func (m *memJobs) MarkCompleted(_ context.Context, id uuid.UUID, summaries []entity.SlideSummary) error {
	j, ok := m.rows[id]
	if !ok || j.Status != constants.JobStatusProcessing {
		return fmt.Errorf("job %s is not processing: %w", id, common.ErrConflict)
	}
	now := time.Now()
	j.Status = constants.JobStatusCompleted
	j.Summaries = summaries
	j.FinishedAt = &now
	return nil
}

func (m *memJobs) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	j, ok := m.rows[id]
	if !ok || j.Status.IsTerminal() {
		return fmt.Errorf("job %s is already terminal: %w", id, common.ErrConflict)
	}
	now := time.Now()
	j.Status = constants.JobStatusFailed
	j.ErrorMessage = &message
	j.FinishedAt = &now
	return nil
}

func (m *memJobs) LatestByUserAndFilename(_ context.Context, userID uuid.UUID, filename string) (*entity.Job, error) {
	var latest *entity.Job
	for _, j := range m.rows {
		if j.UserID == nil || *j.UserID != userID || j.Filename != filename {
			continue
		}
		if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no upload named %q: %w", filename, common.ErrNotFound)
	}
	return latest, nil
}

func (m *memJobs) HistoryByUser(_ context.Context, userID uuid.UUID) ([]*entity.Job, error) {
	var out []*entity.Job
	for _, j := range m.rows {
		if j.UserID != nil && *j.UserID == userID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (m *memJobs) RequeueStale(_ context.Context, claimedBefore time.Time) (int, error) {
	n := 0
	for _, j := range m.rows {
		if j.Status == constants.JobStatusProcessing && j.ClaimedAt != nil && j.ClaimedAt.Before(claimedBefore) {
			j.Status = constants.JobStatusUploaded
			j.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

// memUsers is an in-memory UserRepository for tests.
type memUsers struct {
	byEmail map[string]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*entity.User{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := m.byEmail[common.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, common.ErrNotFound)
	}
	return u, nil
}

func (m *memUsers) GetOrCreateByEmail(_ context.Context, email string) (*entity.User, error) {
	normalized := common.NormalizeEmail(email)
	if u, ok := m.byEmail[normalized]; ok {
		return u, nil
	}
	u := &entity.User{ID: uuid.New(), Email: normalized, CreatedAt: time.Now()}
	m.byEmail[normalized] = u
	return u, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// deckBytes builds a minimal archive that passes the presentation sniff.
func deckBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml":  `<?xml version="1.0"?><Types/>`,
		"ppt/presentation.xml": `<?xml version="1.0"?><p:presentation/>`,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) (*Service, *memJobs, *memUsers) {
	t.Helper()
	store, err := filestore.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("filestore.New returned error: %v", err)
	}
	jobs := newMemJobs()
	users := newMemUsers()
	return NewService(jobs, users, store, testLogger()), jobs, users
}

func TestCreateJobAcceptsValidUpload(t *testing.T) {
	svc, jobs, _ := newTestService(t)
	content := deckBytes(t)

	job, err := svc.CreateJob(context.Background(), UploadRequest{
		Filename: "deck.pptx",
		Content:  content,
	})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if job.Status != constants.JobStatusUploaded {
		t.Fatalf("status = %s", job.Status)
	}
	if job.SummaryStyle != constants.StyleComprehensive || job.Language != constants.LanguageEnglish {
		t.Fatalf("defaults not applied: %+v", job)
	}
	if job.UserID != nil {
		t.Fatalf("anonymous upload has owner %s", job.UserID)
	}

	stored, err := os.ReadFile(job.SourcePath)
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("stored bytes differ from upload")
	}
	if _, ok := jobs.rows[job.ID]; !ok {
		t.Fatal("job row not recorded")
	}
}

func TestCreateJobNormalizesInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, err := svc.CreateJob(context.Background(), UploadRequest{
		Filename: "  quarterly review.pptx  ",
		Content:  deckBytes(t),
		Style:    " Exec ",
		Language: "HE",
	})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if job.Filename != "quarterly review.pptx" {
		t.Fatalf("filename = %q", job.Filename)
	}
	if job.SummaryStyle != constants.StyleExecutive {
		t.Fatalf("style = %s", job.SummaryStyle)
	}
	if job.Language != constants.LanguageHebrew {
		t.Fatalf("language = %s", job.Language)
	}
}

func TestCreateJobRejectsInvalidUploads(t *testing.T) {
	svc, jobs, _ := newTestService(t)
	deck := deckBytes(t)

	tests := []struct {
		name string
		req  UploadRequest
	}{
		{"missing filename", UploadRequest{Content: deck}},
		{"wrong extension", UploadRequest{Filename: "notes.pdf", Content: deck}},
		{"empty file", UploadRequest{Filename: "deck.pptx"}},
		{"oversized file", UploadRequest{Filename: "deck.pptx", Content: make([]byte, constants.MaxUploadBytes+1)}},
		{"unknown style", UploadRequest{Filename: "deck.pptx", Content: deck, Style: "poetic"}},
		{"unknown language", UploadRequest{Filename: "deck.pptx", Content: deck, Language: "fr"}},
		{"not a presentation", UploadRequest{Filename: "deck.pptx", Content: []byte("plain text")}},
		{"bad email", UploadRequest{Filename: "deck.pptx", Content: deck, Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateJob(context.Background(), tt.req); !errors.Is(err, common.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	// Rejected uploads never reach the queue.
	if len(jobs.rows) != 0 {
		t.Fatalf("rejected uploads created %d jobs", len(jobs.rows))
	}
}

func TestCreateJobRecordsOwner(t *testing.T) {
	svc, _, users := newTestService(t)

	first, err := svc.CreateJob(context.Background(), UploadRequest{
		Filename: "deck.pptx",
		Content:  deckBytes(t),
		Email:    "Dana@Example.com",
	})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if first.UserID == nil {
		t.Fatal("owner not recorded")
	}

	second, err := svc.CreateJob(context.Background(), UploadRequest{
		Filename: "other.pptx",
		Content:  deckBytes(t),
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("second CreateJob returned error: %v", err)
	}
	if *second.UserID != *first.UserID {
		t.Fatalf("same email produced two owners: %s vs %s", second.UserID, first.UserID)
	}
	if len(users.byEmail) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users.byEmail))
	}
}

func TestCreateJobFailsJobWhenStorageFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := filestore.New(dir, testLogger())
	if err != nil {
		t.Fatalf("filestore.New returned error: %v", err)
	}
	jobs := newMemJobs()
	svc := NewService(jobs, newMemUsers(), store, testLogger())

	// Make the write fail after the row exists.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove uploads dir: %v", err)
	}

	_, err = svc.CreateJob(context.Background(), UploadRequest{
		Filename: "deck.pptx",
		Content:  deckBytes(t),
	})
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}

	if len(jobs.rows) != 1 {
		t.Fatalf("expected 1 job row, got %d", len(jobs.rows))
	}
	for _, j := range jobs.rows {
		if j.Status != constants.JobStatusFailed {
			t.Fatalf("job status = %s, want failed", j.Status)
		}
		if j.ErrorMessage == nil || *j.ErrorMessage != "failed to store uploaded file" {
			t.Fatalf("error message = %v", j.ErrorMessage)
		}
	}
}
