package client

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"

	v1 "github.com/dshalev/slide-explainer/gen/proto/explainer/v1"
)

// fakeExplainer scripts the generated client interface.
type fakeExplainer struct {
	uploadReq   *v1.UploadRequest
	uploadResp  *v1.UploadResponse
	uploadErr   error
	statusCalls int
	statusFn    func(call int, jobID string) (*v1.GetStatusResponse, error)
	latestResp  *v1.GetStatusResponse
	historyResp *v1.GetHistoryResponse
	exportResp  *v1.ExportHistoryResponse
}

func (f *fakeExplainer) Upload(_ context.Context, in *v1.UploadRequest, _ ...grpc.CallOption) (*v1.UploadResponse, error) {
	f.uploadReq = in
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResp, nil
}

func (f *fakeExplainer) GetStatus(_ context.Context, in *v1.GetStatusRequest, _ ...grpc.CallOption) (*v1.GetStatusResponse, error) {
	f.statusCalls++
	return f.statusFn(f.statusCalls, in.GetJobId())
}

func (f *fakeExplainer) GetLatestStatus(_ context.Context, _ *v1.GetLatestStatusRequest, _ ...grpc.CallOption) (*v1.GetStatusResponse, error) {
	return f.latestResp, nil
}

func (f *fakeExplainer) GetHistory(_ context.Context, _ *v1.GetHistoryRequest, _ ...grpc.CallOption) (*v1.GetHistoryResponse, error) {
	return f.historyResp, nil
}

func (f *fakeExplainer) ExportHistory(_ context.Context, _ *v1.ExportHistoryRequest, _ ...grpc.CallOption) (*v1.ExportHistoryResponse, error) {
	return f.exportResp, nil
}

func TestUploadMapsParams(t *testing.T) {
	fake := &fakeExplainer{
		uploadResp: &v1.UploadResponse{Job: &v1.Job{Id: "job-1", Status: "uploaded"}},
	}
	c := NewWithService(fake, time.Millisecond)

	job, err := c.Upload(context.Background(), UploadParams{
		Filename: "deck.pptx",
		Content:  []byte("bytes"),
		Style:    "executive",
		Language: "he",
		Email:    "dana@example.com",
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if job.GetId() != "job-1" {
		t.Fatalf("job id = %q", job.GetId())
	}

	req := fake.uploadReq
	if req.GetFilename() != "deck.pptx" || !bytes.Equal(req.GetContent(), []byte("bytes")) {
		t.Fatalf("unexpected request: %v", req)
	}
	if req.GetSummaryStyle() != "executive" || req.GetLanguage() != "he" || req.GetEmail() != "dana@example.com" {
		t.Fatalf("options not mapped: %v", req)
	}
}

func TestUploadPropagatesErrors(t *testing.T) {
	want := errors.New("unavailable")
	c := NewWithService(&fakeExplainer{uploadErr: want}, time.Millisecond)

	if _, err := c.Upload(context.Background(), UploadParams{Filename: "deck.pptx"}); !errors.Is(err, want) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

func TestUploadFileUsesBaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quarterly.pptx")
	if err := os.WriteFile(path, []byte("deck bytes"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	fake := &fakeExplainer{uploadResp: &v1.UploadResponse{Job: &v1.Job{Id: "job-1"}}}
	c := NewWithService(fake, time.Millisecond)

	if _, err := c.UploadFile(context.Background(), path, "beginner", "es", ""); err != nil {
		t.Fatalf("UploadFile returned error: %v", err)
	}
	if fake.uploadReq.GetFilename() != "quarterly.pptx" {
		t.Fatalf("filename = %q", fake.uploadReq.GetFilename())
	}
	if !bytes.Equal(fake.uploadReq.GetContent(), []byte("deck bytes")) {
		t.Fatal("content not read from disk")
	}
	if fake.uploadReq.GetSummaryStyle() != "beginner" || fake.uploadReq.GetLanguage() != "es" {
		t.Fatalf("options not mapped: %v", fake.uploadReq)
	}

	if _, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.pptx"), "", "", ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWaitForCompletionPollsUntilTerminal(t *testing.T) {
	fake := &fakeExplainer{
		statusFn: func(call int, jobID string) (*v1.GetStatusResponse, error) {
			status := "processing"
			if call >= 3 {
				status = "completed"
			}
			return &v1.GetStatusResponse{Job: &v1.Job{Id: jobID, Status: status}}, nil
		},
	}
	c := NewWithService(fake, 10*time.Millisecond)

	job, err := c.WaitForCompletion(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("WaitForCompletion returned error: %v", err)
	}
	if job.GetStatus() != "completed" {
		t.Fatalf("status = %q", job.GetStatus())
	}
	if fake.statusCalls != 3 {
		t.Fatalf("polled %d times, want 3", fake.statusCalls)
	}
	if IsFailed(job) {
		t.Fatal("completed job reported as failed")
	}
}

func TestWaitForCompletionReturnsFailedJobAsData(t *testing.T) {
	fake := &fakeExplainer{
		statusFn: func(int, string) (*v1.GetStatusResponse, error) {
			return &v1.GetStatusResponse{Job: &v1.Job{Id: "job-1", Status: "failed", ErrorMessage: "summarization unavailable"}}, nil
		},
	}
	c := NewWithService(fake, time.Millisecond)

	job, err := c.WaitForCompletion(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("WaitForCompletion returned error: %v", err)
	}
	if !IsFailed(job) {
		t.Fatal("failed job not reported as failed")
	}
	if job.GetErrorMessage() != "summarization unavailable" {
		t.Fatalf("error message = %q", job.GetErrorMessage())
	}
}

func TestWaitForCompletionHonorsContext(t *testing.T) {
	fake := &fakeExplainer{
		statusFn: func(int, string) (*v1.GetStatusResponse, error) {
			return &v1.GetStatusResponse{Job: &v1.Job{Id: "job-1", Status: "processing"}}, nil
		},
	}
	c := NewWithService(fake, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.WaitForCompletion(ctx, "job-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	fake := &fakeExplainer{
		historyResp: &v1.GetHistoryResponse{
			Total: 2,
			Jobs: []*v1.Job{
				{Id: "job-2", Status: "completed"},
				{Id: "job-1", Status: "failed"},
			},
		},
	}
	c := NewWithService(fake, time.Millisecond)

	jobs, total, err := c.History(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(jobs))
	}
	if jobs[0].GetId() != "job-2" {
		t.Fatalf("first job = %q", jobs[0].GetId())
	}
}

func TestLatestStatusAndExport(t *testing.T) {
	fake := &fakeExplainer{
		latestResp: &v1.GetStatusResponse{Job: &v1.Job{Id: "job-9"}},
		exportResp: &v1.ExportHistoryResponse{Xlsx: []byte("workbook")},
	}
	c := NewWithService(fake, time.Millisecond)
	ctx := context.Background()

	job, err := c.LatestStatus(ctx, "dana@example.com", "deck.pptx")
	if err != nil {
		t.Fatalf("LatestStatus returned error: %v", err)
	}
	if job.GetId() != "job-9" {
		t.Fatalf("job id = %q", job.GetId())
	}

	out, err := c.ExportHistory(ctx, "dana@example.com")
	if err != nil {
		t.Fatalf("ExportHistory returned error: %v", err)
	}
	if !bytes.Equal(out, []byte("workbook")) {
		t.Fatalf("export bytes = %q", out)
	}
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		status  string
		pending bool
		done    bool
		failed  bool
	}{
		{"uploaded", true, false, false},
		{"processing", true, false, false},
		{"completed", false, true, false},
		{"failed", false, true, true},
	}
	for _, tt := range tests {
		job := &v1.Job{Status: tt.status}
		if got := IsPending(job); got != tt.pending {
			t.Fatalf("IsPending(%s) = %v", tt.status, got)
		}
		if got := IsDone(job); got != tt.done {
			t.Fatalf("IsDone(%s) = %v", tt.status, got)
		}
		if got := IsFailed(job); got != tt.failed {
			t.Fatalf("IsFailed(%s) = %v", tt.status, got)
		}
	}
}
