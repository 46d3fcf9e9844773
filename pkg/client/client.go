// Package client provides a gRPC client for the slide explainer service,
// including a poller that waits for a job to reach a terminal status.
package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dshalev/slide-explainer/constants"
	v1 "github.com/dshalev/slide-explainer/gen/proto/explainer/v1"
)

const (
	DefaultTarget       = "localhost:8080"
	DefaultPollInterval = 5 * time.Second
)

// Config holds client connection settings.
type Config struct {
	// Target is the gRPC server address.
	Target string
	// PollInterval is the delay between status checks in WaitForCompletion.
	PollInterval time.Duration
	// DialOptions override the default insecure transport.
	DialOptions []grpc.DialOption
}

// Client wraps the generated gRPC client.
type Client struct {
	conn         *grpc.ClientConn
	svc          v1.ExplainerServiceClient
	pollInterval time.Duration
}

func New(cfg Config) (*Client, error) {
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if len(cfg.DialOptions) == 0 {
		cfg.DialOptions = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(cfg.Target, cfg.DialOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Target, err)
	}

	return &Client{
		conn:         conn,
		svc:          v1.NewExplainerServiceClient(conn),
		pollInterval: cfg.PollInterval,
	}, nil
}

// NewWithService wraps an existing generated client, bypassing dialing.
func NewWithService(svc v1.ExplainerServiceClient, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Client{svc: svc, pollInterval: pollInterval}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// UploadParams describes a presentation to submit.
type UploadParams struct {
	Filename string
	Content  []byte
	Style    string
	Language string
	Email    string
}

// Upload submits a presentation and returns the accepted job.
func (c *Client) Upload(ctx context.Context, params UploadParams) (*v1.Job, error) {
	resp, err := c.svc.Upload(ctx, &v1.UploadRequest{
		Filename:     params.Filename,
		Content:      params.Content,
		SummaryStyle: params.Style,
		Language:     params.Language,
		Email:        params.Email,
	})
	if err != nil {
		return nil, err
	}
	return resp.GetJob(), nil
}

// UploadFile reads a presentation from disk and submits it under its base name.
func (c *Client) UploadFile(ctx context.Context, path, style, language, email string) (*v1.Job, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return c.Upload(ctx, UploadParams{
		Filename: filepath.Base(path),
		Content:  content,
		Style:    style,
		Language: language,
		Email:    email,
	})
}

// Status returns the current snapshot of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*v1.Job, error) {
	resp, err := c.svc.GetStatus(ctx, &v1.GetStatusRequest{JobId: jobID})
	if err != nil {
		return nil, err
	}
	return resp.GetJob(), nil
}

// LatestStatus returns the most recent job for an owner and filename.
func (c *Client) LatestStatus(ctx context.Context, email, filename string) (*v1.Job, error) {
	resp, err := c.svc.GetLatestStatus(ctx, &v1.GetLatestStatusRequest{Email: email, Filename: filename})
	if err != nil {
		return nil, err
	}
	return resp.GetJob(), nil
}

// History returns all jobs for an owner, newest first, with the total count.
func (c *Client) History(ctx context.Context, email string) ([]*v1.Job, int, error) {
	resp, err := c.svc.GetHistory(ctx, &v1.GetHistoryRequest{Email: email})
	if err != nil {
		return nil, 0, err
	}
	return resp.GetJobs(), int(resp.GetTotal()), nil
}

// ExportHistory returns an owner's job history as an XLSX workbook.
func (c *Client) ExportHistory(ctx context.Context, email string) ([]byte, error) {
	resp, err := c.svc.ExportHistory(ctx, &v1.ExportHistoryRequest{Email: email})
	if err != nil {
		return nil, err
	}
	return resp.GetXlsx(), nil
}

// WaitForCompletion polls a job until it reaches a terminal status. A failed
// job is returned as data, not as an error; callers check IsFailed.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string) (*v1.Job, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if IsDone(job) {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsPending reports whether the job is still waiting on a worker outcome.
func IsPending(job *v1.Job) bool {
	return constants.JobStatus(job.GetStatus()).IsPending()
}

// IsDone reports whether the job has reached a terminal status.
func IsDone(job *v1.Job) bool {
	return constants.JobStatus(job.GetStatus()).IsTerminal()
}

// IsFailed reports whether the job finished unsuccessfully.
func IsFailed(job *v1.Job) bool {
	return constants.JobStatus(job.GetStatus()) == constants.JobStatusFailed
}
