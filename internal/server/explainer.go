package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	v1 "github.com/dshalev/slide-explainer/gen/proto/explainer/v1"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/export"
	"github.com/dshalev/slide-explainer/internal/intake"
	"github.com/dshalev/slide-explainer/internal/status"
)

// ExplainerService exposes intake, status, and export over gRPC.
type ExplainerService struct {
	v1.UnimplementedExplainerServiceServer
	intake *intake.Service
	status *status.Service
	export *export.Service
	logger *slog.Logger
}

func NewExplainerService(in *intake.Service, st *status.Service, ex *export.Service, logger *slog.Logger) *ExplainerService {
	return &ExplainerService{
		intake: in,
		status: st,
		export: ex,
		logger: logger,
	}
}

func (s *ExplainerService) Upload(ctx context.Context, req *v1.UploadRequest) (*v1.UploadResponse, error) {
	job, err := s.intake.CreateJob(ctx, intake.UploadRequest{
		Filename: req.GetFilename(),
		Content:  req.GetContent(),
		Style:    req.GetSummaryStyle(),
		Language: req.GetLanguage(),
		Email:    req.GetEmail(),
	})
	if err != nil {
		s.logger.Warn("upload failed", "filename", req.GetFilename(), "error", err)
		return nil, common.GRPCStatus(err)
	}
	return &v1.UploadResponse{Job: toProtoJob(job)}, nil
}

func (s *ExplainerService) GetStatus(ctx context.Context, req *v1.GetStatusRequest) (*v1.GetStatusResponse, error) {
	id, err := uuid.Parse(req.GetJobId())
	if err != nil {
		return nil, common.InvalidArgumentError("job_id must be a UUID")
	}

	job, err := s.status.Get(ctx, id)
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return &v1.GetStatusResponse{Job: toProtoJob(job)}, nil
}

func (s *ExplainerService) GetLatestStatus(ctx context.Context, req *v1.GetLatestStatusRequest) (*v1.GetStatusResponse, error) {
	job, err := s.status.LatestByOwnerAndFilename(ctx, req.GetEmail(), req.GetFilename())
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return &v1.GetStatusResponse{Job: toProtoJob(job)}, nil
}

func (s *ExplainerService) GetHistory(ctx context.Context, req *v1.GetHistoryRequest) (*v1.GetHistoryResponse, error) {
	jobs, total, err := s.status.History(ctx, req.GetEmail())
	if err != nil {
		return nil, common.GRPCStatus(err)
	}

	out := make([]*v1.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toProtoJob(j))
	}
	return &v1.GetHistoryResponse{Total: int32(total), Jobs: out}, nil
}

func (s *ExplainerService) ExportHistory(ctx context.Context, req *v1.ExportHistoryRequest) (*v1.ExportHistoryResponse, error) {
	xlsx, err := s.export.ExportHistoryXLSX(ctx, req.GetEmail())
	if err != nil {
		return nil, common.GRPCStatus(err)
	}
	return &v1.ExportHistoryResponse{Xlsx: xlsx}, nil
}

func toProtoJob(j *entity.Job) *v1.Job {
	out := &v1.Job{
		Id:           j.ID.String(),
		Filename:     j.Filename,
		Status:       string(j.Status),
		SummaryStyle: string(j.SummaryStyle),
		Language:     string(j.Language),
		CreatedAt:    j.CreatedAt.Format(time.RFC3339Nano),
	}
	if j.FinishedAt != nil {
		out.FinishedAt = j.FinishedAt.Format(time.RFC3339Nano)
	}
	if j.ErrorMessage != nil {
		out.ErrorMessage = *j.ErrorMessage
	}
	for _, sum := range j.Summaries {
		out.Summaries = append(out.Summaries, &v1.SlideSummary{
			SlideNumber: int32(sum.SlideNumber),
			Explanation: sum.Explanation,
		})
	}
	return out
}
