package service

import (
	"alcyxob/fitlog/internal/report"
	"alcyxob/fitlog/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExportDisabled = errors.New("summary export is not configured")
	ErrExportFailed   = errors.New("failed to export summary")
)

// ExportResult points at an uploaded summary report.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	Owners      int       `json:"owners"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ReportService exports the summary as CSV to object storage.
type ReportService interface {
	ExportSummary(ctx context.Context) (*ExportResult, error)
}

type reportService struct {
	summary     SummaryService
	fileStorage storage.FileStorage // nil when export is disabled
	prefix      string
	urlExpiry   time.Duration
	now         func() time.Time
}

// NewReportService creates a ReportService. A nil fileStorage disables export.
func NewReportService(summary SummaryService, fileStorage storage.FileStorage, prefix string, urlExpiry time.Duration) ReportService {
	return &reportService{
		summary:     summary,
		fileStorage: fileStorage,
		prefix:      prefix,
		urlExpiry:   urlExpiry,
		now:         time.Now,
	}
}

func (s *reportService) ExportSummary(ctx context.Context) (*ExportResult, error) {
	if s.fileStorage == nil {
		return nil, ErrExportDisabled
	}

	rows, err := s.summary.Summary(ctx)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	var buf bytes.Buffer
	if err := report.WriteSummaryCSV(&buf, rows, generatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	objectKey := path.Join(s.prefix, generatedAt.Format("2006/01/02"),
		fmt.Sprintf("summary-%s-%s.csv", generatedAt.Format("150405"), uuid.NewString()))
	if err := s.fileStorage.PutObject(ctx, objectKey, "text/csv", &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	log.Printf("INFO: summary exported to %s (%d owners)", objectKey, len(rows))
	return &ExportResult{
		ObjectKey:   objectKey,
		DownloadURL: url,
		Owners:      len(rows),
		GeneratedAt: generatedAt,
	}, nil
}
