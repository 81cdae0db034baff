package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
	"github.com/enrollease/enrollease-api/pkg/export"
)

type rosterLister interface {
	ListActiveFor(ctx context.Context, subjectID string) ([]models.Student, error)
}

type subjectByCode interface {
	GetByCode(ctx context.Context, code string) (*models.Subject, error)
}

// ExportFile is a rendered roster ready to stream to the caller.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders subject rosters as CSV or PDF.
type ExportService struct {
	subjects    subjectByCode
	enrollments rosterLister
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(subjects subjectByCode, enrollments rosterLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		subjects:    subjects,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Roster renders the active class list of a subject in the given format.
func (s *ExportService) Roster(ctx context.Context, subjectCode, format string) (*ExportFile, error) {
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	subject, err := s.subjects.GetByCode(ctx, subjectCode)
	if err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListActiveFor(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	roster := export.Roster{
		Title:   fmt.Sprintf("%s - %s", subject.Code, subject.Name),
		Headers: []string{"Student Number", "Last Name", "First Name", "Email", "Section"},
	}
	for _, student := range students {
		roster.Rows = append(roster.Rows, []string{
			student.StudentNumber,
			student.LastName,
			student.FirstName,
			student.Email,
			student.Section,
		})
	}

	var content []byte
	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
		content, err = s.pdf.Render(roster)
	} else {
		content, err = s.csv.Render(roster)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s.%s", subject.Code, format),
		ContentType: contentType,
		Content:     content,
	}, nil
}
