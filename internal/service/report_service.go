package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/export"
)

// ReportFormat selects the rendering backend for exports.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report is a rendered attendance sheet ready to stream to the client.
type Report struct {
	FileName    string
	ContentType string
	Content     []byte
}

type reportAttendanceReader interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
}

// ReportService renders an event's attendance sheet for download. Access
// follows the same ownership rule as other event reads against mutable data.
type ReportService struct {
	events     eventReader
	attendance reportAttendanceReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(events eventReader, attendance reportAttendanceReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		events:     events,
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// EventAttendanceSheet renders the full attendance sheet for one event.
func (s *ReportService) EventAttendanceSheet(ctx context.Context, claims *models.JWTClaims, eventID string, format ReportFormat) (*Report, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if err := authorizeEventWrite(claims, event); err != nil {
		return nil, err
	}

	rows, _, err := s.attendance.List(ctx, models.AttendanceFilter{EventID: eventID, Page: 1, PageSize: 10000})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	sheet := export.Sheet{
		Headers: []string{"Student", "Status", "Marks", "Max Marks", "Percentage", "Remarks", "Marked At"},
		Rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		sheet.Rows[i] = []string{
			row.StudentName,
			string(row.Status),
			formatFloat(row.MarksObtained),
			formatFloat(row.MaxMarks),
			formatFloat(row.MarkPercentage()),
			derefString(row.Remarks),
			row.MarkedAt.Format(time.RFC3339),
		}
	}

	base := fmt.Sprintf("attendance-%s-%s", event.ID, time.Now().UTC().Format("20060102"))
	switch format {
	case ReportFormatPDF:
		content, err := s.pdf.Render(sheet, fmt.Sprintf("Attendance: %s", event.Title))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Report{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	case ReportFormatCSV:
		content, err := s.csv.Render(sheet)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &Report{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format, expected csv or pdf")
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
