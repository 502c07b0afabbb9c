package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tms-admin/tms-api/internal/repository"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
	"github.com/tms-admin/tms-api/pkg/export"
)

// ExportFormat names a supported statement rendering.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered bytes plus response metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders allowance statements for download.
type ExportService struct {
	factory *repository.Factory
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(factory *repository.Factory, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		factory: factory,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// AllowanceStatement renders every live allowance of a participant, with a
// grand total, as CSV or PDF.
func (s *ExportService) AllowanceStatement(ctx context.Context, participantID int64, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	uow := s.factory.New()
	defer uow.Close()

	participant, err := uow.Participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	allowances, err := uow.Allowances.ByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowances")
	}

	trainingNames := make(map[int64]string)
	typeNames := make(map[int64]string)
	statusNames := make(map[int64]string)

	var total float64
	rows := make([]map[string]string, 0, len(allowances))
	for _, a := range allowances {
		total += a.Amount
		rows = append(rows, map[string]string{
			"Training": s.trainingName(ctx, uow, trainingNames, a.TrainingID),
			"Type":     s.lookupName(ctx, typeNames, a.AllowanceTypeID, func(id int64) (string, error) {
				rec, err := uow.AllowanceTypes.GetByID(ctx, id)
				if err != nil {
					return "", err
				}
				return rec.Name, nil
			}),
			"Status": s.lookupName(ctx, statusNames, a.AllowanceStatusID, func(id int64) (string, error) {
				rec, err := uow.AllowanceStatuses.GetByID(ctx, id)
				if err != nil {
					return "", err
				}
				return rec.Name, nil
			}),
			"Start":  formatDateCell(a.StartDate),
			"End":    formatDateCell(a.EndDate),
			"Amount": strconv.FormatFloat(a.Amount, 'f', 2, 64),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Training", "Type", "Status", "Start", "End", "Amount"},
		Rows:    rows,
		Footer: map[string]string{
			"Training": "TOTAL",
			"Amount":   strconv.FormatFloat(total, 'f', 2, 64),
		},
	}

	title := "Allowance Statement - " + participant.FullName()
	base := fmt.Sprintf("allowance-statement-%d", participantID)

	switch format {
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

func (s *ExportService) trainingName(ctx context.Context, uow *repository.UnitOfWork, cache map[int64]string, id int64) string {
	if name, ok := cache[id]; ok {
		return name
	}
	training, err := uow.Trainings.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to resolve training for statement", zap.Int64("training_id", id), zap.Error(err))
		cache[id] = ""
		return ""
	}
	cache[id] = training.ProgramName
	return training.ProgramName
}

func (s *ExportService) lookupName(_ context.Context, cache map[int64]string, id int64, load func(int64) (string, error)) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name, err := load(id)
	if err != nil {
		s.logger.Warn("failed to resolve lookup for statement", zap.Int64("id", id), zap.Error(err))
		name = ""
	}
	cache[id] = name
	return name
}

func formatDateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
