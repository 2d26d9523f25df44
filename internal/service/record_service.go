package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/classifier"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/phone"
	"github.com/popeskul/rentverify/internal/repository"
)

const (
	// ExportTimeLayout is the timestamp format used in CSV exports.
	ExportTimeLayout = "2006-01-02 15:04:05"
	exportFileLayout = "20060102_150405"
)

// ExportHeader is the first row of every CSV export.
var ExportHeader = []string{"Phone Number", "Reply", "Timestamp", "Type"}

// ExportFilename returns the attachment name for an export taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("payment_records_%s.csv", t.Format(exportFileLayout))
}

type recordService struct {
	repo       repository.Repository
	classifier *classifier.Classifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewRecordService(
	repo repository.Repository,
	cls *classifier.Classifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) RecordService {
	return &recordService{
		repo:       repo,
		classifier: cls,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ingest classifies, masks and stores one validated inbound reply. A landlord
// YES or NO also records the payment status in the same write.
func (s *recordService) Ingest(ctx context.Context, from, body string) (*models.RentRecord, error) {
	result := s.classifier.Classify(body)
	masked := phone.Mask(from)
	now := s.now()

	record := &models.RentRecord{
		PhoneNumber: masked,
		Reply:       body,
		ReceivedAt:  now,
		Category:    result.Category,
	}

	var payment *models.Payment
	if state, ok := result.PaymentState(); ok {
		payment = &models.Payment{
			PhoneNumber: masked,
			Status:      state,
			RecordedAt:  now,
		}
	}

	if err := s.repo.Record().CreateInbound(ctx, record, payment); err != nil {
		s.metrics.Inbound(string(result.Category), metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to store inbound reply: %w", err)
	}

	s.metrics.Inbound(string(result.Category), metrics.OutcomeAccepted)
	s.logger.Info("Message recorded",
		zap.Int64("record_id", record.ID),
		zap.String("phone", masked),
		zap.String("category", string(result.Category)),
		zap.String("status", string(result.Status)))

	return record, nil
}

// Dashboard summarizes the full record set and lists the records matching
// filter. The counts never depend on the filter.
func (s *recordService) Dashboard(ctx context.Context, filter models.RecordFilter) (*Dashboard, error) {
	all, err := s.repo.Record().List(ctx, models.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard records: %w", err)
	}

	listed := all
	if filter.Category != "" {
		listed = make([]*models.RentRecord, 0, len(all))
		for _, r := range all {
			if r.Category == filter.Category {
				listed = append(listed, r)
			}
		}
	}
	if filter.Limit > 0 && len(listed) > filter.Limit {
		listed = listed[:filter.Limit]
	}

	return &Dashboard{
		Summary: Summarize(all),
		Records: listed,
		Filter:  filter.Category,
	}, nil
}

func (s *recordService) List(ctx context.Context, filter models.RecordFilter) ([]*models.RentRecord, error) {
	records, err := s.repo.Record().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

func (s *recordService) Summary(ctx context.Context) (Summary, error) {
	records, err := s.repo.Record().List(ctx, models.RecordFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize records: %w", err)
	}
	return Summarize(records), nil
}

func (s *recordService) Payments(ctx context.Context, limit int) ([]*models.Payment, error) {
	payments, err := s.repo.Payment().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *recordService) Outgoing(ctx context.Context, limit int) ([]*models.OutgoingMessage, error) {
	messages, err := s.repo.Outgoing().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing messages: %w", err)
	}
	return messages, nil
}

// Export writes the header plus one row per record matching filter and
// returns the number of records written. Phones pass through the mask again;
// stored values are already masked and come back unchanged.
func (s *recordService) Export(ctx context.Context, w io.Writer, filter models.RecordFilter) (int, error) {
	records, err := s.repo.Record().List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to load records for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			phone.Mask(r.PhoneNumber),
			r.Reply,
			r.ReceivedAt.UTC().Format(ExportTimeLayout),
			string(r.Category),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.logger.Info("CSV export completed", zap.Int("records", len(records)))
	return len(records), nil
}
