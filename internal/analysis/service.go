package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/scam-sniffer/internal/analyzer"
	"github.com/richxcame/scam-sniffer/internal/coordination"
	"github.com/richxcame/scam-sniffer/pkg/events"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("scamsniffer.analysis")

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of text analyses by risk level",
		},
		[]string{"level"},
	)

	coordinationAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coordination_alerts_total",
			Help: "Total number of coordinated-activity signals",
		},
	)
)

// Service runs analyses and fans results out to storage and observers
type Service struct {
	repo      RepositoryInterface
	window    *coordination.Window
	broadcast Broadcaster
	publisher events.Publisher
	subject   string
	now       func() time.Time
}

// NewService creates a new analysis service. The coordination window is
// required; broadcaster and publisher may be nil.
func NewService(repo RepositoryInterface, window *coordination.Window) *Service {
	return &Service{
		repo:   repo,
		window: window,
		now:    time.Now,
	}
}

// WithBroadcaster relays results to websocket observers
func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcast = b
	return s
}

// WithPublisher forwards coordination alerts to an external subject
func (s *Service) WithPublisher(p events.Publisher, subject string) *Service {
	s.publisher = p
	s.subject = subject
	return s
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Analyze scores sanitized text, registers it with the coordination
// window and fans the outcome out. The text must already be sanitized
// and non-empty; callers enforce that. Persistence only happens for
// known identities (email != "") and its failure does not fail the
// analysis, which is a pure computation the submitter still deserves
// an answer to.
func (s *Service) Analyze(ctx context.Context, text, submitterID, email string) *Outcome {
	ctx, span := tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(attribute.Int("analysis.text_length", len(text))),
	)
	defer span.End()

	result := analyzer.Score(text)
	signal := s.window.Register(text, submitterID, s.now())

	span.SetAttributes(
		attribute.Int("analysis.score", result.Score),
		attribute.String("analysis.level", string(result.Level)),
		attribute.Bool("analysis.coordinated", signal != nil),
	)

	analysesTotal.WithLabelValues(string(result.Level)).Inc()

	if email != "" {
		record := &Record{
			ID:         uuid.New(),
			Email:      email,
			Text:       text,
			Score:      result.Score,
			Level:      result.Level,
			Indicators: result.Indicators,
			IsScam:     result.IsScam(),
		}
		if err := s.repo.CreateRecord(ctx, record); err != nil {
			logger.WithContext(ctx).Error("Failed to persist analysis",
				zap.String("email", email),
				zap.Error(err),
			)
		}
	}

	if s.broadcast != nil {
		s.broadcast.BroadcastToAdmins("new_analysis", map[string]interface{}{
			"text":       text,
			"email":      email,
			"score":      result.Score,
			"level":      result.Level,
			"indicators": result.Indicators,
		})
	}

	if signal != nil {
		coordinationAlertsTotal.Inc()
		logger.WithContext(ctx).Warn("Coordinated activity detected",
			zap.Int("match_count", signal.MatchCount),
			zap.String("submitter_id", submitterID),
		)

		if s.broadcast != nil {
			s.broadcast.BroadcastToAdmins("coordination_alert", signal)
		}
		if s.publisher != nil {
			if err := s.publisher.Publish(s.subject, signal); err != nil {
				logger.WithContext(ctx).Warn("Failed to publish coordination alert", zap.Error(err))
			}
		}
	}

	return &Outcome{Result: result, Signal: signal}
}

// History returns persisted analyses newest first
func (s *Service) History(ctx context.Context, limit, offset int) ([]*Record, int64, error) {
	records, err := s.repo.ListRecords(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountRecords(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// FullHistory returns every persisted analysis, for export
func (s *Service) FullHistory(ctx context.Context) ([]*Record, error) {
	return s.repo.ListAllRecords(ctx)
}

// DeleteRecord removes one history entry
func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRecord(ctx, id)
}

// Stats summarizes stored analyses for the admin dashboard
func (s *Service) Stats(ctx context.Context, users UserCounter) (*StatsResponse, error) {
	totalAnalyses, err := s.repo.CountRecords(ctx)
	if err != nil {
		return nil, err
	}

	totalScams, err := s.repo.CountScamRecords(ctx)
	if err != nil {
		return nil, err
	}

	stats := &StatsResponse{
		TotalAnalyses: totalAnalyses,
		TotalScams:    totalScams,
	}

	if users != nil {
		totalUsers, err := users.CountUsers(ctx)
		if err != nil {
			return nil, err
		}
		stats.TotalUsers = totalUsers
	}

	if s.broadcast != nil {
		stats.LiveUsers = s.broadcast.LiveUserCount()
	}

	return stats, nil
}
