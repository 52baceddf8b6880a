package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
)

const (
	defaultRecentLimit  = 5
	historyLoadAttempts = 3
)

type historyService struct {
	gateway   gateway.EvaluationGateway
	cache     *cache.CacheManager
	publisher events.EventPublisher
	renderer  *report.Renderer
	logger    *slog.Logger

	records  *history.RecordSet
	maxAge   time.Duration
	location *time.Location
	now      func() time.Time
	loads    singleflight.Group
}

type HistoryConfig struct {
	// MaxAge bounds how long the in-memory list is served before refetching.
	MaxAge   time.Duration
	Location *time.Location
	Clock    func() time.Time
}

func NewHistoryService(gw gateway.EvaluationGateway, cm *cache.CacheManager, publisher events.EventPublisher, renderer *report.Renderer, logger *slog.Logger, cfg HistoryConfig) HistoryService {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = cache.EvaluationCacheConfig.TTL
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &historyService{
		gateway:   gw,
		cache:     cm,
		publisher: publisher,
		renderer:  renderer,
		logger:    logger,
		records:   history.NewRecordSet(),
		maxAge:    cfg.MaxAge,
		location:  cfg.Location,
		now:       cfg.Clock,
	}
}

func (s *historyService) List(ctx context.Context, criteria history.Criteria) (*HistoryResponse, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	filtered := s.records.Filter(criteria, now)
	return &HistoryResponse{
		Evaluations:    filtered,
		TeacherOptions: s.records.TeacherOptions(),
		Count:          len(filtered),
		Total:          len(s.records.Records()),
	}, nil
}

func (s *historyService) Recent(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	records, err := s.gateway.ListRecentEvaluations(ctx, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list recent evaluations: %w", err))
	}
	return records, nil
}

func (s *historyService) Get(ctx context.Context, id string) (*models.EvaluationRecord, error) {
	if rec, ok := s.records.Get(id); ok {
		return &rec, nil
	}

	rec, err := cache.ReadThrough(ctx, s.cache.Evaluations, cache.EvaluationKey(id), func() (*models.EvaluationRecord, error) {
		return s.gateway.GetEvaluation(ctx, id)
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get evaluation: %w", err))
	}
	return rec, nil
}

func (s *historyService) Delete(ctx context.Context, id string) error {
	s.logger.Info("Deleting evaluation", "evaluation_id", id)

	if err := s.gateway.DeleteEvaluation(ctx, id); err != nil {
		return classify(fmt.Errorf("failed to delete evaluation: %w", err))
	}

	s.records.Remove(id)
	cache.InvalidateEvaluationCache(ctx, s.cache, id)
	publishEvent(ctx, s.publisher, s.logger, events.EventEvaluationDeleted, events.EvaluationDeletedData{EvaluationID: id})

	s.logger.Info("Evaluation deleted successfully", "evaluation_id", id)
	return nil
}

func (s *historyService) Report(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(*rec)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return doc, nil
}

func (s *historyService) Export(ctx context.Context, w io.Writer, criteria history.Criteria) error {
	resp, err := s.List(ctx, criteria)
	if err != nil {
		return err
	}
	if err := history.WriteXLSX(w, resp.Evaluations, s.location); err != nil {
		return fmt.Errorf("failed to export evaluations: %w", err)
	}
	s.logger.Info("Evaluations exported", "count", resp.Count)
	return nil
}

// Refresh drops every cached copy and fetches the list again.
func (s *historyService) Refresh(ctx context.Context) error {
	s.records.Invalidate()
	cache.InvalidateEvaluationCache(ctx, s.cache, "")
	return s.ensureLoaded(ctx)
}

func (s *historyService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventEvaluationCompleted:
		s.records.Invalidate()
		cache.InvalidateEvaluationCache(ctx, s.cache, "")
		s.logger.Debug("History invalidated by completed evaluation", "event_id", event.ID)
	case events.EventEvaluationDeleted:
		var data events.EvaluationDeletedData
		if err := event.Decode(&data); err != nil {
			return fmt.Errorf("decode %s: %w", event.Type, err)
		}
		s.records.Remove(data.EvaluationID)
		cache.InvalidateEvaluationCache(ctx, s.cache, data.EvaluationID)
	}
	return nil
}

// ensureLoaded refetches the list when the in-memory copy is stale. Concurrent
// callers share one fetch. A fetch overtaken by an invalidation is repeated so
// a completed or deleted evaluation is not masked by the older list.
func (s *historyService) ensureLoaded(ctx context.Context) error {
	if s.records.Fresh(s.now(), s.maxAge) {
		return nil
	}

	_, err, _ := s.loads.Do(cache.EvaluationListKey, func() (interface{}, error) {
		var records []models.EvaluationRecord
		for attempt := 0; attempt < historyLoadAttempts; attempt++ {
			epoch := s.records.Epoch()
			stale := func() bool { return s.records.Epoch() != epoch }

			var err error
			records, err = cache.ReadThroughUnless(ctx, s.cache.Evaluations, cache.EvaluationListKey, func() ([]models.EvaluationRecord, error) {
				return s.gateway.ListEvaluations(ctx)
			}, stale)
			if err != nil {
				return nil, err
			}
			if s.records.ReplaceAt(records, s.now(), epoch) {
				s.logger.Debug("Evaluation history loaded", "count", len(records))
				return nil, nil
			}
			s.logger.Debug("Evaluation history invalidated during fetch, refetching", "attempt", attempt+1)
		}
		// Serve the last list but leave it stale so the next read refetches.
		s.records.Replace(records, time.Time{})
		return nil, nil
	})
	if err != nil {
		return classify(fmt.Errorf("failed to list evaluations: %w", err))
	}
	return nil
}
