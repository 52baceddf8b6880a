package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/metrics"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

const DefaultSessionIdleTTL = 30 * time.Minute

type session struct {
	id          string
	controller  *workflow.Controller
	unsubscribe func()
	createdAt   time.Time
	lastSeen    time.Time
}

type sessionService struct {
	backend   workflow.Backend
	entities  *cache.EntityCache
	entitySvc EntityService
	cache     *cache.CacheManager
	publisher events.EventPublisher
	renderer  *report.Renderer
	logger    *slog.Logger
	validator *validator.Validator
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type SessionConfig struct {
	IdleTTL time.Duration
	Clock   func() time.Time
}

func NewSessionService(
	backend workflow.Backend,
	entities *cache.EntityCache,
	entitySvc EntityService,
	cm *cache.CacheManager,
	publisher events.EventPublisher,
	renderer *report.Renderer,
	logger *slog.Logger,
	validator *validator.Validator,
	cfg SessionConfig,
) SessionService {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionIdleTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &sessionService{
		backend:   backend,
		entities:  entities,
		entitySvc: entitySvc,
		cache:     cm,
		publisher: publisher,
		renderer:  renderer,
		logger:    logger,
		validator: validator,
		idleTTL:   cfg.IdleTTL,
		now:       cfg.Clock,
		sessions:  make(map[string]*session),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Create(ctx context.Context) (*SessionView, error) {
	// Selectors start empty when the backend is down; the session still opens.
	if s.entitySvc != nil {
		if err := s.entitySvc.Warm(ctx); err != nil {
			s.logger.Warn("Could not load teachers and students for new session", "error", err)
		}
	}

	id := uuid.NewString()
	logger := s.logger.With("session_id", id)
	ctrl := workflow.NewController(s.backend, s.entities, s.validator, logger)
	unsubscribe := ctrl.Subscribe(func(snap workflow.Snapshot) {
		logger.Debug("Session updated",
			"revision", snap.Revision,
			"state", snap.State.String(),
			"error", snap.Error)
	})

	now := s.now()
	sess := &session{
		id:          id,
		controller:  ctrl,
		unsubscribe: unsubscribe,
		createdAt:   now,
		lastSeen:    now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))

	logger.Info("Evaluation session created")
	return sess.view(), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.close()
	metrics.ActiveSessions.Set(float64(count))
	s.logger.Info("Evaluation session deleted", "session_id", id)
	return nil
}

func (s *sessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions not touched within the idle TTL and returns how many went.
func (s *sessionService) EvictIdle(now time.Time) int {
	var evicted []*session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= s.idleTTL {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.close()
		s.logger.Info("Evaluation session expired", "session_id", sess.id)
	}
	if len(evicted) > 0 {
		metrics.ActiveSessions.Set(float64(count))
	}
	return len(evicted)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *sessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(s.now())
		}
	}
}

// ===== WORKFLOW =====

func (s *sessionService) SubmitModelAnswer(ctx context.Context, id string, in workflow.ModelAnswerInput) (*SessionView, error) {
	return s.apply(id, func(c *workflow.Controller) error {
		return c.SubmitModelAnswer(ctx, in)
	})
}

func (s *sessionService) Back(ctx context.Context, id string) (*SessionView, error) {
	return s.apply(id, func(c *workflow.Controller) error {
		return c.Back()
	})
}

func (s *sessionService) AttachStudentFile(ctx context.Context, id string, file models.FileHandle) (*SessionView, error) {
	return s.apply(id, func(c *workflow.Controller) error {
		if err := c.AttachStudentFile(file); err != nil {
			return err
		}
		if !file.HasAllowedStudentType() {
			s.logger.Debug("Student file type will be checked by the backend",
				"session_id", id,
				"file", file.Name)
		}
		return nil
	})
}

// UpdateDetails applies max marks, question, teacher and student in that order
// and stops at the first rejected field.
func (s *sessionService) UpdateDetails(ctx context.Context, id string, req *UpdateDetailsRequest) (*SessionView, error) {
	return s.apply(id, func(c *workflow.Controller) error {
		if req.MaxMarks != nil {
			if err := c.SetMaxMarks(*req.MaxMarks); err != nil {
				return err
			}
		}
		if req.Question != nil {
			if err := c.SetQuestion(*req.Question); err != nil {
				return err
			}
		}
		if req.TeacherID != nil {
			if err := c.SelectTeacher(*req.TeacherID); err != nil {
				return err
			}
		}
		if req.StudentID != nil {
			if err := c.SelectStudent(*req.StudentID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *sessionService) CreateTeacher(ctx context.Context, id string, req *models.CreateTeacherRequest) (*TeacherCreatedResponse, error) {
	var teacher *models.Teacher
	view, err := s.apply(id, func(c *workflow.Controller) error {
		var err error
		teacher, err = c.CreateTeacherInline(ctx, *req)
		return err
	})
	if teacher != nil {
		cache.InvalidateEntityCache(ctx, s.cache)
		publishEvent(ctx, s.publisher, s.logger, events.EventTeacherCreated, events.EntityData{ID: teacher.ID, Name: teacher.Name})
	}
	if err != nil {
		return nil, err
	}
	return &TeacherCreatedResponse{Teacher: teacher, Session: view}, nil
}

func (s *sessionService) CreateStudent(ctx context.Context, id string, req *models.CreateStudentRequest) (*StudentCreatedResponse, error) {
	var student *models.Student
	view, err := s.apply(id, func(c *workflow.Controller) error {
		var err error
		student, err = c.CreateStudentInline(ctx, *req)
		return err
	})
	if student != nil {
		cache.InvalidateEntityCache(ctx, s.cache)
		publishEvent(ctx, s.publisher, s.logger, events.EventStudentCreated, events.EntityData{ID: student.ID, Name: student.Name})
	}
	if err != nil {
		return nil, err
	}
	return &StudentCreatedResponse{Student: student, Session: view}, nil
}

func (s *sessionService) Submit(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	rec, err := sess.controller.SubmitEvaluation(ctx)
	if errors.Is(err, workflow.ErrStaleResult) {
		s.logger.Debug("Discarded evaluation result for a reset session", "session_id", id)
		return sess.view(), nil
	}
	if err != nil {
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) {
			publishEvent(ctx, s.publisher, s.logger, events.EventEvaluationFailed, events.EvaluationFailedData{
				SessionID: id,
				Message:   gwErr.Message,
			})
		}
		return nil, classify(err)
	}

	data := events.EvaluationCompletedData{
		EvaluationID: rec.ID,
		SessionID:    id,
		TeacherID:    rec.TeacherID,
		StudentID:    rec.StudentID,
		Grade:        rec.Grade,
		Percentage:   rec.Percentage,
	}
	if rec.MaxMarks != nil {
		data.MaxMarks = *rec.MaxMarks
	}
	publishEvent(ctx, s.publisher, s.logger, events.EventEvaluationCompleted, data)

	s.logger.Info("Evaluation completed",
		"session_id", id,
		"evaluation_id", rec.ID,
		"grade", rec.Grade)
	return sess.view(), nil
}

func (s *sessionService) Reset(ctx context.Context, id string) (*SessionView, error) {
	return s.apply(id, func(c *workflow.Controller) error {
		c.Reset()
		return nil
	})
}

func (s *sessionService) Report(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	rec := sess.controller.Result()
	if rec == nil {
		return nil, ErrNoResult
	}
	doc, err := s.renderer.Render(*rec)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return doc, nil
}

// ===== HELPERS =====

func (s *sessionService) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// apply runs op on the session's controller. The returned view is the state
// after op even when op failed, so callers can show the recorded error. A
// response that a reset overtook is dropped without an error.
func (s *sessionService) apply(id string, op func(c *workflow.Controller) error) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	err = op(sess.controller)
	if errors.Is(err, workflow.ErrStaleResult) {
		s.logger.Debug("Discarded response for a reset session", "session_id", id)
		return sess.view(), nil
	}
	if err != nil {
		return sess.view(), classify(err)
	}
	return sess.view(), nil
}

func (sess *session) view() *SessionView {
	return &SessionView{
		ID:        sess.id,
		CreatedAt: sess.createdAt,
		Snapshot:  sess.controller.Snapshot(),
	}
}

// close abandons any in-flight call; its response is discarded on arrival.
func (sess *session) close() {
	sess.unsubscribe()
	sess.controller.Reset()
}
