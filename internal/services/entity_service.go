package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

type entityService struct {
	gateway   gateway.Gateway
	cache     *cache.CacheManager
	entities  *cache.EntityCache
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewEntityService(gw gateway.Gateway, cm *cache.CacheManager, entities *cache.EntityCache, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) EntityService {
	return &entityService{
		gateway:   gw,
		cache:     cm,
		entities:  entities,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== TEACHERS =====

// listAttempts bounds refetching a list that a create or delete overtook.
const listAttempts = 3

// ListTeachers refreshes the shared cache from the backend. A list fetched
// before a concurrent create or delete landed is discarded and fetched again.
func (s *entityService) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	for attempt := 0; attempt < listAttempts; attempt++ {
		rev := s.entities.TeacherRevision()
		teachers, err := s.fetchTeachers(ctx, rev)
		if err != nil {
			return nil, err
		}
		if s.entities.ReplaceTeachersAt(teachers, rev) {
			return teachers, nil
		}
		s.logger.Debug("Teacher list changed during fetch, refetching", "attempt", attempt+1)
	}
	return s.entities.Teachers(), nil
}

// fetchTeachers reads through redis. The result is not written back when the
// shared list moved past rev during the fetch.
func (s *entityService) fetchTeachers(ctx context.Context, rev uint64) ([]models.Teacher, error) {
	stale := func() bool { return s.entities.TeacherRevision() != rev }
	teachers, err := cache.ReadThroughUnless(ctx, s.cache.Entities, cache.TeacherListKey, func() ([]models.Teacher, error) {
		return s.gateway.ListTeachers(ctx)
	}, stale)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list teachers: %w", err))
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

func (s *entityService) CreateTeacher(ctx context.Context, req *models.CreateTeacherRequest) (*models.Teacher, error) {
	s.logger.Info("Creating teacher", "name", req.Name)

	if err := s.validator.ValidateCreateTeacher(req); err != nil {
		return nil, classify(err)
	}

	teacher, err := s.gateway.CreateTeacher(ctx, *req)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create teacher: %w", err))
	}

	s.entities.AddTeacher(*teacher)
	cache.InvalidateEntityCache(ctx, s.cache)
	s.publish(ctx, events.EventTeacherCreated, events.EntityData{ID: teacher.ID, Name: teacher.Name})

	s.logger.Info("Teacher created successfully", "teacher_id", teacher.ID)
	return teacher, nil
}

func (s *entityService) DeleteTeacher(ctx context.Context, id string) error {
	s.logger.Info("Deleting teacher", "teacher_id", id)

	if err := s.gateway.DeleteTeacher(ctx, id); err != nil {
		return classify(fmt.Errorf("failed to delete teacher: %w", err))
	}

	s.entities.RemoveTeacher(id)
	cache.InvalidateEntityCache(ctx, s.cache)
	s.publish(ctx, events.EventTeacherDeleted, events.EntityData{ID: id})
	return nil
}

// ===== STUDENTS =====

func (s *entityService) ListStudents(ctx context.Context) ([]models.Student, error) {
	for attempt := 0; attempt < listAttempts; attempt++ {
		rev := s.entities.StudentRevision()
		students, err := s.fetchStudents(ctx, rev)
		if err != nil {
			return nil, err
		}
		if s.entities.ReplaceStudentsAt(students, rev) {
			return students, nil
		}
		s.logger.Debug("Student list changed during fetch, refetching", "attempt", attempt+1)
	}
	return s.entities.Students(), nil
}

func (s *entityService) fetchStudents(ctx context.Context, rev uint64) ([]models.Student, error) {
	stale := func() bool { return s.entities.StudentRevision() != rev }
	students, err := cache.ReadThroughUnless(ctx, s.cache.Entities, cache.StudentListKey, func() ([]models.Student, error) {
		return s.gateway.ListStudents(ctx)
	}, stale)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list students: %w", err))
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

func (s *entityService) CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	s.logger.Info("Creating student", "name", req.Name, "roll_number", req.RollNumber)

	if err := s.validator.ValidateCreateStudent(req); err != nil {
		return nil, classify(err)
	}

	student, err := s.gateway.CreateStudent(ctx, *req)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create student: %w", err))
	}

	s.entities.AddStudent(*student)
	cache.InvalidateEntityCache(ctx, s.cache)
	s.publish(ctx, events.EventStudentCreated, events.EntityData{ID: student.ID, Name: student.Name})

	s.logger.Info("Student created successfully", "student_id", student.ID)
	return student, nil
}

func (s *entityService) DeleteStudent(ctx context.Context, id string) error {
	s.logger.Info("Deleting student", "student_id", id)

	if err := s.gateway.DeleteStudent(ctx, id); err != nil {
		return classify(fmt.Errorf("failed to delete student: %w", err))
	}

	s.entities.RemoveStudent(id)
	cache.InvalidateEntityCache(ctx, s.cache)
	cache.SafeDelete(ctx, s.cache.Stats, cache.StudentStatsKey(id))
	s.publish(ctx, events.EventStudentDeleted, events.EntityData{ID: id})
	return nil
}

func (s *entityService) GetStudentStatistics(ctx context.Context, id string) (*models.StudentStatistics, error) {
	stats, err := cache.ReadThrough(ctx, s.cache.Stats, cache.StudentStatsKey(id), func() (*models.StudentStatistics, error) {
		return s.gateway.GetStudentStatistics(ctx, id)
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get student statistics: %w", err))
	}
	return stats, nil
}

// ===== SHARED CACHE =====

func (s *entityService) Warm(ctx context.Context) error {
	if s.entities.Version() > 0 {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads both lists; the shared cache is replaced only when both succeed.
func (s *entityService) Refresh(ctx context.Context) error {
	err := s.entities.Load(ctx, cachedEntitySource{s})
	if errors.Is(err, cache.ErrConcurrentUpdate) {
		// Creates and deletes kept landing; what is cached already reflects them.
		s.logger.Warn("Entity cache kept changing during reload", "error", err)
		return nil
	}
	if err != nil {
		return classify(fmt.Errorf("failed to load teachers and students: %w", err))
	}
	s.logger.Debug("Entity cache loaded", "version", s.entities.Version())
	return nil
}

// cachedEntitySource reads through redis without touching the shared cache.
type cachedEntitySource struct {
	s *entityService
}

func (c cachedEntitySource) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return c.s.fetchTeachers(ctx, c.s.entities.TeacherRevision())
}

func (c cachedEntitySource) ListStudents(ctx context.Context) ([]models.Student, error) {
	return c.s.fetchStudents(ctx, c.s.entities.StudentRevision())
}

func (s *entityService) publish(ctx context.Context, eventType string, data interface{}) {
	publishEvent(ctx, s.publisher, s.logger, eventType, data)
}

// publishEvent is fire-and-forget: a failed publish is logged, never returned.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType string, data interface{}) {
	if publisher == nil {
		return
	}
	event, err := events.NewEvent(eventType, data)
	if err != nil {
		logger.Error("Failed to build event", "event_type", eventType, "error", err)
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}
