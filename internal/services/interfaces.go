package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

// ===== REQUEST/RESPONSE DTOs =====

// SessionView is a workflow snapshot tagged with the session it belongs to.
type SessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	workflow.Snapshot
}

// UpdateDetailsRequest edits the student-answer step. Nil fields are left
// unchanged; an empty teacher or student id clears the selection.
type UpdateDetailsRequest struct {
	MaxMarks  *int    `json:"max_marks" form:"max_marks"`
	Question  *string `json:"question" form:"question"`
	TeacherID *string `json:"teacher_id" form:"teacher_id"`
	StudentID *string `json:"student_id" form:"student_id"`
}

type TeacherCreatedResponse struct {
	Teacher *models.Teacher `json:"teacher"`
	Session *SessionView    `json:"session"`
}

type StudentCreatedResponse struct {
	Student *models.Student `json:"student"`
	Session *SessionView    `json:"session"`
}

type HistoryResponse struct {
	Evaluations    []models.EvaluationRecord `json:"evaluations"`
	TeacherOptions []string                  `json:"teacher_options"`
	Count          int                       `json:"count"`
	Total          int                       `json:"total"`
}

// ===== SERVICE INTERFACES =====

type SessionService interface {
	Create(ctx context.Context) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	Delete(ctx context.Context, id string) error

	SubmitModelAnswer(ctx context.Context, id string, in workflow.ModelAnswerInput) (*SessionView, error)
	Back(ctx context.Context, id string) (*SessionView, error)
	AttachStudentFile(ctx context.Context, id string, file models.FileHandle) (*SessionView, error)
	UpdateDetails(ctx context.Context, id string, req *UpdateDetailsRequest) (*SessionView, error)
	CreateTeacher(ctx context.Context, id string, req *models.CreateTeacherRequest) (*TeacherCreatedResponse, error)
	CreateStudent(ctx context.Context, id string, req *models.CreateStudentRequest) (*StudentCreatedResponse, error)
	Submit(ctx context.Context, id string) (*SessionView, error)
	Reset(ctx context.Context, id string) (*SessionView, error)
	Report(ctx context.Context, id string) ([]byte, error)

	Count() int
	EvictIdle(now time.Time) int
	RunJanitor(ctx context.Context, interval time.Duration)
}

type EntityService interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	CreateTeacher(ctx context.Context, req *models.CreateTeacherRequest) (*models.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error

	ListStudents(ctx context.Context) ([]models.Student, error)
	CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	GetStudentStatistics(ctx context.Context, id string) (*models.StudentStatistics, error)

	// Warm loads the shared entity cache unless it already holds data.
	Warm(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type HistoryService interface {
	List(ctx context.Context, criteria history.Criteria) (*HistoryResponse, error)
	Recent(ctx context.Context, limit int) ([]models.EvaluationRecord, error)
	Get(ctx context.Context, id string) (*models.EvaluationRecord, error)
	Delete(ctx context.Context, id string) error
	Report(ctx context.Context, id string) ([]byte, error)
	Export(ctx context.Context, w io.Writer, criteria history.Criteria) error
	Refresh(ctx context.Context) error

	// HandleEvent keeps the cached history in step with evaluations
	// completed or deleted elsewhere in the console.
	HandleEvent(ctx context.Context, event events.Event) error
}

// EventSubscriber is the consuming side of the event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler events.HandlerFunc) error
}

// ServiceManager owns the console services and their lifecycle.
type ServiceManager interface {
	Sessions() SessionService
	Entities() EntityService
	History() HistoryService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
