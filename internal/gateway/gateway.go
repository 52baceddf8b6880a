package gateway

import (
	"context"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// TeacherGateway covers the backend's teacher routes.
type TeacherGateway interface {
	CreateTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	DeleteTeacher(ctx context.Context, id string) error
}

// StudentGateway covers the backend's student routes.
type StudentGateway interface {
	CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	GetStudentStatistics(ctx context.Context, id string) (*models.StudentStatistics, error)
}

// EvaluationGateway covers extraction, scoring and evaluation history.
type EvaluationGateway interface {
	ExtractModelAnswer(ctx context.Context, file models.FileHandle) (string, error)
	ExtractText(ctx context.Context, file models.FileHandle) (string, error)
	SubmitEvaluation(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationRecord, error)
	ListEvaluations(ctx context.Context) ([]models.EvaluationRecord, error)
	ListRecentEvaluations(ctx context.Context, limit int) ([]models.EvaluationRecord, error)
	GetEvaluation(ctx context.Context, id string) (*models.EvaluationRecord, error)
	DeleteEvaluation(ctx context.Context, id string) error
}

// Gateway is the full remote surface consumed by the console.
type Gateway interface {
	TeacherGateway
	StudentGateway
	EvaluationGateway
	Health(ctx context.Context) error
}
