package services

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

type mockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	teachers    []models.Teacher
	students    []models.Student
	evaluations []models.EvaluationRecord
	stats       *models.StudentStatistics

	extracted string
	submitted *models.EvaluationRecord
	err       map[string]error
	// hooks run inside a call, after list results are captured, so a test can
	// hold a fetch in flight.
	hooks map[string]func()
}

var _ gateway.Gateway = (*mockGateway)(nil)

func newMockGateway() *mockGateway {
	subject := "Physics"
	return &mockGateway{
		calls:    map[string]int{},
		err:      map[string]error{},
		hooks:    map[string]func(){},
		teachers: []models.Teacher{{ID: "t1", Name: "Ms. Rao", Email: "rao@school.test", Subject: &subject}},
		students: []models.Student{{ID: "s1", Name: "Asha", Email: "asha@school.test", RollNumber: "12"}},
	}
}

func (m *mockGateway) record(op string) error {
	m.mu.Lock()
	m.calls[op]++
	err, hook := m.err[op], m.hooks[op]
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// Hook installs fn to run inside the next calls of op.
func (m *mockGateway) Hook(op string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[op] = fn
}

func (m *mockGateway) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockGateway) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err[op] = err
}

func (m *mockGateway) CreateTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error) {
	if err := m.record("CreateTeacher"); err != nil {
		return nil, err
	}
	teacher := models.Teacher{ID: "t-new", Name: req.Name, Email: req.Email, Subject: req.Subject}
	m.mu.Lock()
	m.teachers = append(m.teachers, teacher)
	m.mu.Unlock()
	return &teacher, nil
}

func (m *mockGateway) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	m.mu.Lock()
	teachers := append([]models.Teacher(nil), m.teachers...)
	m.mu.Unlock()
	if err := m.record("ListTeachers"); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (m *mockGateway) DeleteTeacher(ctx context.Context, id string) error {
	return m.record("DeleteTeacher")
}

func (m *mockGateway) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := m.record("CreateStudent"); err != nil {
		return nil, err
	}
	student := models.Student{ID: "s-new", Name: req.Name, Email: req.Email, RollNumber: req.RollNumber}
	m.mu.Lock()
	m.students = append(m.students, student)
	m.mu.Unlock()
	return &student, nil
}

func (m *mockGateway) ListStudents(ctx context.Context) ([]models.Student, error) {
	m.mu.Lock()
	students := append([]models.Student(nil), m.students...)
	m.mu.Unlock()
	if err := m.record("ListStudents"); err != nil {
		return nil, err
	}
	return students, nil
}

func (m *mockGateway) DeleteStudent(ctx context.Context, id string) error {
	return m.record("DeleteStudent")
}

func (m *mockGateway) GetStudentStatistics(ctx context.Context, id string) (*models.StudentStatistics, error) {
	if err := m.record("GetStudentStatistics"); err != nil {
		return nil, err
	}
	return m.stats, nil
}

func (m *mockGateway) ExtractModelAnswer(ctx context.Context, file models.FileHandle) (string, error) {
	if err := m.record("ExtractModelAnswer"); err != nil {
		return "", err
	}
	return m.extracted, nil
}

func (m *mockGateway) ExtractText(ctx context.Context, file models.FileHandle) (string, error) {
	if err := m.record("ExtractText"); err != nil {
		return "", err
	}
	return m.extracted, nil
}

func (m *mockGateway) SubmitEvaluation(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationRecord, error) {
	if err := m.record("SubmitEvaluation"); err != nil {
		return nil, err
	}
	rec := *m.submitted
	return &rec, nil
}

func (m *mockGateway) ListEvaluations(ctx context.Context) ([]models.EvaluationRecord, error) {
	m.mu.Lock()
	records := append([]models.EvaluationRecord(nil), m.evaluations...)
	m.mu.Unlock()
	if err := m.record("ListEvaluations"); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *mockGateway) addEvaluation(rec models.EvaluationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, rec)
}

func (m *mockGateway) ListRecentEvaluations(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	if err := m.record("ListRecentEvaluations"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.evaluations) {
		limit = len(m.evaluations)
	}
	return append([]models.EvaluationRecord(nil), m.evaluations[:limit]...), nil
}

func (m *mockGateway) GetEvaluation(ctx context.Context, id string) (*models.EvaluationRecord, error) {
	if err := m.record("GetEvaluation"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.evaluations {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, &gateway.GatewayError{Operation: "get_evaluation", StatusCode: 404, Message: "Evaluation not found"}
}

func (m *mockGateway) DeleteEvaluation(ctx context.Context, id string) error {
	return m.record("DeleteEvaluation")
}

func (m *mockGateway) Health(ctx context.Context) error {
	return m.record("Health")
}
