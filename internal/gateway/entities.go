package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

type teacherEnvelope struct {
	models.Envelope
	Teacher *models.Teacher `json:"teacher"`
}

type teachersEnvelope struct {
	models.Envelope
	Teachers []models.Teacher `json:"teachers"`
	Count    int              `json:"count"`
}

type studentEnvelope struct {
	models.Envelope
	Student *models.Student `json:"student"`
}

type studentsEnvelope struct {
	models.Envelope
	Students []models.Student `json:"students"`
	Count    int              `json:"count"`
}

type statisticsEnvelope struct {
	models.Envelope
	Statistics models.StudentStatistics `json:"statistics"`
}

// ===== TEACHERS =====

func (c *Client) CreateTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error) {
	var resp teacherEnvelope
	if err := c.doJSON(ctx, "create_teacher", http.MethodPost, "/teachers", req, &resp); err != nil {
		return nil, err
	}
	if resp.Teacher == nil {
		return nil, missingPayload("create_teacher", "teacher")
	}
	return resp.Teacher, nil
}

func (c *Client) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	var resp teachersEnvelope
	if err := c.doJSON(ctx, "list_teachers", http.MethodGet, "/teachers", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Teachers == nil {
		return []models.Teacher{}, nil
	}
	return resp.Teachers, nil
}

func (c *Client) DeleteTeacher(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete_teacher", http.MethodDelete, "/teachers/"+url.PathEscape(id), nil, nil)
}

// ===== STUDENTS =====

func (c *Client) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	var resp studentEnvelope
	if err := c.doJSON(ctx, "create_student", http.MethodPost, "/students", req, &resp); err != nil {
		return nil, err
	}
	if resp.Student == nil {
		return nil, missingPayload("create_student", "student")
	}
	return resp.Student, nil
}

func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var resp studentsEnvelope
	if err := c.doJSON(ctx, "list_students", http.MethodGet, "/students", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Students == nil {
		return []models.Student{}, nil
	}
	return resp.Students, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete_student", http.MethodDelete, "/students/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetStudentStatistics(ctx context.Context, id string) (*models.StudentStatistics, error) {
	var resp statisticsEnvelope
	path := "/students/" + url.PathEscape(id) + "/statistics"
	if err := c.doJSON(ctx, "student_statistics", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Statistics, nil
}

func missingPayload(op, field string) *GatewayError {
	return &GatewayError{
		Operation:  op,
		StatusCode: http.StatusOK,
		Message:    GenericErrorMessage,
		Err:        fmt.Errorf("%s: response has no %q object", op, field),
	}
}
