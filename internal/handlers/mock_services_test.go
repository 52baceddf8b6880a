package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// mockSessionService embeds the interface so tests only stub what they call.
type mockSessionService struct {
	services.SessionService

	view   *services.SessionView
	err    error
	doc    []byte
	lastIn workflow.ModelAnswerInput
	lastID string
	calls  []string
}

func (m *mockSessionService) record(op, id string) {
	m.calls = append(m.calls, op)
	m.lastID = id
}

func (m *mockSessionService) Create(ctx context.Context) (*services.SessionView, error) {
	m.record("Create", "")
	return m.view, m.err
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*services.SessionView, error) {
	m.record("Get", id)
	if m.view == nil {
		return nil, services.ErrSessionNotFound
	}
	return m.view, nil
}

func (m *mockSessionService) Delete(ctx context.Context, id string) error {
	m.record("Delete", id)
	return m.err
}

func (m *mockSessionService) SubmitModelAnswer(ctx context.Context, id string, in workflow.ModelAnswerInput) (*services.SessionView, error) {
	m.record("SubmitModelAnswer", id)
	m.lastIn = in
	return m.view, m.err
}

func (m *mockSessionService) Submit(ctx context.Context, id string) (*services.SessionView, error) {
	m.record("Submit", id)
	return m.view, m.err
}

func (m *mockSessionService) UpdateDetails(ctx context.Context, id string, req *services.UpdateDetailsRequest) (*services.SessionView, error) {
	m.record("UpdateDetails", id)
	return m.view, m.err
}

func (m *mockSessionService) Report(ctx context.Context, id string) ([]byte, error) {
	m.record("Report", id)
	return m.doc, m.err
}

type mockEntityService struct {
	services.EntityService

	teachers []models.Teacher
	err      error
}

func (m *mockEntityService) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return m.teachers, m.err
}

func (m *mockEntityService) CreateTeacher(ctx context.Context, req *models.CreateTeacherRequest) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Teacher{ID: "t9", Name: req.Name, Subject: req.Subject}, nil
}

func (m *mockEntityService) DeleteTeacher(ctx context.Context, id string) error {
	return m.err
}

type mockHistoryService struct {
	services.HistoryService

	resp         *services.HistoryResponse
	records      []models.EvaluationRecord
	err          error
	lastCriteria history.Criteria
	lastLimit    int
	refreshed    bool
}

func (m *mockHistoryService) List(ctx context.Context, criteria history.Criteria) (*services.HistoryResponse, error) {
	m.lastCriteria = criteria
	return m.resp, m.err
}

func (m *mockHistoryService) Recent(ctx context.Context, limit int) ([]models.EvaluationRecord, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockHistoryService) Export(ctx context.Context, w io.Writer, criteria history.Criteria) error {
	m.lastCriteria = criteria
	if m.err != nil {
		return m.err
	}
	_, err := w.Write([]byte("PK"))
	return err
}

func (m *mockHistoryService) Refresh(ctx context.Context) error {
	m.refreshed = true
	return m.err
}

type mockServiceManager struct {
	services.ServiceManager

	sessions   *mockSessionService
	sessionSvc services.SessionService // replaces the session mock when set
	entities   *mockEntityService
	history    *mockHistoryService
	healthErr  error
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		sessions: &mockSessionService{},
		entities: &mockEntityService{},
		history:  &mockHistoryService{resp: &services.HistoryResponse{}},
	}
}

func (m *mockServiceManager) Sessions() services.SessionService {
	if m.sessionSvc != nil {
		return m.sessionSvc
	}
	return m.sessions
}

func (m *mockServiceManager) Entities() services.EntityService { return m.entities }
func (m *mockServiceManager) History() services.HistoryService { return m.history }

func (m *mockServiceManager) HealthCheck(ctx context.Context) error { return m.healthErr }

// newTestRouter wires the full route table over the mocks.
func newTestRouter(sm *mockServiceManager) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, testLogger(), 1<<20)
	NewHandlerManager(sm, validator.New(), testLogger()).SetupRoutes(router)
	return router
}

func sessionView(step int) *services.SessionView {
	return &services.SessionView{
		ID:        "sess-1",
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Snapshot:  workflow.Snapshot{Step: step},
	}
}
