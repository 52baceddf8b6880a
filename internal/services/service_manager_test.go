package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

func TestServiceManager_GettersPanicBeforeInitialize(t *testing.T) {
	sm := NewDefaultServiceManager(Dependencies{Gateway: newMockGateway(), Logger: testLogger()})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	sm.Sessions()
}

func TestServiceManager_InitializeRequiresGateway(t *testing.T) {
	sm := NewDefaultServiceManager(Dependencies{Logger: testLogger()})
	if err := sm.Initialize(context.Background()); err == nil {
		t.Error("expected error without gateway")
	}
}

func TestServiceManager_HealthCheck(t *testing.T) {
	gw := newMockGateway()
	sm := NewDefaultServiceManager(Dependencies{Gateway: gw, Logger: testLogger()})
	ctx := context.Background()

	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("health check before Initialize should fail")
	}
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sm.Shutdown(ctx)

	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
	gw.Fail("Health", &gateway.GatewayError{StatusCode: 503, Message: "down"})
	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("expected gateway failure to surface")
	}
}

func TestServiceManager_CompletedEvaluationRefreshesHistory(t *testing.T) {
	logger := testLogger()
	bus, err := events.NewBus(events.BusConfig{}, logger)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	defer bus.Close()

	gw := newMockGateway()
	marks := 9.0
	gw.submitted = &models.EvaluationRecord{ID: "e9", MarksAwarded: &marks, Grade: "A"}

	sm := NewServiceManager(Dependencies{
		Gateway:    gw,
		Publisher:  bus,
		Subscriber: bus,
		Logger:     logger,
	}, ServiceManagerConfig{
		HistoryMaxAge:   time.Hour,
		JanitorInterval: time.Hour,
		Location:        time.UTC,
	})
	ctx := context.Background()
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sm.Shutdown(ctx)

	if _, err := sm.History().List(ctx, history.MatchAll()); err != nil {
		t.Fatal(err)
	}

	view, err := sm.Sessions().Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	id := view.ID
	steps := []func() error{
		func() error {
			_, err := sm.Sessions().SubmitModelAnswer(ctx, id, workflow.ModelAnswerInput{Text: "answer"})
			return err
		},
		func() error {
			_, err := sm.Sessions().AttachStudentFile(ctx, id, models.FileHandle{Name: "a.pdf"})
			return err
		},
		func() error {
			_, err := sm.Sessions().UpdateDetails(ctx, id, &UpdateDetailsRequest{MaxMarks: intPtr(10), TeacherID: strPtr("t1"), StudentID: strPtr("s1")})
			return err
		},
		func() error {
			_, err := sm.Sessions().Submit(ctx, id)
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for gw.Calls("ListEvaluations") < 2 {
		if time.Now().After(deadline) {
			t.Fatal("history was not refetched after evaluation.completed")
		}
		if _, err := sm.History().List(ctx, history.MatchAll()); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceManager_ShutdownIsIdempotent(t *testing.T) {
	sm := NewDefaultServiceManager(Dependencies{Gateway: newMockGateway(), Logger: testLogger()})
	ctx := context.Background()
	if err := sm.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := sm.Shutdown(ctx); err != nil {
			t.Fatalf("Shutdown #%d: %v", i+1, err)
		}
	}
	if err := sm.HealthCheck(ctx); err == nil || errors.Is(err, context.Canceled) {
		t.Errorf("health after shutdown = %v", err)
	}
}
