package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisCache(t *testing.T) *cache.CacheManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewCacheManager(client)
}

type entityFixture struct {
	gw        *mockGateway
	entities  *cache.EntityCache
	publisher *events.MockEventPublisher
	svc       EntityService
}

func newEntityFixture(t *testing.T, cm *cache.CacheManager) *entityFixture {
	t.Helper()
	logger := testLogger()
	f := &entityFixture{
		gw:        newMockGateway(),
		entities:  cache.NewEntityCache(),
		publisher: events.NewMockEventPublisher(logger),
	}
	f.svc = NewEntityService(f.gw, cm, f.entities, f.publisher, logger, validator.New())
	return f
}

func TestEntityService_ListTeachersReadsThroughRedis(t *testing.T) {
	f := newEntityFixture(t, newRedisCache(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		teachers, err := f.svc.ListTeachers(ctx)
		if err != nil {
			t.Fatalf("ListTeachers: %v", err)
		}
		if len(teachers) != 1 || teachers[0].Label() != "Ms. Rao (Physics)" {
			t.Fatalf("teachers = %+v", teachers)
		}
	}
	if got := f.gw.Calls("ListTeachers"); got != 1 {
		t.Errorf("gateway called %d times, want 1", got)
	}
	if _, ok := f.entities.Teacher("t1"); !ok {
		t.Error("shared cache was not updated")
	}
}

func TestEntityService_WorksWithoutRedis(t *testing.T) {
	f := newEntityFixture(t, cache.NewCacheManager(nil))

	students, err := f.svc.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 1 {
		t.Errorf("students = %+v", students)
	}
}

func TestEntityService_CreateTeacher(t *testing.T) {
	tests := []struct {
		name      string
		req       models.CreateTeacherRequest
		gwErr     error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "created",
			req:       models.CreateTeacherRequest{Name: "Mr. Iyer", Email: "iyer@school.test"},
			wantCalls: 1,
		},
		{
			name:      "blank email never reaches the backend",
			req:       models.CreateTeacherRequest{Name: "Mr. Iyer", Email: "  "},
			wantErr:   ErrValidationFailed,
			wantCalls: 0,
		},
		{
			name:      "backend failure",
			req:       models.CreateTeacherRequest{Name: "Mr. Iyer", Email: "iyer@school.test"},
			gwErr:     &gateway.GatewayError{StatusCode: 409, Message: "Email already exists"},
			wantErr:   ErrUpstream,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEntityFixture(t, newRedisCache(t))
			if tt.gwErr != nil {
				f.gw.Fail("CreateTeacher", tt.gwErr)
			}

			teacher, err := f.svc.CreateTeacher(context.Background(), &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if len(f.publisher.GetPublishedEvents()) != 0 {
					t.Error("event published for failed create")
				}
			} else {
				if err != nil {
					t.Fatalf("CreateTeacher: %v", err)
				}
				if _, ok := f.entities.Teacher(teacher.ID); !ok {
					t.Error("created teacher missing from shared cache")
				}
				if got := f.publisher.EventsOfType(events.EventTeacherCreated); len(got) != 1 {
					t.Errorf("teacher.created events = %d", len(got))
				}
			}
			if got := f.gw.Calls("CreateTeacher"); got != tt.wantCalls {
				t.Errorf("gateway calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestEntityService_CreateInvalidatesRedisList(t *testing.T) {
	f := newEntityFixture(t, newRedisCache(t))
	ctx := context.Background()

	if _, err := f.svc.ListStudents(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateStudent(ctx, &models.CreateStudentRequest{Name: "Ravi", Email: "ravi@school.test", RollNumber: "13"}); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if _, err := f.svc.ListStudents(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.gw.Calls("ListStudents"); got != 2 {
		t.Errorf("ListStudents calls = %d, want 2 after invalidation", got)
	}
}

func TestEntityService_DeleteNotFound(t *testing.T) {
	f := newEntityFixture(t, cache.NewCacheManager(nil))
	f.gw.Fail("DeleteStudent", &gateway.GatewayError{StatusCode: 404, Message: "Student not found"})

	err := f.svc.DeleteStudent(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if gateway.MessageOf(err) != "Student not found" {
		t.Errorf("message = %q", gateway.MessageOf(err))
	}
}

func TestEntityService_DeleteRemovesFromSharedCache(t *testing.T) {
	f := newEntityFixture(t, cache.NewCacheManager(nil))
	ctx := context.Background()
	if err := f.svc.Warm(ctx); err != nil {
		t.Fatalf("Warm: %v", err)
	}

	if err := f.svc.DeleteTeacher(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTeacher: %v", err)
	}
	if _, ok := f.entities.Teacher("t1"); ok {
		t.Error("deleted teacher still cached")
	}
	if got := f.publisher.EventsOfType(events.EventTeacherDeleted); len(got) != 1 {
		t.Errorf("teacher.deleted events = %d", len(got))
	}
}

func TestEntityService_WarmLoadsOnce(t *testing.T) {
	f := newEntityFixture(t, cache.NewCacheManager(nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.svc.Warm(ctx); err != nil {
			t.Fatalf("Warm: %v", err)
		}
	}
	if f.gw.Calls("ListTeachers") != 1 || f.gw.Calls("ListStudents") != 1 {
		t.Errorf("calls = %d teachers, %d students", f.gw.Calls("ListTeachers"), f.gw.Calls("ListStudents"))
	}
}

func TestEntityService_StudentStatisticsCached(t *testing.T) {
	f := newEntityFixture(t, newRedisCache(t))
	f.gw.stats = &models.StudentStatistics{TotalEvaluations: 3, AverageMarks: 7.5, AveragePercentage: 75}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		stats, err := f.svc.GetStudentStatistics(ctx, "s1")
		if err != nil {
			t.Fatalf("GetStudentStatistics: %v", err)
		}
		if stats.TotalEvaluations != 3 || stats.AveragePercentage != 75 {
			t.Errorf("stats = %+v", stats)
		}
	}
	if got := f.gw.Calls("GetStudentStatistics"); got != 1 {
		t.Errorf("gateway calls = %d, want 1", got)
	}
}
