package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api/"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_SubmitEvaluation_SendsForm(t *testing.T) {
	var got map[string]string
	var gotFile string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/evaluate-answer" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		_, header, err := r.FormFile("student_file")
		if err != nil {
			t.Fatalf("student_file: %v", err)
		}
		gotFile = header.Filename
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success": true, "evaluation": {"marks_awarded": 7, "percentage": 70, "grade": "B", "evaluation_id": "e1"}}`)
	})

	rec, err := client.SubmitEvaluation(context.Background(), models.EvaluationRequest{
		StudentFile:     models.FileHandle{Name: "answer.pdf", Content: []byte("%PDF-1.4")},
		ModelAnswerText: "Water boils at 100C",
		MaxMarks:        10,
		TeacherID:       "T1",
		StudentID:       "S1",
	})
	if err != nil {
		t.Fatalf("SubmitEvaluation: %v", err)
	}

	want := map[string]string{
		"model_answer": "Water boils at 100C",
		"max_marks":    "10",
		"teacher_id":   "T1",
		"student_id":   "S1",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["question"]; ok {
		t.Errorf("empty question should not be sent")
	}
	if gotFile != "answer.pdf" {
		t.Errorf("filename = %q", gotFile)
	}
	if rec.ID != "e1" || rec.Grade != "B" || *rec.MarksAwarded != 7 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantStatus int
	}{
		{name: "backend message", status: 400, body: `{"error": "Teacher with this email already exists"}`, wantMsg: "Teacher with this email already exists", wantStatus: 400},
		{name: "no message", status: 500, body: `<html>boom</html>`, wantMsg: GenericErrorMessage, wantStatus: 500},
		{name: "message key", status: 404, body: `{"message": "Evaluation not found"}`, wantMsg: "Evaluation not found", wantStatus: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.CreateTeacher(context.Background(), models.CreateTeacherRequest{Name: "a", Email: "b"})
			var gwErr *GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected GatewayError, got %v", err)
			}
			if gwErr.Message != tt.wantMsg || gwErr.StatusCode != tt.wantStatus {
				t.Errorf("got (%d, %q), want (%d, %q)", gwErr.StatusCode, gwErr.Message, tt.wantStatus, tt.wantMsg)
			}
			if MessageOf(err) != tt.wantMsg {
				t.Errorf("MessageOf = %q", MessageOf(err))
			}
		})
	}
}

func TestClient_TimeoutIsGatewayError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := client.ExtractModelAnswer(context.Background(), models.FileHandle{Name: "model.pdf", Content: []byte("x")})

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Message != TimeoutErrorMessage {
		t.Errorf("message = %q, want timeout message", gwErr.Message)
	}
}

func TestClient_ListEvaluationsShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bare array", body: `[{"_id":"1"},{"_id":"2"}]`, want: 2},
		{name: "envelope", body: `{"success":true,"evaluations":[{"_id":"1"}],"count":1}`, want: 1},
		{name: "empty array", body: `[]`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			got, err := client.ListEvaluations(context.Background())
			if err != nil {
				t.Fatalf("ListEvaluations: %v", err)
			}
			if got == nil || len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestClient_ListTeachers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/teachers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"success":true,"teachers":[{"_id":"t1","name":"Ms. Rao","email":"rao@x","subject":"Physics"}],"count":1}`)
	})

	teachers, err := client.ListTeachers(context.Background())
	if err != nil {
		t.Fatalf("ListTeachers: %v", err)
	}
	if len(teachers) != 1 || teachers[0].Label() != "Ms. Rao (Physics)" {
		t.Errorf("unexpected teachers %+v", teachers)
	}
}
