package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "evaluation-console"
	EventVersion = "1.0"
	DefaultTopic = "evaluation-console.events"
)

// Event types
const (
	EventEvaluationCompleted = "evaluation.completed"
	EventEvaluationFailed    = "evaluation.failed"
	EventEvaluationDeleted   = "evaluation.deleted"
	EventTeacherCreated      = "teacher.created"
	EventTeacherDeleted      = "teacher.deleted"
	EventStudentCreated      = "student.created"
	EventStudentDeleted      = "student.deleted"
)

type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent stamps an event of the given type with a fresh ID and marshals data into it.
func NewEvent(eventType string, data interface{}) (Event, error) {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s event data: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Decode unmarshals the event payload into dest.
func (e Event) Decode(dest interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s event has no data", e.Type)
	}
	return json.Unmarshal(e.Data, dest)
}

type EvaluationCompletedData struct {
	EvaluationID string   `json:"evaluation_id,omitempty"`
	SessionID    string   `json:"session_id"`
	TeacherID    string   `json:"teacher_id"`
	StudentID    string   `json:"student_id"`
	Grade        string   `json:"grade,omitempty"`
	Percentage   *float64 `json:"percentage,omitempty"`
	MaxMarks     int      `json:"max_marks"`
}

type EvaluationFailedData struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type EvaluationDeletedData struct {
	EvaluationID string `json:"evaluation_id"`
}

type EntityData struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// EventPublisher is what services depend on.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// HandlerFunc consumes one event. A returned error is logged and the event is dropped.
type HandlerFunc func(ctx context.Context, event Event) error
