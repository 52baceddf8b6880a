package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EvaluationRecord is a scored evaluation as returned by the backend. The console
// only displays it: percentage and grade are never recomputed here.
type EvaluationRecord struct {
	ID            string        `json:"_id,omitempty"`
	TeacherID     string        `json:"teacher_id,omitempty"`
	TeacherName   string        `json:"teacher_name,omitempty"`
	StudentID     string        `json:"student_id,omitempty"`
	StudentName   string        `json:"student_name,omitempty"`
	StudentRollNo string        `json:"student_rollno,omitempty"`
	Question      string        `json:"question,omitempty"`
	MarksAwarded  *float64      `json:"marks_awarded,omitempty"`
	MaxMarks      *int          `json:"max_marks,omitempty"`
	Percentage    *float64      `json:"percentage,omitempty"`
	Grade         string        `json:"grade,omitempty"`
	Feedback      string        `json:"feedback,omitempty"`
	Strengths     StatementList `json:"strengths,omitempty"`
	MissingPoints StatementList `json:"missing_points,omitempty"`
	ModelAnswer   string        `json:"model_answer,omitempty"`
	StudentAnswer string        `json:"student_answer,omitempty"`
	ExtractedText string        `json:"extracted_text,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
}

// wireEvaluation captures every field shape the backend has been seen to send.
type wireEvaluation struct {
	ID            string          `json:"_id"`
	AltID         string          `json:"id"`
	EvaluationID  string          `json:"evaluation_id"`
	TeacherID     string          `json:"teacher_id"`
	TeacherName   string          `json:"teacher_name"`
	StudentID     string          `json:"student_id"`
	StudentName   string          `json:"student_name"`
	StudentRollNo json.RawMessage `json:"student_rollno"`
	Question      string          `json:"question"`
	MarksAwarded  json.RawMessage `json:"marks_awarded"`
	Marks         json.RawMessage `json:"marks"`
	MaxMarks      json.RawMessage `json:"max_marks"`
	Percentage    json.RawMessage `json:"percentage"`
	Grade         string          `json:"grade"`
	Feedback      string          `json:"feedback"`
	Strengths     StatementList   `json:"strengths"`
	MissingPoints StatementList   `json:"missing_points"`
	ModelAnswer   string          `json:"model_answer"`
	StudentAnswer string          `json:"student_answer"`
	ExtractedText string          `json:"extracted_text"`
	CreatedAt     json.RawMessage `json:"created_at"`
	Date          json.RawMessage `json:"date"`
}

func (r *EvaluationRecord) UnmarshalJSON(data []byte) error {
	var w wireEvaluation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	rec := EvaluationRecord{
		ID:            firstNonEmpty(w.ID, w.EvaluationID, w.AltID),
		TeacherID:     w.TeacherID,
		TeacherName:   w.TeacherName,
		StudentID:     w.StudentID,
		StudentName:   w.StudentName,
		Question:      w.Question,
		Grade:         w.Grade,
		Feedback:      w.Feedback,
		Strengths:     w.Strengths,
		MissingPoints: w.MissingPoints,
		ModelAnswer:   w.ModelAnswer,
		StudentAnswer: w.StudentAnswer,
		ExtractedText: w.ExtractedText,
	}

	var err error
	if rec.StudentRollNo, err = rawText(w.StudentRollNo); err != nil {
		return fmt.Errorf("student_rollno: %w", err)
	}

	if rec.MarksAwarded, err = rawNumber(w.MarksAwarded); err != nil {
		return fmt.Errorf("marks_awarded: %w", err)
	}
	if rec.MarksAwarded == nil {
		if rec.MarksAwarded, err = rawNumber(w.Marks); err != nil {
			return fmt.Errorf("marks: %w", err)
		}
	}

	maxMarks, err := rawNumber(w.MaxMarks)
	if err != nil {
		return fmt.Errorf("max_marks: %w", err)
	}
	if maxMarks != nil {
		m := int(*maxMarks)
		rec.MaxMarks = &m
	}

	if rec.Percentage, err = rawNumber(w.Percentage); err != nil {
		return fmt.Errorf("percentage: %w", err)
	}

	// An unreadable timestamp is dropped rather than failing the whole record.
	createdAt := rawTime(w.CreatedAt)
	if createdAt == nil {
		createdAt = rawTime(w.Date)
	}
	rec.CreatedAt = createdAt

	*r = rec
	return nil
}

// WithMaxMarks returns a copy carrying the client-known maximum marks.
func (r EvaluationRecord) WithMaxMarks(maxMarks int) EvaluationRecord {
	m := maxMarks
	r.MaxMarks = &m
	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// rawText accepts a JSON string or number and returns its text form.
func rawText(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// rawNumber accepts a JSON number or numeric string. Blank strings count as absent.
func rawNumber(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func rawTime(raw json.RawMessage) *time.Time {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return &t
}
