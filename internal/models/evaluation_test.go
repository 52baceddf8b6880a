package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeStatements(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want StatementList
	}{
		{name: "newline string drops empty lines", raw: "a\nb\n\nc", want: StatementList{"a", "b", "c"}},
		{name: "array is identity", raw: []string{"a", "b"}, want: StatementList{"a", "b"}},
		{name: "decoded json array", raw: []interface{}{"a", " b "}, want: StatementList{"a", "b"}},
		{name: "crlf separators", raw: "one\r\ntwo\r\n", want: StatementList{"one", "two"}},
		{name: "blank string", raw: "  \n ", want: nil},
		{name: "nil", raw: nil, want: nil},
		{name: "unsupported shape", raw: 42.0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStatements(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeStatements(%v) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEvaluationRecord_UnmarshalStoredShape(t *testing.T) {
	// Shape of a stored record as listed by GET /evaluations.
	data := []byte(`{
		"_id": "65f0c0ffee",
		"teacher_id": "t1",
		"teacher_name": "Ms. Rao",
		"student_id": "s1",
		"student_name": "Arjun",
		"student_rollno": 42,
		"model_answer": "Water boils at 100C",
		"student_answer": "answer.pdf",
		"max_marks": 10,
		"marks": 7,
		"percentage": 70,
		"grade": "B",
		"strengths": "Correct boiling point\n\nClear units",
		"missing_points": ["Pressure dependence"],
		"feedback": "Good",
		"created_at": "Sat, 17 Oct 2026 09:30:00 GMT"
	}`)

	var rec EvaluationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if rec.ID != "65f0c0ffee" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.StudentRollNo != "42" {
		t.Errorf("StudentRollNo = %q, want 42", rec.StudentRollNo)
	}
	if rec.MarksAwarded == nil || *rec.MarksAwarded != 7 {
		t.Errorf("MarksAwarded = %v, want 7 from the marks fallback", rec.MarksAwarded)
	}
	if rec.MaxMarks == nil || *rec.MaxMarks != 10 {
		t.Errorf("MaxMarks = %v, want 10", rec.MaxMarks)
	}
	if !reflect.DeepEqual(rec.Strengths, StatementList{"Correct boiling point", "Clear units"}) {
		t.Errorf("Strengths = %#v", rec.Strengths)
	}
	want := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	if rec.CreatedAt == nil || !rec.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
}

func TestEvaluationRecord_UnmarshalEvaluateResponse(t *testing.T) {
	// Shape of the "evaluation" object returned by POST /evaluate-answer.
	data := []byte(`{"evaluation_id": "e9", "marks_awarded": "7.5", "percentage": 75, "grade": "B+"}`)

	var rec EvaluationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID != "e9" {
		t.Errorf("ID = %q, want e9", rec.ID)
	}
	if rec.MarksAwarded == nil || *rec.MarksAwarded != 7.5 {
		t.Errorf("MarksAwarded = %v, want 7.5", rec.MarksAwarded)
	}
	if rec.MaxMarks != nil {
		t.Errorf("MaxMarks = %v, want nil when absent", *rec.MaxMarks)
	}
	if rec.CreatedAt != nil {
		t.Errorf("CreatedAt = %v, want nil", rec.CreatedAt)
	}
}

func TestEvaluationRecord_DateFallbackAndBadTimestamp(t *testing.T) {
	var rec EvaluationRecord
	if err := json.Unmarshal([]byte(`{"_id":"x","created_at":"not a date","date":"2026-10-01T08:00:00"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	if rec.CreatedAt == nil || !rec.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
}

func TestEvaluationRecord_RoundTrip(t *testing.T) {
	marks := 7.0
	pct := 70.0
	created := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	in := EvaluationRecord{
		ID:           "e1",
		StudentName:  "Arjun",
		MarksAwarded: &marks,
		Percentage:   &pct,
		Grade:        "B",
		Strengths:    StatementList{"a", "b"},
		CreatedAt:    &created,
	}.WithMaxMarks(10)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out EvaluationRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in.Strengths, out.Strengths) || *out.MaxMarks != 10 || !out.CreatedAt.Equal(created) {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestFileHandle_HasAllowedStudentType(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"answer.pdf", true},
		{"scan.JPEG", true},
		{"photo.png", true},
		{"notes.docx", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (FileHandle{Name: tt.name}).HasAllowedStudentType(); got != tt.want {
				t.Errorf("HasAllowedStudentType(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
