package models

import "time"

// ===== REQUEST DTOs =====

type CreateTeacherRequest struct {
	Name    string  `json:"name" validate:"notblank,max=100"`
	Email   string  `json:"email" validate:"notblank,max=255"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=100"`
}

type CreateStudentRequest struct {
	Name       string  `json:"name" validate:"notblank,max=100"`
	Email      string  `json:"email" validate:"notblank,max=255"`
	RollNumber string  `json:"roll_number" validate:"max=50"`
	Class      *string `json:"class,omitempty" validate:"omitempty,max=50"`
}

// EvaluationRequest is the single bundle sent to the backend for scoring.
type EvaluationRequest struct {
	StudentFile     FileHandle `json:"-" validate:"-"`
	ModelAnswerText string     `json:"model_answer" validate:"notblank"`
	MaxMarks        int        `json:"max_marks" validate:"gt=0"`
	Question        string     `json:"question,omitempty"`
	TeacherID       string     `json:"teacher_id,omitempty" validate:"required"`
	StudentID       string     `json:"student_id,omitempty" validate:"required"`
}

// ===== ENVELOPES =====

// Envelope is the backend's generic `{"success": ..., "error": ...}` wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
