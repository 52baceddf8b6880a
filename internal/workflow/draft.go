package workflow

import (
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

// Draft is the in-progress evaluation input for one session.
type Draft struct {
	ModelAnswerText string
	// ModelAnswerSource is the uploaded file name, empty when the text was pasted.
	ModelAnswerSource string
	Question          string
	StudentFile       models.FileHandle
	MaxMarks          int
	TeacherID         string
	StudentID         string
}

// Validate checks everything a submission needs and reports the first field
// missing, in the order the form shows them.
func (d Draft) Validate(v *validator.Validator) error {
	req := d.Request()
	return v.ValidateEvaluationRequest(&req)
}

// Request bundles the draft into the single scoring request.
func (d Draft) Request() models.EvaluationRequest {
	return models.EvaluationRequest{
		StudentFile:     d.StudentFile,
		ModelAnswerText: d.ModelAnswerText,
		MaxMarks:        d.MaxMarks,
		Question:        d.Question,
		TeacherID:       d.TeacherID,
		StudentID:       d.StudentID,
	}
}

// Summary drops the file bytes.
func (d Draft) Summary() DraftSummary {
	return DraftSummary{
		ModelAnswerText:   d.ModelAnswerText,
		ModelAnswerSource: d.ModelAnswerSource,
		Question:          d.Question,
		StudentFileName:   d.StudentFile.Name,
		MaxMarks:          d.MaxMarks,
		TeacherID:         d.TeacherID,
		StudentID:         d.StudentID,
	}
}

// DraftSummary is the part of the draft safe to hand to observers and clients.
type DraftSummary struct {
	ModelAnswerText   string `json:"model_answer_text"`
	ModelAnswerSource string `json:"model_answer_source,omitempty"`
	Question          string `json:"question,omitempty"`
	StudentFileName   string `json:"student_file_name,omitempty"`
	MaxMarks          int    `json:"max_marks,omitempty"`
	TeacherID         string `json:"teacher_id,omitempty"`
	StudentID         string `json:"student_id,omitempty"`
}
