package report

import (
	"strings"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// Detail is the display form of one evaluation, shared by the history detail
// view and the printable report.
type Detail struct {
	ID            string   `json:"id"`
	StudentName   string   `json:"student_name"`
	RollNumber    string   `json:"roll_number"`
	TeacherName   string   `json:"teacher_name"`
	Date          string   `json:"date"`
	Question      string   `json:"question,omitempty"`
	Marks         string   `json:"marks"`
	Percentage    string   `json:"percentage"`
	Grade         string   `json:"grade"`
	GradeColor    string   `json:"grade_color"`
	Feedback      string   `json:"feedback,omitempty"`
	Strengths     []string `json:"strengths,omitempty"`
	MissingPoints []string `json:"missing_points,omitempty"`
	ModelAnswer   string   `json:"model_answer"`
	StudentAnswer string   `json:"student_answer"`
	ExtractedText string   `json:"extracted_text,omitempty"`
}

// NewDetail builds the display form of rec with dates shown in loc.
func NewDetail(rec models.EvaluationRecord, loc *time.Location) Detail {
	return Detail{
		ID:            rec.ID,
		StudentName:   orNA(rec.StudentName),
		RollNumber:    orNA(rec.StudentRollNo),
		TeacherName:   orNA(rec.TeacherName),
		Date:          FormatDate(rec.CreatedAt, loc),
		Question:      strings.TrimSpace(rec.Question),
		Marks:         FormatMarks(rec.MarksAwarded, rec.MaxMarks),
		Percentage:    FormatPercentage(rec.Percentage, rec.MaxMarks),
		Grade:         orNA(rec.Grade),
		GradeColor:    GradeColor(rec.Grade),
		Feedback:      strings.TrimSpace(rec.Feedback),
		Strengths:     models.NormalizeStatements([]string(rec.Strengths)),
		MissingPoints: models.NormalizeStatements([]string(rec.MissingPoints)),
		ModelAnswer:   DisplayFileRef(rec.ModelAnswer),
		StudentAnswer: DisplayFileRef(rec.StudentAnswer),
		ExtractedText: strings.TrimSpace(rec.ExtractedText),
	}
}
