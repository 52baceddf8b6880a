package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// Renderer turns one evaluation into a self-contained printable HTML page.
// Everything except the footer timestamp depends only on the record.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
	loc  *time.Location
}

type Option func(*Renderer)

// WithClock sets the source of the footer timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLocation sets the zone dates are shown in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) { r.loc = loc }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		tmpl: template.Must(template.New("report").Funcs(templateFuncs).Parse(reportTemplate)),
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Grade colours come from a fixed table, so they can be trusted as CSS.
var templateFuncs = template.FuncMap{
	"safeCSS": func(s string) template.CSS { return template.CSS(s) },
}

type page struct {
	Detail
	GeneratedAt string
}

// Render produces the full document, footer included.
func (r *Renderer) Render(rec models.EvaluationRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) RenderTo(w io.Writer, rec models.EvaluationRecord) error {
	p := page{
		Detail:      NewDetail(rec, r.loc),
		GeneratedAt: r.now().In(r.loc).Format(DateLayout),
	}
	if err := r.tmpl.ExecuteTemplate(w, "document", p); err != nil {
		return fmt.Errorf("render report %s: %w", rec.ID, err)
	}
	return nil
}

// RenderBody renders the record sections only, without the page shell or footer.
func (r *Renderer) RenderBody(rec models.EvaluationRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "body", page{Detail: NewDetail(rec, r.loc)}); err != nil {
		return nil, fmt.Errorf("render report body %s: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

const reportTemplate = `
{{- define "document" -}}
<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Evaluation Report</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 800px; margin: 0 auto; padding: 40px 20px; }
.header { text-align: center; border-bottom: 3px solid #6366f1; padding-bottom: 20px; margin-bottom: 30px; }
.header h1 { font-size: 28px; color: #1f2937; margin-bottom: 5px; }
.header p { color: #6b7280; font-size: 14px; }
.section { margin-bottom: 30px; }
.section h2 { font-size: 18px; color: #1f2937; margin-bottom: 15px; border-left: 4px solid #6366f1; padding-left: 10px; }
.info-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 15px; margin-bottom: 20px; }
.info-item { background: #f9fafb; padding: 12px; border-radius: 6px; }
.info-item .label { display: block; font-weight: bold; color: #6366f1; font-size: 12px; margin-bottom: 5px; }
.info-item .value { display: block; font-size: 14px; color: #374151; }
.results-grid { display: grid; grid-template-columns: 1fr 1fr 1fr; gap: 15px; margin-bottom: 20px; }
.result-card { background: #6366f1; color: white; padding: 20px; border-radius: 8px; text-align: center; }
.result-label { font-size: 12px; opacity: 0.9; margin-bottom: 8px; }
.result-value { font-size: 24px; font-weight: bold; }
.feedback-box { background: #f0f9ff; border-left: 4px solid #0ea5e9; padding: 15px; border-radius: 6px; font-size: 14px; }
.points-list { list-style: none; padding: 0; }
.points-list li { padding: 10px 0 10px 20px; position: relative; font-size: 14px; }
.points-list li:before { content: "\2713"; position: absolute; left: 0; color: #10b981; font-weight: bold; }
.improvements li:before { content: "\2192"; color: #f59e0b; }
.file-info { background: #f3f4f6; padding: 12px; border-radius: 6px; font-size: 14px; margin: 10px 0; }
.footer { text-align: center; margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #9ca3af; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Evaluation Report</h1>
<p>AI Examiner - Assessment Result</p>
</div>
{{template "body" .}}
<footer class="footer">
<p>Generated on {{.GeneratedAt}}</p>
<p>AI Examiner - Automated Assessment System</p>
</footer>
</div>
</body>
</html>
{{end}}

{{- define "body" -}}
<section class="section">
<h2>Student Information</h2>
<div class="info-grid">
<div class="info-item"><span class="label">Student Name</span><span class="value">{{.StudentName}}</span></div>
<div class="info-item"><span class="label">Roll Number</span><span class="value">{{.RollNumber}}</span></div>
<div class="info-item"><span class="label">Teacher</span><span class="value">{{.TeacherName}}</span></div>
<div class="info-item"><span class="label">Date</span><span class="value">{{.Date}}</span></div>
</div>
</section>
{{- if .Question}}
<section class="section">
<h2>Question</h2>
<div class="file-info">{{.Question}}</div>
</section>
{{- end}}
<section class="section">
<h2>Evaluation Results</h2>
<div class="results-grid">
<div class="result-card"><div class="result-label">Marks Obtained</div><div class="result-value">{{.Marks}}</div></div>
<div class="result-card"><div class="result-label">Percentage</div><div class="result-value">{{.Percentage}}</div></div>
<div class="result-card" style="background: {{.GradeColor | safeCSS}}"><div class="result-label">Grade</div><div class="result-value">{{.Grade}}</div></div>
</div>
</section>
{{- if .Feedback}}
<section class="section">
<h2>Feedback</h2>
<div class="feedback-box">{{.Feedback}}</div>
</section>
{{- end}}
{{- if .Strengths}}
<section class="section">
<h2>Strengths</h2>
<ul class="points-list">
{{- range .Strengths}}
<li>{{.}}</li>
{{- end}}
</ul>
</section>
{{- end}}
{{- if .MissingPoints}}
<section class="section">
<h2>Areas for Improvement</h2>
<ul class="points-list improvements">
{{- range .MissingPoints}}
<li>{{.}}</li>
{{- end}}
</ul>
</section>
{{- end}}
<section class="section">
<h2>Answer Files</h2>
<div class="file-info"><strong>Model Answer:</strong> {{.ModelAnswer}}</div>
<div class="file-info"><strong>Student Answer:</strong> {{.StudentAnswer}}</div>
</section>
{{end}}
`
