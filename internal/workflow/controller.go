package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/metrics"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

// Backend is the slice of the gateway the workflow calls.
type Backend interface {
	ExtractModelAnswer(ctx context.Context, file models.FileHandle) (string, error)
	SubmitEvaluation(ctx context.Context, req models.EvaluationRequest) (*models.EvaluationRecord, error)
	CreateTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error)
	CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
}

// ModelAnswerInput carries either an uploaded file or pasted text. File wins
// when both are set.
type ModelAnswerInput struct {
	File *models.FileHandle
	Text string
}

// Snapshot is an immutable view of a session after a committed transition.
type Snapshot struct {
	Revision   uint64                   `json:"revision"`
	Generation uint64                   `json:"generation"`
	State      State                    `json:"state"`
	Step       int                      `json:"step"`
	Draft      DraftSummary             `json:"draft"`
	Teachers   []models.Teacher         `json:"teachers"`
	Students   []models.Student         `json:"students"`
	Result     *models.EvaluationRecord `json:"result,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// Observer receives snapshots in revision order. It runs on the goroutine that
// committed the transition and must not call mutating Controller methods.
type Observer func(Snapshot)

// Controller drives one evaluation session. All methods are safe for
// concurrent use; backend calls run without holding the session lock.
type Controller struct {
	backend   Backend
	entities  *cache.EntityCache
	validator *validator.Validator
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	draft      Draft
	result     *models.EvaluationRecord
	lastErr    string
	generation uint64
	revision   uint64

	notifyMu     sync.Mutex
	delivered    uint64
	observers    map[int]Observer
	nextObserver int
}

func NewController(backend Backend, entities *cache.EntityCache, v *validator.Validator, logger *slog.Logger) *Controller {
	if entities == nil {
		entities = cache.NewEntityCache()
	}
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend:   backend,
		entities:  entities,
		validator: v,
		logger:    logger,
		state:     AwaitingModelAnswer,
		observers: map[int]Observer{},
	}
}

// Subscribe registers fn for every future snapshot and returns a function that removes it.
func (c *Controller) Subscribe(fn Observer) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State is a shortcut for Snapshot().State.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns a copy of the completed evaluation, or nil.
func (c *Controller) Result() *models.EvaluationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	rec := *c.result
	return &rec
}

// SubmitModelAnswer takes the reference answer. Pasted text advances without a
// network call; a file is sent for extraction first.
func (c *Controller) SubmitModelAnswer(ctx context.Context, in ModelAnswerInput) error {
	const op = "submit_model_answer"

	if in.File == nil {
		c.mu.Lock()
		if c.state != AwaitingModelAnswer {
			defer c.mu.Unlock()
			return &TransitionError{Op: op, State: c.state}
		}
		if strings.TrimSpace(in.Text) == "" {
			err := missing("model_answer", "Please enter model answer")
			c.lastErr = err[0].Message
			c.unlockAndNotify()
			return err
		}
		c.draft.ModelAnswerText = in.Text
		c.draft.ModelAnswerSource = ""
		c.lastErr = ""
		c.transitionLocked(AwaitingStudentAnswer)
		c.unlockAndNotify()
		return nil
	}

	c.mu.Lock()
	if c.state != AwaitingModelAnswer {
		defer c.mu.Unlock()
		return &TransitionError{Op: op, State: c.state}
	}
	if !in.File.Present() {
		err := missing("model_answer_file", "Please choose a model answer file")
		c.lastErr = err[0].Message
		c.unlockAndNotify()
		return err
	}
	gen := c.generation
	file := *in.File
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Extracting model answer", "file", file.Name)
	text, err := c.backend.ExtractModelAnswer(ctx, file)

	c.mu.Lock()
	if gen != c.generation || c.state != AwaitingModelAnswer {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Discarding stale model answer extraction", "file", file.Name)
		return ErrStaleResult
	}
	if err != nil {
		c.lastErr = gateway.MessageOf(err)
		c.unlockAndNotify()
		c.logger.WarnContext(ctx, "Model answer extraction failed", "file", file.Name, "error", err)
		return fmt.Errorf("extract model answer: %w", err)
	}
	c.draft.ModelAnswerText = text
	c.draft.ModelAnswerSource = file.Name
	c.lastErr = ""
	c.transitionLocked(AwaitingStudentAnswer)
	c.unlockAndNotify()
	return nil
}

// Back returns from the student-answer step to the model-answer step, keeping the draft.
func (c *Controller) Back() error {
	c.mu.Lock()
	if c.state != AwaitingStudentAnswer {
		defer c.mu.Unlock()
		return &TransitionError{Op: "back", State: c.state}
	}
	c.lastErr = ""
	c.transitionLocked(AwaitingModelAnswer)
	c.unlockAndNotify()
	return nil
}

// AttachStudentFile sets the student answer file. Only presence is checked;
// the backend decides whether the type is acceptable.
func (c *Controller) AttachStudentFile(file models.FileHandle) error {
	return c.editDraft("attach_student_file", func(d *Draft) error {
		if !file.Present() {
			return missing("student_file", "Please upload a student answer file")
		}
		d.StudentFile = file
		return nil
	})
}

func (c *Controller) SetMaxMarks(n int) error {
	return c.editDraft("set_max_marks", func(d *Draft) error {
		if n <= 0 {
			return validator.ValidationErrors{{Field: "max_marks", Message: "must be greater than 0", Value: n, Rule: "gt"}}
		}
		d.MaxMarks = n
		return nil
	})
}

func (c *Controller) SetQuestion(q string) error {
	return c.editDraft("set_question", func(d *Draft) error {
		d.Question = q
		return nil
	})
}

// SelectTeacher selects a cached teacher. An empty id clears the selection.
func (c *Controller) SelectTeacher(id string) error {
	return c.editDraft("select_teacher", func(d *Draft) error {
		if id != "" {
			if _, ok := c.entities.Teacher(id); !ok {
				return validator.ValidationErrors{{Field: "teacher_id", Message: "Unknown teacher", Value: id, Rule: "exists"}}
			}
		}
		d.TeacherID = id
		return nil
	})
}

// SelectStudent selects a cached student. An empty id clears the selection.
func (c *Controller) SelectStudent(id string) error {
	return c.editDraft("select_student", func(d *Draft) error {
		if id != "" {
			if _, ok := c.entities.Student(id); !ok {
				return validator.ValidationErrors{{Field: "student_id", Message: "Unknown student", Value: id, Rule: "exists"}}
			}
		}
		d.StudentID = id
		return nil
	})
}

// CreateTeacherInline creates a teacher on the backend, then adds it to the
// entity cache and selects it in one transition. If the session was reset or
// moved on meanwhile, the teacher is still cached but not selected and
// ErrStaleResult is returned with it.
func (c *Controller) CreateTeacherInline(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error) {
	const op = "create_teacher_inline"

	gen, err := c.beginInlineCreate(op, func() error { return c.validator.ValidateCreateTeacher(&req) })
	if err != nil {
		return nil, err
	}

	teacher, err := c.backend.CreateTeacher(ctx, req)
	if err != nil {
		c.recordInlineFailure(gen, err)
		c.logger.WarnContext(ctx, "Inline teacher creation failed", "error", err)
		return nil, fmt.Errorf("create teacher: %w", err)
	}

	c.mu.Lock()
	c.entities.AddTeacher(*teacher)
	if gen != c.generation || !c.state.editable() {
		c.unlockAndNotify()
		return teacher, ErrStaleResult
	}
	c.draft.TeacherID = teacher.ID
	c.lastErr = ""
	c.unlockAndNotify()

	c.logger.InfoContext(ctx, "Teacher created inline", "teacher_id", teacher.ID)
	return teacher, nil
}

// CreateStudentInline is the student counterpart of CreateTeacherInline.
func (c *Controller) CreateStudentInline(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	const op = "create_student_inline"

	gen, err := c.beginInlineCreate(op, func() error { return c.validator.ValidateCreateStudent(&req) })
	if err != nil {
		return nil, err
	}

	student, err := c.backend.CreateStudent(ctx, req)
	if err != nil {
		c.recordInlineFailure(gen, err)
		c.logger.WarnContext(ctx, "Inline student creation failed", "error", err)
		return nil, fmt.Errorf("create student: %w", err)
	}

	c.mu.Lock()
	c.entities.AddStudent(*student)
	if gen != c.generation || !c.state.editable() {
		c.unlockAndNotify()
		return student, ErrStaleResult
	}
	c.draft.StudentID = student.ID
	c.lastErr = ""
	c.unlockAndNotify()

	c.logger.InfoContext(ctx, "Student created inline", "student_id", student.ID)
	return student, nil
}

// SubmitEvaluation sends the draft for scoring. Only one submission may be in
// flight; a concurrent call gets ErrSubmissionInFlight without a network call.
func (c *Controller) SubmitEvaluation(ctx context.Context) (*models.EvaluationRecord, error) {
	const op = "submit_evaluation"

	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		metrics.ObserveSubmission("rejected")
		return nil, ErrSubmissionInFlight
	case AwaitingStudentAnswer:
	default:
		defer c.mu.Unlock()
		return nil, &TransitionError{Op: op, State: c.state}
	}
	if err := c.draft.Validate(c.validator); err != nil {
		if ve, ok := validator.AsValidationErrors(err); ok && len(ve) > 0 {
			c.lastErr = ve[0].Message
		}
		c.unlockAndNotify()
		metrics.ObserveSubmission("invalid")
		return nil, err
	}
	gen := c.generation
	draft := c.draft
	c.lastErr = ""
	c.transitionLocked(Submitting)
	c.unlockAndNotify()

	c.logger.InfoContext(ctx, "Submitting evaluation",
		"teacher_id", draft.TeacherID,
		"student_id", draft.StudentID,
		"max_marks", draft.MaxMarks)
	rec, err := c.backend.SubmitEvaluation(ctx, draft.Request())

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		metrics.ObserveSubmission("stale")
		c.logger.DebugContext(ctx, "Discarding stale evaluation result")
		return nil, ErrStaleResult
	}
	if err != nil {
		c.lastErr = gateway.MessageOf(err)
		c.transitionLocked(AwaitingStudentAnswer)
		c.unlockAndNotify()
		metrics.ObserveSubmission("failure")
		c.logger.WarnContext(ctx, "Evaluation failed", "error", err)
		return nil, fmt.Errorf("submit evaluation: %w", err)
	}

	completed := c.completeRecord(*rec, draft)
	c.result = &completed
	c.draft = Draft{}
	c.transitionLocked(Complete)
	c.unlockAndNotify()
	metrics.ObserveSubmission("success")

	out := completed
	return &out, nil
}

// Reset discards the draft and any result and starts over. Responses to calls
// made before the reset are dropped when they arrive.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.draft = Draft{}
	c.result = nil
	c.lastErr = ""
	c.transitionLocked(AwaitingModelAnswer)
	c.unlockAndNotify()
}

// completeRecord fills in what the client knows and the backend may leave out.
func (c *Controller) completeRecord(rec models.EvaluationRecord, d Draft) models.EvaluationRecord {
	rec = rec.WithMaxMarks(d.MaxMarks)
	if rec.TeacherID == "" {
		rec.TeacherID = d.TeacherID
	}
	if rec.StudentID == "" {
		rec.StudentID = d.StudentID
	}
	if rec.TeacherName == "" {
		if t, ok := c.entities.Teacher(d.TeacherID); ok {
			rec.TeacherName = t.Name
		}
	}
	if s, ok := c.entities.Student(d.StudentID); ok {
		if rec.StudentName == "" {
			rec.StudentName = s.Name
		}
		if rec.StudentRollNo == "" {
			rec.StudentRollNo = s.RollNumber
		}
	}
	if rec.Question == "" {
		rec.Question = d.Question
	}
	if rec.ModelAnswer == "" {
		if d.ModelAnswerSource != "" {
			rec.ModelAnswer = d.ModelAnswerSource
		} else {
			rec.ModelAnswer = d.ModelAnswerText
		}
	}
	if rec.StudentAnswer == "" {
		rec.StudentAnswer = d.StudentFile.Name
	}
	return rec
}

func (c *Controller) editDraft(op string, fn func(d *Draft) error) error {
	c.mu.Lock()
	if !c.state.editable() {
		defer c.mu.Unlock()
		return &TransitionError{Op: op, State: c.state}
	}
	next := c.draft
	if err := fn(&next); err != nil {
		if ve, ok := validator.AsValidationErrors(err); ok && len(ve) > 0 {
			c.lastErr = ve[0].Message
		}
		c.unlockAndNotify()
		return err
	}
	c.draft = next
	c.lastErr = ""
	c.unlockAndNotify()
	return nil
}

func (c *Controller) beginInlineCreate(op string, validate func() error) (uint64, error) {
	c.mu.Lock()
	if !c.state.editable() {
		defer c.mu.Unlock()
		return 0, &TransitionError{Op: op, State: c.state}
	}
	if err := validate(); err != nil {
		c.lastErr = inlineCreateMessage(err)
		c.unlockAndNotify()
		return 0, err
	}
	gen := c.generation
	c.mu.Unlock()
	return gen, nil
}

// inlineCreateMessage names the failing field unless name or email is simply missing.
func inlineCreateMessage(err error) string {
	ve, ok := validator.AsValidationErrors(err)
	if !ok || len(ve) == 0 || ve[0].Rule == "notblank" || ve[0].Rule == "required" {
		return "Name and email are required"
	}
	return ve[0].Field + " " + ve[0].Message
}

func (c *Controller) recordInlineFailure(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.lastErr = gateway.MessageOf(err)
	c.unlockAndNotify()
}

func (c *Controller) transitionLocked(to State) {
	from := c.state
	c.state = to
	if from != to {
		metrics.ObserveTransition(from.String(), to.String())
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Revision:   c.revision,
		Generation: c.generation,
		State:      c.state,
		Step:       c.state.Step(),
		Draft:      c.draft.Summary(),
		Teachers:   c.entities.Teachers(),
		Students:   c.entities.Students(),
		Error:      c.lastErr,
	}
	if c.result != nil {
		rec := *c.result
		snap.Result = &rec
	}
	return snap
}

// unlockAndNotify commits the pending change as a new revision, releases the
// session lock and delivers the snapshot unless a newer one went out first.
func (c *Controller) unlockAndNotify() {
	c.revision++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Revision <= c.delivered {
		return
	}
	c.delivered = snap.Revision
	for _, fn := range c.observers {
		fn(snap)
	}
}
