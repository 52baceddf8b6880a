package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
	"github.com/SAP-F-2025/evaluation-console/internal/workflow"
)

type evaluateOptions struct {
	modelFile   string
	modelText   string
	studentFile string
	maxMarks    int
	teacher     string
	student     string
	question    string
	reportPath  string
}

func newEvaluateCmd(a *app) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one student answer against a model answer",
		Long: `Run the evaluation workflow from start to finish.

The model answer is extracted from --model-file or taken from --model-text.
--teacher and --student accept an id, a name, or for students a roll number.`,
		Example: `  evalctl evaluate --model-file model.pdf --student-file answer.jpg \
    --max-marks 10 --teacher "Ms. Rao" --student 12 --report report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.modelFile, "model-file", "", "Model answer document")
	cmd.Flags().StringVar(&opts.modelText, "model-text", "", "Model answer text")
	cmd.Flags().StringVar(&opts.studentFile, "student-file", "", "Student answer (pdf, png, jpg, jpeg)")
	cmd.Flags().IntVar(&opts.maxMarks, "max-marks", 10, "Maximum marks")
	cmd.Flags().StringVar(&opts.teacher, "teacher", "", "Teacher id or name")
	cmd.Flags().StringVar(&opts.student, "student", "", "Student id, name or roll number")
	cmd.Flags().StringVar(&opts.question, "question", "", "Question text")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write the HTML report to this path")
	cmd.MarkFlagsMutuallyExclusive("model-file", "model-text")
	cmd.MarkFlagsOneRequired("model-file", "model-text")
	_ = cmd.MarkFlagRequired("student-file")
	_ = cmd.MarkFlagRequired("teacher")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func (a *app) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	progress := cmd.ErrOrStderr()

	entities := cache.NewEntityCache()
	if err := entities.Load(ctx, a.client); err != nil {
		return fmt.Errorf("load teachers and students: %w", err)
	}

	ctrl := workflow.NewController(a.client, entities, a.validator, a.logger)
	unsubscribe := ctrl.Subscribe(func(s workflow.Snapshot) {
		fmt.Fprintf(progress, "[step %d] %s\n", s.Step, s.State)
	})
	defer unsubscribe()

	in := workflow.ModelAnswerInput{Text: opts.modelText}
	if opts.modelFile != "" {
		file, err := readFileHandle(opts.modelFile)
		if err != nil {
			return err
		}
		in.File = &file
	}
	if err := ctrl.SubmitModelAnswer(ctx, in); err != nil {
		return fmt.Errorf("model answer: %w", err)
	}

	studentFile, err := readFileHandle(opts.studentFile)
	if err != nil {
		return err
	}
	teacher, err := resolveTeacher(entities, opts.teacher)
	if err != nil {
		return err
	}
	student, err := resolveStudent(entities, opts.student)
	if err != nil {
		return err
	}
	fmt.Fprintf(progress, "Teacher: %s\nStudent: %s\n", teacher.Label(), student.Label())

	steps := []func() error{
		func() error { return ctrl.AttachStudentFile(studentFile) },
		func() error { return ctrl.SetMaxMarks(opts.maxMarks) },
		func() error { return ctrl.SetQuestion(opts.question) },
		func() error { return ctrl.SelectTeacher(teacher.ID) },
		func() error { return ctrl.SelectStudent(student.ID) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	rec, err := ctrl.SubmitEvaluation(ctx)
	if err != nil {
		return err
	}
	printResult(out, *rec)

	if opts.reportPath != "" {
		doc, err := a.renderer.Render(*rec)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		if err := os.WriteFile(opts.reportPath, doc, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "Report written to %s\n", opts.reportPath)
	}
	return nil
}

func printResult(w io.Writer, rec models.EvaluationRecord) {
	fmt.Fprintf(w, "Student:    %s (roll %s)\n", rec.StudentName, rec.StudentRollNo)
	fmt.Fprintf(w, "Teacher:    %s\n", rec.TeacherName)
	fmt.Fprintf(w, "Marks:      %s\n", report.FormatMarks(rec.MarksAwarded, rec.MaxMarks))
	fmt.Fprintf(w, "Percentage: %s\n", report.FormatPercentage(rec.Percentage, rec.MaxMarks))
	fmt.Fprintf(w, "Grade:      %s\n", rec.Grade)
	if rec.Feedback != "" {
		fmt.Fprintf(w, "\n%s\n", rec.Feedback)
	}
	if rec.ID != "" {
		fmt.Fprintf(w, "\nEvaluation id: %s\n", rec.ID)
	}
}

func readFileHandle(path string) (models.FileHandle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.FileHandle{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return models.FileHandle{
		Name:        name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		Content:     content,
	}, nil
}

// resolveTeacher matches by id first, then by case-insensitive name.
func resolveTeacher(entities *cache.EntityCache, ref string) (models.Teacher, error) {
	if t, ok := entities.Teacher(ref); ok {
		return t, nil
	}
	var found []models.Teacher
	for _, t := range entities.Teachers() {
		if strings.EqualFold(t.Name, ref) {
			found = append(found, t)
		}
	}
	return pickOne(found, "teacher", ref, models.Teacher.Label)
}

// resolveStudent matches by id, then roll number, then case-insensitive name.
func resolveStudent(entities *cache.EntityCache, ref string) (models.Student, error) {
	if s, ok := entities.Student(ref); ok {
		return s, nil
	}
	var byRoll, byName []models.Student
	for _, s := range entities.Students() {
		if s.RollNumber != "" && s.RollNumber == ref {
			byRoll = append(byRoll, s)
		}
		if strings.EqualFold(s.Name, ref) {
			byName = append(byName, s)
		}
	}
	if len(byRoll) > 0 {
		return pickOne(byRoll, "student", ref, models.Student.Label)
	}
	return pickOne(byName, "student", ref, models.Student.Label)
}

func pickOne[T any](found []T, kind, ref string, label func(T) string) (T, error) {
	var zero T
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("no %s matches %q", kind, ref)
	case 1:
		return found[0], nil
	default:
		labels := make([]string, len(found))
		for i, f := range found {
			labels[i] = label(f)
		}
		return zero, fmt.Errorf("%q matches %d %ss (%s), use the id", ref, len(found), kind, strings.Join(labels, ", "))
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var modelAnswer bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text recognised in an answer file",
		Long: `Runs text recognition on a PDF or image without scoring it.
With --model-answer the file is processed the way a model answer is on step 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readFileHandle(args[0])
			if err != nil {
				return err
			}
			var text string
			if modelAnswer {
				text, err = a.client.ExtractModelAnswer(cmd.Context(), file)
			} else {
				text, err = a.client.ExtractText(cmd.Context(), file)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&modelAnswer, "model-answer", false, "Extract as a model answer")
	return cmd
}
