package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/evaluation-console/internal/history"
	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
)

type historyOptions struct {
	student  string
	roll     string
	teacher  string
	date     string
	xlsxPath string
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past evaluations",
		Long: `List past evaluations, newest first as the backend returns them.

Filters combine with AND. --date accepts all, today, last-7-days (week)
or last-30-days (month).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.student, "student", "", "Student name contains (case-insensitive)")
	cmd.Flags().StringVar(&opts.roll, "roll", "", "Roll number contains")
	cmd.Flags().StringVar(&opts.teacher, "teacher", history.AllTeachers, "Exact teacher name")
	cmd.Flags().StringVar(&opts.date, "date", string(history.BucketAll), "Date window")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Also export the filtered rows to this XLSX file")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	bucket, err := history.ParseDateBucket(opts.date)
	if err != nil {
		return err
	}
	criteria := history.Criteria{
		StudentName: opts.student,
		RollNumber:  opts.roll,
		Teacher:     opts.teacher,
		Date:        bucket,
	}

	records, err := a.client.ListEvaluations(cmd.Context())
	if err != nil {
		return err
	}
	filtered := history.Filter(records, criteria, time.Now().In(a.cfg.Location))

	out := cmd.OutOrStdout()
	if err := writeHistoryTable(out, filtered, a.cfg.Location); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d evaluations\n", len(filtered), len(records))

	if opts.xlsxPath != "" {
		if err := writeXLSXFile(opts.xlsxPath, filtered, a.cfg.Location); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", opts.xlsxPath)
	}
	return nil
}

func writeHistoryTable(w io.Writer, records []models.EvaluationRecord, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSTUDENT\tROLL\tTEACHER\tMARKS\tPERCENT\tGRADE\tID")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			report.FormatDate(rec.CreatedAt, loc),
			rec.StudentName,
			rec.StudentRollNo,
			rec.TeacherName,
			report.FormatMarks(rec.MarksAwarded, rec.MaxMarks),
			report.FormatPercentage(rec.Percentage, rec.MaxMarks),
			rec.Grade,
			rec.ID)
	}
	return tw.Flush()
}

func writeXLSXFile(path string, records []models.EvaluationRecord, loc *time.Location) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return history.WriteXLSX(f, records, loc)
}

func newReportCmd(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "report <evaluation-id>",
		Short: "Render the printable report of one evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.client.GetEvaluation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				return a.renderer.RenderTo(cmd.OutOrStdout(), *rec)
			}
			doc, err := a.renderer.Render(*rec)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, doc, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
