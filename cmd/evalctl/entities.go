package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
)

// ===== TEACHERS =====

func newTeachersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teachers",
		Short: "Manage teachers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List teachers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teachers, err := a.client.ListTeachers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSUBJECT")
			for _, t := range teachers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Email, orDash(t.Subject))
			}
			return tw.Flush()
		},
	}

	var req models.CreateTeacherRequest
	var subject string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject != "" {
				req.Subject = &subject
			}
			if err := a.validator.ValidateCreateTeacher(&req); err != nil {
				return err
			}
			teacher, err := a.client.CreateTeacher(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created teacher %s (%s)\n", teacher.Name, teacher.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Name, "name", "", "Teacher name")
	addCmd.Flags().StringVar(&req.Email, "email", "", "Teacher email")
	addCmd.Flags().StringVar(&subject, "subject", "", "Subject taught")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteTeacher(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted teacher %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd)
	return cmd
}

// ===== STUDENTS =====

func newStudentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage students",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := a.client.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLL\tEMAIL\tCLASS")
			for _, s := range students {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.RollNumber, s.Email, orDash(s.Class))
			}
			return tw.Flush()
		},
	}

	var req models.CreateStudentRequest
	var class string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if class != "" {
				req.Class = &class
			}
			if err := a.validator.ValidateCreateStudent(&req); err != nil {
				return err
			}
			student, err := a.client.CreateStudent(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created student %s (%s)\n", student.Name, student.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Name, "name", "", "Student name")
	addCmd.Flags().StringVar(&req.Email, "email", "", "Student email")
	addCmd.Flags().StringVar(&req.RollNumber, "roll", "", "Roll number")
	addCmd.Flags().StringVar(&class, "class", "", "Class")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteStudent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %s\n", args[0])
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show a student's evaluation statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client.GetStudentStatistics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Evaluations:        %d\n", stats.TotalEvaluations)
			fmt.Fprintf(out, "Average marks:      %s\n", report.FormatNumber(stats.AverageMarks))
			fmt.Fprintf(out, "Average percentage: %s%%\n", report.FormatNumber(stats.AveragePercentage))
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd, statsCmd)
	return cmd
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
