package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

func newApplyCommand(rt *runtime) *cobra.Command {
	var (
		in     domain.ApplyRequest
		resume string
	)
	cmd := &cobra.Command{
		Use:   "apply JOB_ID",
		Short: "Apply for a job (costs credits)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.JobID = args[0]
			if resume != "" {
				f, err := os.Open(resume)
				if err != nil {
					return fmt.Errorf("open resume: %w", err)
				}
				defer f.Close()
				in.Resume = f
				in.ResumeName = filepath.Base(resume)
			}

			app, err := rt.app.Marketplace().Apply(cmd.Context(), in)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), app)
			}
			if app != nil {
				fmt.Fprintf(out(cmd), "Application %s submitted\n", app.ID)
			} else {
				fmt.Fprintln(out(cmd), "Application submitted")
			}
			fmt.Fprintf(out(cmd), "Credits left: %d\n", rt.app.Ledger().Balance())
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "your full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&in.Experience, "experience", "", "teaching experience")
	cmd.Flags().StringVar(&in.CurrentLocation, "location", "", "current location")
	cmd.Flags().StringVar(&in.ExpectedSalary, "salary", "", "expected salary")
	cmd.Flags().StringVar(&resume, "resume", "", "path to a resume file")
	return cmd
}

func newApplicationsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Track applications",
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), domain.RoleTutor); err != nil {
				return err
			}
			apps, err := rt.app.Marketplace().MyApplications(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printApplications(cmd, apps)
		},
	}

	received := &cobra.Command{
		Use:   "received",
		Short: "List applications to your jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			apps, err := rt.app.Marketplace().ReceivedApplications(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printApplications(cmd, apps)
		},
	}

	job := &cobra.Command{
		Use:   "job JOB_ID",
		Short: "List applications to one of your jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			apps, err := rt.app.Marketplace().JobApplications(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.printApplications(cmd, apps)
		},
	}

	status := &cobra.Command{
		Use:   "status APPLICATION_ID STATUS",
		Short: "Set an application's status (pending, shortlisted, rejected, selected)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			st := domain.ApplicationStatus(args[1])
			if err := rt.app.Marketplace().UpdateStatus(cmd.Context(), args[0], st); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Application %s is now %s\n", args[0], st)
			return nil
		},
	}

	for _, c := range []*cobra.Command{mine, received, job} {
		rt.addPageFlags(c)
	}
	cmd.AddCommand(mine, received, job, status)
	return cmd
}

func (rt *runtime) printApplications(cmd *cobra.Command, apps []domain.Application) error {
	return paged(rt, cmd, apps, "applications", func(t *table, a domain.Application) {
		jobTitle, applicant := "-", "-"
		if a.Job != nil {
			jobTitle = a.Job.Title
		}
		if a.Tutor != nil {
			applicant = orDash(a.Tutor.Name)
		}
		applied := "-"
		if !a.CreatedAt.IsZero() {
			applied = a.CreatedAt.Format("2006-01-02")
		}
		t.row(a.ID, jobTitle, applicant, a.Status, applied)
	}, "id", "job", "applicant", "status", "applied")
}
