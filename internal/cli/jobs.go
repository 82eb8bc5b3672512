package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

// Roles that post jobs and review applications. Parents appear as job
// posters in the feed but have no posting or review screens of their own.
var posterRoles = []domain.Role{domain.RoleInstitute}

func newJobsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse and manage tutoring jobs",
	}
	cmd.AddCommand(
		newJobsListCommand(rt),
		newJobsShowCommand(rt),
		newJobsMineCommand(rt),
		newJobsPostCommand(rt),
		newJobsDeleteCommand(rt),
	)
	return cmd
}

func newJobsListCommand(rt *runtime) *cobra.Command {
	var f domain.JobFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search the public job feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := rt.app.Marketplace().ListJobs(cmd.Context(), f)
			if err != nil {
				return err
			}
			return rt.printJobs(cmd, jobs)
		},
	}
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "free-text search")
	cmd.Flags().StringVar(&f.Subject, "subject", domain.AllSubjects, "subject filter")
	cmd.Flags().StringVar(&f.Location, "location", "", "location filter")
	rt.addPageFlags(cmd)
	return cmd
}

func newJobsShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := rt.app.Marketplace().GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), job)
			}
			t := newTable(out(cmd), "field", "value")
			t.row("id", job.ID)
			t.row("title", job.Title)
			t.row("posted by", job.PosterName())
			t.row("location", orDash(job.Location))
			t.row("type", orDash(job.JobType))
			if job.Salary > 0 {
				t.row("salary", job.Salary)
			}
			t.row("status", orDash(job.Status))
			t.row("description", orDash(job.Description))
			return t.flush()
		},
	}
}

func newJobsMineCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the jobs you posted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			jobs, err := rt.app.Marketplace().MyJobs(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printJobs(cmd, jobs)
		},
	}
	rt.addPageFlags(cmd)
	return cmd
}

func newJobsPostCommand(rt *runtime) *cobra.Command {
	var in domain.NewJob
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a job (costs credits)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			job, err := rt.app.Marketplace().PostJob(cmd.Context(), in)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), job)
			}
			if job != nil {
				fmt.Fprintf(out(cmd), "Posted job %s\n", job.ID)
			}
			fmt.Fprintf(out(cmd), "Credits left: %d\n", rt.app.Ledger().Balance())
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "job title")
	cmd.Flags().StringVar(&in.Description, "description", "", "job description")
	cmd.Flags().StringVar(&in.Location, "location", "", "job location")
	cmd.Flags().IntVar(&in.Salary, "salary", 0, "monthly salary")
	cmd.Flags().StringVar(&in.JobType, "type", "part-time", "job type")
	cmd.Flags().StringSliceVar(&in.Subjects, "subject", nil, "subject (repeatable)")
	return cmd
}

func newJobsDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete JOB_ID",
		Short: "Delete one of your jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.authorize(cmd.Context(), posterRoles...); err != nil {
				return err
			}
			if err := rt.app.Marketplace().DeleteJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted job %s\n", args[0])
			return nil
		},
	}
}

func (rt *runtime) printJobs(cmd *cobra.Command, jobs []domain.Job) error {
	return paged(rt, cmd, jobs, "jobs", func(t *table, j domain.Job) {
		t.row(j.ID, j.Title, j.PosterName(), orDash(j.Location), orDash(j.JobType))
	}, "id", "title", "posted by", "location", "type")
}
