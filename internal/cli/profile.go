package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

func newProfileCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit tutor profiles",
	}

	me := &cobra.Command{
		Use:   "me",
		Short: "Show your tutor profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), domain.RoleTutor); err != nil {
				return err
			}
			p, err := rt.app.Marketplace().MyTeacherProfile(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printProfile(cmd, p)
		},
	}

	show := &cobra.Command{
		Use:   "show TUTOR_ID",
		Short: "Show a tutor's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rt.app.Marketplace().TutorProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.printProfile(cmd, p)
		},
	}

	public := &cobra.Command{
		Use:   "public",
		Short: "List tutors with public profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tutors, err := rt.app.Marketplace().PublicTutors(cmd.Context())
			if err != nil {
				return err
			}
			return paged(rt, cmd, tutors, "tutors", func(t *table, c domain.TutorCard) {
				t.row(c.ID, c.Name, orDash(c.Subject), orDash(c.City), c.Verified)
			}, "id", "name", "subject", "city", "verified")
		},
	}
	rt.addPageFlags(public)

	cmd.AddCommand(me, show, public, newProfileSaveCommand(rt))
	return cmd
}

func newProfileSaveCommand(rt *runtime) *cobra.Command {
	var in domain.ProfileInput
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace your tutor profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := rt.authorize(cmd.Context(), domain.RoleTutor); err != nil {
				return err
			}
			if err := rt.app.Marketplace().SaveTeacherProfile(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Profile saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Bio, "bio", "", "short bio")
	cmd.Flags().IntVar(&in.ExperienceYears, "experience", 0, "years of experience")
	cmd.Flags().StringSliceVar(&in.Subjects, "subject", nil, "subject taught (repeatable)")
	cmd.Flags().IntSliceVar(&in.Classes, "class", nil, "class taught (repeatable)")
	cmd.Flags().StringVar(&in.City, "city", "", "city")
	cmd.Flags().IntVar(&in.ExpectedSalary.Min, "salary", 0, "expected monthly salary")
	return cmd
}

func (rt *runtime) printProfile(cmd *cobra.Command, p *domain.TeacherProfile) error {
	if rt.jsonOut {
		return writeJSON(out(cmd), p)
	}
	t := newTable(out(cmd), "field", "value")
	if p.Owner != nil {
		t.row("name", orDash(p.Owner.Name))
	}
	t.row("city", orDash(p.City))
	t.row("experience", fmt.Sprintf("%d years", p.ExperienceYears))
	t.row("subjects", orDash(strings.Join(p.Subjects, ", ")))
	classes := make([]string, len(p.Classes))
	for i, c := range p.Classes {
		classes[i] = fmt.Sprint(c)
	}
	t.row("classes", orDash(strings.Join(classes, ", ")))
	if p.ExpectedSalary.Min > 0 {
		t.row("expected salary", p.ExpectedSalary.Min)
	}
	t.row("verified", p.IsVerified)
	t.row("bio", orDash(p.Bio))
	return t.flush()
}
