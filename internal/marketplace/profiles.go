package marketplace

import (
	"context"
	"net/url"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

type profileResponse struct {
	envelope
	Profile *domain.TeacherProfile `json:"profile"`
}

type tutorsResponse struct {
	envelope
	Tutors   []domain.TutorCard `json:"tutors"`
	Profiles []domain.TutorCard `json:"profiles"`
}

// MyTeacherProfile fetches the signed-in tutor's profile.
func (c *Client) MyTeacherProfile(ctx context.Context) (*domain.TeacherProfile, error) {
	return c.getProfile(ctx, "/profile/teacher/me")
}

// TutorProfile fetches any tutor's public profile.
func (c *Client) TutorProfile(ctx context.Context, id string) (*domain.TeacherProfile, error) {
	return c.getProfile(ctx, "/profile/teacher/profile/"+url.PathEscape(id))
}

func (c *Client) getProfile(ctx context.Context, path string) (*domain.TeacherProfile, error) {
	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	out, err := decode[profileResponse](resp, "get profile")
	if err != nil {
		return nil, err
	}
	if out.Profile == nil {
		return nil, apperrors.NotFound("profile not found")
	}
	return out.Profile, nil
}

// SaveTeacherProfile creates or replaces the caller's profile.
func (c *Client) SaveTeacherProfile(ctx context.Context, in domain.ProfileInput) error {
	if err := validator.Validate(in); err != nil {
		return err
	}
	_, err := c.api.PostJSON(ctx, "/profile/teacher", in)
	return err
}

// PublicTutors lists tutors visible to everyone.
func (c *Client) PublicTutors(ctx context.Context) ([]domain.TutorCard, error) {
	resp, err := c.api.Get(ctx, "/profile/public")
	if err != nil {
		return nil, err
	}
	out, err := decode[tutorsResponse](resp, "public tutors")
	if err != nil {
		return nil, err
	}
	if out.Tutors != nil {
		return out.Tutors, nil
	}
	return out.Profiles, nil
}
