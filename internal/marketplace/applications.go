package marketplace

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

type applicationsResponse struct {
	envelope
	Applications []domain.Application `json:"applications"`
}

type applicationResponse struct {
	envelope
	Application *domain.Application `json:"application"`
}

// Apply submits an application, attaching the resume when one is given.
// The server charges credits for it, so the balance is re-read afterwards.
func (c *Client) Apply(ctx context.Context, in domain.ApplyRequest) (*domain.Application, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	req, err := gateway.NewMultipartRequest("/applications/apply", func(w *multipart.Writer) error {
		fields := [][2]string{
			{"jobId", in.JobID},
			{"fullName", in.FullName},
			{"email", in.Email},
			{"experience", in.Experience},
			{"currentLocation", in.CurrentLocation},
			{"expectedSalary", in.ExpectedSalary},
		}
		for _, f := range fields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return err
			}
		}
		if in.Resume == nil {
			return nil
		}
		name := in.ResumeName
		if name == "" {
			name = "resume.pdf"
		}
		part, err := w.CreateFormFile("resume", name)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, in.Resume)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := decode[applicationResponse](resp, "apply")
	if err != nil {
		return nil, err
	}
	if err := out.check("apply"); err != nil {
		return nil, err
	}
	c.refreshAfterWrite(ctx, "apply")
	return out.Application, nil
}

// MyApplications lists the tutor's own applications.
func (c *Client) MyApplications(ctx context.Context) ([]domain.Application, error) {
	return c.listApplications(ctx, "/applications/my")
}

// ReceivedApplications lists applications to any of the caller's jobs.
func (c *Client) ReceivedApplications(ctx context.Context) ([]domain.Application, error) {
	return c.listApplications(ctx, "/applications/my-received")
}

// JobApplications lists applications to one job.
func (c *Client) JobApplications(ctx context.Context, jobID string) ([]domain.Application, error) {
	return c.listApplications(ctx, "/applications/job/"+url.PathEscape(jobID))
}

func (c *Client) listApplications(ctx context.Context, path string) ([]domain.Application, error) {
	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	out, err := decode[applicationsResponse](resp, "list applications")
	return out.Applications, err
}

// UpdateStatus moves an application through the hiring funnel.
func (c *Client) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	if !status.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown application status %q", status))
	}
	_, err := c.api.PatchJSON(ctx, "/applications/"+url.PathEscape(id)+"/status", map[string]string{"status": string(status)})
	return err
}
