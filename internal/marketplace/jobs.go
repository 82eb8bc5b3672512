package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

type jobsResponse struct {
	envelope
	Results int          `json:"results"`
	Jobs    []domain.Job `json:"jobs"`
}

type jobResponse struct {
	envelope
	Job *domain.Job `json:"job"`
}

// ListJobs searches the public job feed.
func (c *Client) ListJobs(ctx context.Context, f domain.JobFilter) ([]domain.Job, error) {
	req := gateway.NewRequest(http.MethodGet, "/jobs/alljobs")
	req.Query = url.Values{}
	if q := strings.TrimSpace(f.Query); q != "" {
		req.Query.Set("q", q)
	}
	if s := strings.TrimSpace(f.Subject); s != "" && s != domain.AllSubjects {
		req.Query.Set("subject", s)
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		req.Query.Set("location", l)
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := decode[jobsResponse](resp, "list jobs")
	return out.Jobs, err
}

// GetJob fetches one job.
func (c *Client) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	resp, err := c.api.Get(ctx, "/jobs/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	out, err := decode[jobResponse](resp, "get job")
	if err != nil {
		return nil, err
	}
	if out.Job == nil {
		if err := out.check("get job"); err != nil {
			return nil, err
		}
		return nil, apperrors.NotFound("job not found")
	}
	return out.Job, nil
}

// MyJobs lists the jobs posted by the signed-in parent or institute.
func (c *Client) MyJobs(ctx context.Context) ([]domain.Job, error) {
	resp, err := c.api.Get(ctx, "/jobs/my")
	if err != nil {
		return nil, err
	}
	out, err := decode[jobsResponse](resp, "my jobs")
	return out.Jobs, err
}

// PostJob publishes a job. The server charges credits for it, so the
// balance is re-read afterwards.
func (c *Client) PostJob(ctx context.Context, in domain.NewJob) (*domain.Job, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	resp, err := c.api.PostJSON(ctx, "/jobs", in)
	if err != nil {
		return nil, err
	}
	out, err := decode[jobResponse](resp, "post job")
	if err != nil {
		return nil, err
	}
	if err := out.check("post job"); err != nil {
		return nil, err
	}
	c.refreshAfterWrite(ctx, "post job")
	return out.Job, nil
}

// DeleteJob removes one of the caller's jobs.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	_, err := c.api.Delete(ctx, "/jobs/"+url.PathEscape(id))
	return err
}
