package domain

import "time"

// AllSubjects is the subject filter value meaning "no filter".
const AllSubjects = "All Subjects"

// Institution is the institute that posted a job.
type Institution struct {
	ID              string `json:"_id,omitempty"`
	InstitutionName string `json:"institutionName"`
	City            string `json:"city,omitempty"`
	About           string `json:"about,omitempty"`
}

// Poster is the individual (usually a parent) that posted a job.
type Poster struct {
	Name string `json:"name"`
}

// Job is a tutoring job listed on the marketplace.
type Job struct {
	ID           string       `json:"_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	Salary       int          `json:"salary,omitempty"`
	JobType      string       `json:"jobType"`
	Subjects     []string     `json:"subjects,omitempty"`
	Status       string       `json:"status,omitempty"`
	PostedByRole Role         `json:"postedByRole,omitempty"`
	PostedBy     *Poster      `json:"postedBy,omitempty"`
	Institution  *Institution `json:"institution,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// PosterName is the display name of whoever posted the job.
func (j Job) PosterName() string {
	if j.PostedByRole == RoleInstitute && j.Institution != nil {
		return j.Institution.InstitutionName
	}
	if j.PostedBy != nil && j.PostedBy.Name != "" {
		return j.PostedBy.Name
	}
	return "Parent"
}

// JobFilter narrows the public job feed.
type JobFilter struct {
	Query    string
	Subject  string
	Location string
}

// NewJob is the payload for posting a job.
type NewJob struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Salary      int      `json:"salary,omitempty" validate:"gte=0"`
	JobType     string   `json:"jobType" validate:"required"`
	Subjects    []string `json:"subjects,omitempty"`
}
