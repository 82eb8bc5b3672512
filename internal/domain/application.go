package domain

import (
	"io"
	"time"
)

// ApplicationStatus is where an application sits in the hiring funnel.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusSelected    ApplicationStatus = "selected"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShortlisted, StatusRejected, StatusSelected:
		return true
	}
	return false
}

// Applicant is the tutor behind an application.
type Applicant struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// JobSummary is the slice of a job embedded in an application.
type JobSummary struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

// Application is a tutor's application to a job.
type Application struct {
	ID              string            `json:"_id"`
	Job             *JobSummary       `json:"job,omitempty"`
	Tutor           *Applicant        `json:"tutor,omitempty"`
	Experience      string            `json:"experience,omitempty"`
	CurrentLocation string            `json:"currentLocation,omitempty"`
	ExpectedSalary  string            `json:"expectedSalary,omitempty"`
	Message         string            `json:"message,omitempty"`
	ResumeURL       string            `json:"resumeUrl,omitempty"`
	Status          ApplicationStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ApplyRequest is the multipart form sent to apply for a job.
type ApplyRequest struct {
	JobID           string `validate:"required"`
	FullName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Experience      string
	CurrentLocation string
	ExpectedSalary  string

	// Resume is optional; ResumeName is the file name sent with it.
	Resume     io.Reader `validate:"-"`
	ResumeName string
}
