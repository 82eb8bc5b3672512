package domain

// SalaryRange is a tutor's expected monthly salary.
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
}

// ProfileOwner is the user a teacher profile belongs to.
type ProfileOwner struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TeacherProfile is a tutor's public profile.
type TeacherProfile struct {
	ID              string        `json:"_id,omitempty"`
	Owner           *ProfileOwner `json:"userId,omitempty"`
	Bio             string        `json:"bio"`
	ExperienceYears int           `json:"experienceYears"`
	Subjects        []string      `json:"subjects"`
	Classes         []int         `json:"classes"`
	City            string        `json:"city"`
	ExpectedSalary  SalaryRange   `json:"expectedSalary"`
	Languages       []string      `json:"languages,omitempty"`
	Availability    string        `json:"availability,omitempty"`
	IsVerified      bool          `json:"isVerified,omitempty"`
}

// ProfileInput is the payload for creating or updating the caller's profile.
type ProfileInput struct {
	Bio             string      `json:"bio" validate:"required"`
	ExperienceYears int         `json:"experienceYears" validate:"gte=0"`
	Subjects        []string    `json:"subjects" validate:"required,min=1"`
	Classes         []int       `json:"classes"`
	City            string      `json:"city" validate:"required"`
	ExpectedSalary  SalaryRange `json:"expectedSalary"`
}

// TutorCard is the summary shown in the public tutor listing.
type TutorCard struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	Subject        string  `json:"subject"`
	Specialization string  `json:"specialization,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	Reviews        int     `json:"reviews,omitempty"`
	HourlyRate     int     `json:"hourlyRate,omitempty"`
	Experience     string  `json:"experience,omitempty"`
	City           string  `json:"city,omitempty"`
	Verified       bool    `json:"verified,omitempty"`
}
