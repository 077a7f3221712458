package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationStatus is the pipeline stage of a job application.
type ApplicationStatus string

const (
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusOffer        ApplicationStatus = "offer"
	StatusRejected     ApplicationStatus = "rejected"
	StatusWithdrawn    ApplicationStatus = "withdrawn"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusInterviewing, StatusOffer, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// JobApplication tracks one application a user sent out.
type JobApplication struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint              `gorm:"index;not null" json:"user_id"`
	CompanyName    string            `gorm:"size:255;not null" json:"company_name"`
	JobTitle       string            `gorm:"size:255;not null" json:"job_title"`
	JobDescription string            `gorm:"type:text" json:"job_description"`
	ApplicationURL string            `gorm:"size:1024" json:"application_url"`
	Status         ApplicationStatus `gorm:"size:16;not null;default:applied;index" json:"status"`
	Notes          string            `gorm:"type:text" json:"notes"`
	SalaryRange    string            `gorm:"size:64" json:"salary_range"`
	Location       string            `gorm:"size:128" json:"location"`
	AppliedDate    time.Time         `json:"applied_date"`
	UpdatedDate    time.Time         `gorm:"autoUpdateTime" json:"updated_date"`
}

// BeforeCreate assigns a UUID and the applied date when missing.
func (j *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.AppliedDate.IsZero() {
		j.AppliedDate = time.Now()
	}
	if j.Status == "" {
		j.Status = StatusApplied
	}
	return nil
}
