package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidStatus       = errors.New("invalid application status")
)

// ApplicationInput is the payload of a new application.
type ApplicationInput struct {
	CompanyName    string                   `json:"company_name" binding:"required,max=255"`
	JobTitle       string                   `json:"job_title" binding:"required,max=255"`
	JobDescription string                   `json:"job_description"`
	ApplicationURL string                   `json:"application_url" binding:"omitempty,url,max=1024"`
	Status         models.ApplicationStatus `json:"status"`
	Notes          string                   `json:"notes"`
	SalaryRange    string                   `json:"salary_range" binding:"max=64"`
	Location       string                   `json:"location" binding:"max=128"`
}

// ApplicationPatch lists optional fields; nil leaves a field unchanged.
type ApplicationPatch struct {
	CompanyName    *string                   `json:"company_name" binding:"omitempty,max=255"`
	JobTitle       *string                   `json:"job_title" binding:"omitempty,max=255"`
	JobDescription *string                   `json:"job_description"`
	ApplicationURL *string                   `json:"application_url" binding:"omitempty,url,max=1024"`
	Status         *models.ApplicationStatus `json:"status"`
	Notes          *string                   `json:"notes"`
	SalaryRange    *string                   `json:"salary_range" binding:"omitempty,max=64"`
	Location       *string                   `json:"location" binding:"omitempty,max=128"`
}

// Apply merges the patch into a and returns the changed columns.
func (p ApplicationPatch) Apply(a *models.JobApplication) (map[string]interface{}, error) {
	cols := map[string]interface{}{}
	set := func(col string, dst *string, v *string, clean func(string) string) {
		if v == nil {
			return
		}
		*dst = clean(*v)
		cols[col] = *dst
	}
	set("company_name", &a.CompanyName, p.CompanyName, utils.SanitizeText)
	set("job_title", &a.JobTitle, p.JobTitle, utils.SanitizeText)
	set("job_description", &a.JobDescription, p.JobDescription, utils.Sanitize)
	set("application_url", &a.ApplicationURL, p.ApplicationURL, strings.TrimSpace)
	set("notes", &a.Notes, p.Notes, utils.Sanitize)
	set("salary_range", &a.SalaryRange, p.SalaryRange, utils.SanitizeText)
	set("location", &a.Location, p.Location, utils.SanitizeText)
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
		}
		a.Status = *p.Status
		cols["status"] = *p.Status
	}
	return cols, nil
}

// ApplicationService tracks job applications. Every method is scoped to the owning user.
type ApplicationService struct {
	db *gorm.DB
}

func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{db: db}
}

// Create stores a new application for userID.
func (s *ApplicationService) Create(ctx context.Context, userID uint, in ApplicationInput) (*models.JobApplication, error) {
	if in.Status == "" {
		in.Status = models.StatusApplied
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	app := models.JobApplication{
		UserID:         userID,
		CompanyName:    utils.SanitizeText(in.CompanyName),
		JobTitle:       utils.SanitizeText(in.JobTitle),
		JobDescription: utils.Sanitize(in.JobDescription),
		ApplicationURL: strings.TrimSpace(in.ApplicationURL),
		Status:         in.Status,
		Notes:          utils.Sanitize(in.Notes),
		SalaryRange:    utils.SanitizeText(in.SalaryRange),
		Location:       utils.SanitizeText(in.Location),
	}
	if err := s.db.WithContext(ctx).Create(&app).Error; err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	return &app, nil
}

// List returns the user's applications, newest first, optionally filtered by status.
func (s *ApplicationService) List(ctx context.Context, userID uint, status models.ApplicationStatus) ([]models.JobApplication, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		q = q.Where("status = ?", status)
	}
	apps := []models.JobApplication{}
	if err := q.Order("applied_date DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Get returns one of the user's applications.
func (s *ApplicationService) Get(ctx context.Context, userID uint, id string) (*models.JobApplication, error) {
	var app models.JobApplication
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load application %s: %w", id, err)
	}
	return &app, nil
}

// Update applies the patch to one of the user's applications.
func (s *ApplicationService) Update(ctx context.Context, userID uint, id string, patch ApplicationPatch) (*models.JobApplication, error) {
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	cols, err := patch.Apply(app)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return app, nil
	}
	if err := s.db.WithContext(ctx).Model(app).Updates(cols).Error; err != nil {
		return nil, fmt.Errorf("update application %s: %w", id, err)
	}
	return app, nil
}

// Delete removes one of the user's applications.
func (s *ApplicationService) Delete(ctx context.Context, userID uint, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.JobApplication{})
	if res.Error != nil {
		return fmt.Errorf("delete application %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
