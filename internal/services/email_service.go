package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("email template not found")

	ErrSMTPHostRequired = &ValidationError{Message: "SMTP host is required"}
)

// ProviderMicrosoftGraph is verified out of band through its OAuth flow.
const ProviderMicrosoftGraph = "microsoft_graph"

// MailVerifier checks SMTP settings against a live server
type MailVerifier interface {
	Verify(ctx context.Context, settings *models.EmailSettings) error
	SendTest(ctx context.Context, settings *models.EmailSettings, to string) error
}

// SettingsInvalidator drops cached email settings
type SettingsInvalidator interface {
	Invalidate()
}

// EmailService administers outgoing email settings and notification templates
type EmailService struct {
	repo     repository.NotificationRepository
	verifier MailVerifier
	cache    SettingsInvalidator
	audit    *AuditService
}

// NewEmailService creates a new EmailService
func NewEmailService(repo repository.NotificationRepository, verifier MailVerifier, cache SettingsInvalidator, audit *AuditService) *EmailService {
	return &EmailService{repo: repo, verifier: verifier, cache: cache, audit: audit}
}

// Settings returns the stored email settings, or nil when none are saved
func (s *EmailService) Settings(ctx context.Context) (*models.EmailSettings, error) {
	settings, err := s.repo.EmailSettings(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load email settings: %w", err)
	}
	return settings, nil
}

// EmailSettingsInput is the email settings form. A missing password keeps
// the stored one.
type EmailSettingsInput struct {
	Provider     string  `json:"provider"`
	SMTPHost     string  `json:"smtp_host"`
	SMTPPort     int     `json:"smtp_port"`
	SMTPUser     string  `json:"smtp_user"`
	SMTPPassword *string `json:"smtp_password"`
	SMTPSecure   bool    `json:"smtp_secure"`
	FromEmail    string  `json:"from_email"`
	FromName     string  `json:"from_name"`
}

func (in EmailSettingsInput) settings() *models.EmailSettings {
	settings := &models.EmailSettings{
		Provider:   strings.TrimSpace(in.Provider),
		SMTPHost:   strings.TrimSpace(in.SMTPHost),
		SMTPPort:   in.SMTPPort,
		SMTPUser:   strings.TrimSpace(in.SMTPUser),
		SMTPSecure: in.SMTPSecure,
		FromEmail:  strings.TrimSpace(in.FromEmail),
		FromName:   strings.TrimSpace(in.FromName),
	}
	if settings.Provider == "" {
		settings.Provider = "smtp"
	}
	if in.SMTPPassword != nil {
		settings.SMTPPassword = *in.SMTPPassword
	}
	return settings
}

// SaveSettings creates or replaces the email settings and drops the cached copy
func (s *EmailService) SaveSettings(ctx context.Context, actorID string, input EmailSettingsInput) (*models.EmailSettings, error) {
	settings := input.settings()
	if settings.Provider != ProviderMicrosoftGraph && settings.SMTPHost == "" {
		return nil, ErrSMTPHostRequired
	}
	if input.SMTPPassword == nil {
		existing, err := s.Settings(ctx)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			settings.SMTPPassword = existing.SMTPPassword
		}
	}

	if err := s.repo.SaveEmailSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save email settings: %w", err)
	}
	s.cache.Invalidate()
	s.audit.Log(ctx, actorID, AuditUpdate, "email_settings", settings.ID, map[string]any{"details": "Updated email settings"})

	return settings, nil
}

// TestConnection verifies the submitted settings and, when sendTo is set,
// sends a test message there. It returns a message for the caller.
func (s *EmailService) TestConnection(ctx context.Context, input EmailSettingsInput, sendTo string) (string, error) {
	settings := input.settings()
	if settings.Provider == ProviderMicrosoftGraph {
		return "Microsoft Graph API configuration saved. OAuth verification required separately.", nil
	}
	if settings.SMTPHost == "" {
		return "", ErrSMTPHostRequired
	}

	if err := s.verifier.Verify(ctx, settings); err != nil {
		return "", invalid("Email connection failed: %s", err.Error())
	}
	if sendTo == "" {
		return "SMTP connection verified successfully", nil
	}
	if err := s.verifier.SendTest(ctx, settings, sendTo); err != nil {
		return "", invalid("Email connection failed: %s", err.Error())
	}
	return fmt.Sprintf("Connection verified and test email sent to %s", sendTo), nil
}

// ListTemplates lists every notification template
func (s *EmailService) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	return templates, nil
}

// TemplateInput represents a partial template update
type TemplateInput struct {
	SubjectTemplate utils.Optional[string] `json:"subject_template"`
	BodyTemplate    utils.Optional[string] `json:"body_template"`
	IsActive        utils.Optional[bool]   `json:"is_active"`
}

// UpdateTemplate applies a partial update to a template
func (s *EmailService) UpdateTemplate(ctx context.Context, id, actorID string, input TemplateInput) (*models.NotificationTemplate, error) {
	fields := map[string]any{}
	if input.SubjectTemplate.Value != nil {
		fields["subject_template"] = *input.SubjectTemplate.Value
	}
	if input.BodyTemplate.Value != nil {
		fields["body_template"] = *input.BodyTemplate.Value
	}
	if input.IsActive.Value != nil {
		fields["is_active"] = *input.IsActive.Value
	}
	if len(fields) == 0 {
		return nil, invalid("No template fields to update")
	}

	if err := s.repo.UpdateTemplate(ctx, id, fields); err != nil {
		return nil, notFound(err, ErrTemplateNotFound, "update email template")
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "notification_template", id, nil)

	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload email template: %w", err)
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, ErrTemplateNotFound
}
