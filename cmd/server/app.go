package main

import (
	"github.com/yukikurage/agencyboard-api/internal/auth"
	"github.com/yukikurage/agencyboard-api/internal/config"
	"github.com/yukikurage/agencyboard-api/internal/handlers"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/notify"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the wired service graph
type app struct {
	handlers *handlers.Handlers
	gates    handlers.Gates
	notifier *notify.Notifier
	engine   *reporting.Engine
}

func newApp(db *gorm.DB, cfg *config.Config, log *zap.Logger) *app {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	productRepo := repository.NewProductRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	projectStatusRepo := repository.NewProjectStatusRepository(db)
	customFieldRepo := repository.NewCrudRepository[models.CustomField](db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notifications
	settings := notify.NewSettingsCache(notificationRepo, cfg.EmailSettingsTTL, log)
	mailer := notify.NewSMTPMailer(settings, cfg.SMTP, log)
	notifier := notify.NewNotifier(notificationRepo, taskRepo, userRepo, statusRepo, mailer, log)

	// Services
	visibility := services.NewVisibilityService(userRepo, repository.NewVisibilityRepository(db))
	audit := services.NewAuditService(repository.NewAuditLogRepository(db), log)
	engine := reporting.NewEngine(db, visibility, log)

	authService := services.NewAuthService(userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, statusRepo, labelRepo, teamRepo, visibility, notifier, audit, log)
	commentService := services.NewCommentService(repository.NewCommentRepository(db), taskRepo, notifier, log)
	checklistService := services.NewChecklistService(repository.NewChecklistRepository(db), taskRepo, audit)
	fieldValueService := services.NewFieldValueService(repository.NewFieldValueRepository(db), customFieldRepo, taskRepo, audit)
	projectService := services.NewProjectService(projectRepo, projectStatusRepo, labelRepo, teamRepo, visibility, audit, log)
	customFields := services.NewCustomFieldService(customFieldRepo, audit)

	h := &handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Tasks:    handlers.NewTaskHandler(taskService, commentService, checklistService, fieldValueService),
		Projects: handlers.NewProjectHandler(projectService),
		Products: handlers.NewProductHandler(services.NewProductService(productRepo, visibility, audit)),
		Agencies: handlers.NewAgencyHandler(
			services.NewAgencyService(repository.NewAgencyRepository(db), teamRepo, audit),
			services.NewTeamService(teamRepo, audit),
		),
		Labels: handlers.NewCatalogHandler(
			services.NewLabelService(labelRepo, audit),
			services.LabelInput.Label, services.LabelInput.Fields, "Label",
		),
		Statuses: handlers.NewCatalogHandler(
			services.NewStatusService(statusRepo, audit),
			services.StatusInput.Status, services.StatusInput.Fields, "Status",
		),
		CustomFields: handlers.NewCatalogHandler(
			customFields,
			services.CustomFieldInput.CustomField, services.CustomFieldInput.Fields, "Custom field",
		),
		ProjectStatuses: handlers.NewCatalogHandler(
			services.NewProjectStatusService(projectStatusRepo, projectRepo, audit),
			services.ProjectStatusInput.ProjectStatus, services.ProjectStatusInput.Fields, "Project status",
		),
		Automations: handlers.NewCatalogHandler(
			services.NewAutomationService(repository.NewCrudRepository[models.Automation](db), audit),
			services.AutomationInput.Automation, services.AutomationInput.Fields, "Automation",
		),
		ApprovalWorkflows: handlers.NewCatalogHandler(
			services.NewApprovalWorkflowService(repository.NewCrudRepository[models.ApprovalWorkflow](db), audit),
			services.ApprovalWorkflowInput.ApprovalWorkflow, services.ApprovalWorkflowInput.Fields, "Approval workflow",
		),
		SLARules: handlers.NewCatalogHandler(
			services.NewSLARuleService(repository.NewCrudRepository[models.SLARule](db), audit),
			services.SLARuleInput.SLARule, services.SLARuleInput.Fields, "SLA rule",
		),
		Admin: handlers.NewAdminHandler(
			customFields,
			services.NewEmailService(notificationRepo, mailer, settings, audit),
			audit,
		),
		Users: handlers.NewUserHandler(services.NewUserService(userRepo, audit)),
		Reports: handlers.NewReportHandler(
			services.NewReportService(repository.NewReportRepository(db), engine, audit),
			services.NewWidgetReportService(repository.NewWidgetReportRepository(db), engine),
		),
		Health: handlers.NewHealthHandler(db),
	}

	return &app{
		handlers: h,
		gates: handlers.Gates{
			Tokens:     auth.NewTokenVerifier(cfg.JWTSecret),
			Users:      authService,
			Visibility: visibility,
		},
		notifier: notifier,
		engine:   engine,
	}
}
