package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/middleware"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Auth         *AuthHandler
	Tasks        *TaskHandler
	Projects     *ProjectHandler
	Products     *ProductHandler
	Agencies     *AgencyHandler
	Labels       *CatalogHandler[models.Label, services.LabelInput]
	Statuses     *CatalogHandler[models.Status, services.StatusInput]
	CustomFields *CatalogHandler[models.CustomField, services.CustomFieldInput]

	ProjectStatuses   *CatalogHandler[models.ProjectStatusDefinition, services.ProjectStatusInput]
	Automations       *CatalogHandler[models.Automation, services.AutomationInput]
	ApprovalWorkflows *CatalogHandler[models.ApprovalWorkflow, services.ApprovalWorkflowInput]
	SLARules          *CatalogHandler[models.SLARule, services.SLARuleInput]

	Admin   *AdminHandler
	Users   *UserHandler
	Reports *ReportHandler
	Health  *HealthHandler
}

// Gates are the collaborators of the authentication and visibility middleware
type Gates struct {
	Tokens     middleware.TokenVerifier
	Users      middleware.Authenticator
	Visibility middleware.TaskVisibility
}

// Register mounts the health check on r and every API route under prefix.
// The session middleware must already be installed on r.
func Register(r *gin.Engine, prefix string, h *Handlers, gates Gates) {
	r.GET("/health", h.Health.Health)

	api := r.Group(prefix)
	requireAuth := middleware.RequireAuth(gates.Tokens, gates.Users)
	management := middleware.RequireRole(models.ManagementRoles...)
	administrators := middleware.RequireRole(models.AdministratorRoles...)
	authors := middleware.RequireRole(models.AuthorRoles...)
	taskAccess := middleware.RequireTaskAccess(gates.Visibility)

	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RequireToken(gates.Tokens), h.Auth.Register)
		auth.POST("/session", requireAuth, h.Auth.CreateSession)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
	}

	tasks := api.Group("/tasks", requireAuth)
	{
		tasks.GET("", h.Tasks.ListTasks)
		tasks.POST("", authors, h.Tasks.CreateTask)
		tasks.POST("/priorities", management, h.Tasks.UpdatePriorities)
		tasks.GET("/:id", taskAccess, h.Tasks.GetTask)
		tasks.PATCH("/:id", taskAccess, h.Tasks.UpdateTask)
		tasks.DELETE("/:id", management, taskAccess, h.Tasks.DeleteTask)
		tasks.GET("/:id/comments", taskAccess, h.Tasks.ListComments)
		tasks.POST("/:id/comments", taskAccess, h.Tasks.AddComment)
		tasks.DELETE("/:id/comments/:comment_id", taskAccess, h.Tasks.DeleteComment)
		tasks.GET("/:id/subtasks", taskAccess, h.Tasks.ListSubtasks)
		tasks.POST("/:id/subtasks", taskAccess, h.Tasks.CreateSubtask)
		tasks.GET("/:id/watchers", taskAccess, h.Tasks.ListWatchers)
		tasks.POST("/:id/watchers", taskAccess, h.Tasks.AddWatcher)
		tasks.DELETE("/:id/watchers/:user_id", taskAccess, h.Tasks.RemoveWatcher)
		tasks.GET("/:id/labels", taskAccess, h.Tasks.ListLabels)
		tasks.POST("/:id/labels", taskAccess, h.Tasks.AddLabel)
		tasks.DELETE("/:id/labels/:label_id", taskAccess, h.Tasks.RemoveLabel)
		tasks.GET("/:id/checklist", taskAccess, h.Tasks.ListChecklist)
		tasks.POST("/:id/checklist", taskAccess, h.Tasks.CreateChecklistItem)
		tasks.POST("/:id/checklist/reorder", taskAccess, h.Tasks.ReorderChecklist)
		tasks.PATCH("/:id/checklist/:item_id", taskAccess, h.Tasks.UpdateChecklistItem)
		tasks.DELETE("/:id/checklist/:item_id", taskAccess, h.Tasks.DeleteChecklistItem)
		tasks.GET("/:id/custom-fields", taskAccess, h.Tasks.ListCustomFieldValues)
		tasks.PUT("/:id/custom-fields", taskAccess, h.Tasks.SetCustomFieldValues)
	}

	projects := api.Group("/projects", requireAuth)
	{
		projects.GET("", h.Projects.ListProjects)
		projects.POST("", management, h.Projects.CreateProject)
		projects.POST("/priorities", management, h.Projects.UpdatePriorities)
		projects.GET("/:id", h.Projects.GetProject)
		projects.PUT("/:id", management, h.Projects.UpdateProject)
		projects.PATCH("/:id", management, h.Projects.UpdateProject)
		projects.DELETE("/:id", management, h.Projects.DeleteProject)
		projects.GET("/:id/labels", h.Projects.ListLabels)
		projects.POST("/:id/labels", management, h.Projects.AddLabel)
		projects.DELETE("/:id/labels/:label_id", management, h.Projects.RemoveLabel)
		projects.GET("/:id/teams", h.Projects.ListTeams)
		projects.POST("/:id/teams", management, h.Projects.AddTeam)
		projects.DELETE("/:id/teams/:team_id", management, h.Projects.RemoveTeam)
	}

	products := api.Group("/products", requireAuth)
	{
		products.GET("", h.Products.ListProducts)
		products.POST("", management, h.Products.CreateProduct)
		products.GET("/:id", h.Products.GetProduct)
		products.PUT("/:id", management, h.Products.UpdateProduct)
		products.DELETE("/:id", administrators, h.Products.DeleteProduct)
	}

	agencies := api.Group("/agencies", requireAuth)
	{
		agencies.GET("", h.Agencies.ListAgencies)
		agencies.POST("", management, h.Agencies.CreateAgency)
		agencies.GET("/:id", h.Agencies.GetAgency)
		agencies.PUT("/:id", management, h.Agencies.UpdateAgency)
		agencies.DELETE("/:id", administrators, h.Agencies.DeleteAgency)
	}

	teams := api.Group("/teams", requireAuth)
	{
		teams.GET("", h.Agencies.ListTeams)
		teams.POST("", management, h.Agencies.CreateTeam)
		teams.GET("/users/:id/teams", h.Agencies.UserTeams)
		teams.GET("/:id", h.Agencies.GetTeam)
		teams.PATCH("/:id", management, h.Agencies.UpdateTeam)
		teams.DELETE("/:id", administrators, h.Agencies.DeleteTeam)
		teams.GET("/:id/members", h.Agencies.ListMembers)
		teams.POST("/:id/members", management, h.Agencies.AddMember)
		teams.DELETE("/:id/members/:user_id", management, h.Agencies.RemoveMember)
	}

	labels := api.Group("/labels", requireAuth)
	{
		labels.GET("", h.Labels.List)
		labels.POST("", management, h.Labels.Create)
		labels.PATCH("/:id", management, h.Labels.Update)
		labels.DELETE("/:id", management, h.Labels.Delete)
	}

	statuses := api.Group("/statuses", requireAuth)
	{
		statuses.GET("", h.Statuses.List)
		statuses.POST("", management, h.Statuses.Create)
		statuses.PATCH("/:id", management, h.Statuses.Update)
		statuses.DELETE("/:id", management, h.Statuses.Delete)
	}

	projectStatuses := api.Group("/project-statuses", requireAuth)
	{
		projectStatuses.GET("", h.ProjectStatuses.List)
		projectStatuses.POST("", administrators, h.ProjectStatuses.Create)
		projectStatuses.PATCH("/:id", administrators, h.ProjectStatuses.Update)
		projectStatuses.DELETE("/:id", administrators, h.ProjectStatuses.Delete)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("", h.Users.ListUsers)
		users.PATCH("/:id/role", administrators, h.Users.UpdateRole)
		users.DELETE("/:id", administrators, h.Users.DeactivateUser)
	}

	admin := api.Group("/admin", requireAuth, administrators)
	{
		admin.GET("/custom-fields", h.Admin.ListCustomFields)
		admin.POST("/custom-fields", h.CustomFields.Create)
		admin.PATCH("/custom-fields/:id", h.CustomFields.Update)
		admin.DELETE("/custom-fields/:id", h.CustomFields.Delete)
		admin.GET("/email-settings", h.Admin.GetEmailSettings)
		admin.POST("/email-settings", h.Admin.SaveEmailSettings)
		admin.POST("/email-settings/test", h.Admin.TestEmailConnection)
		admin.GET("/email-templates", h.Admin.ListEmailTemplates)
		admin.PATCH("/email-templates/:id", h.Admin.UpdateEmailTemplate)
		admin.GET("/audit-logs", h.Admin.ListAuditLogs)
		admin.GET("/audit-logs/export", h.Admin.ExportAuditLogs)
		admin.GET("/automations", h.Automations.List)
		admin.POST("/automations", h.Automations.Create)
		admin.PATCH("/automations/:id", h.Automations.Update)
		admin.DELETE("/automations/:id", h.Automations.Delete)
		admin.GET("/approval-workflows", h.ApprovalWorkflows.List)
		admin.POST("/approval-workflows", h.ApprovalWorkflows.Create)
		admin.PATCH("/approval-workflows/:id", h.ApprovalWorkflows.Update)
		admin.DELETE("/approval-workflows/:id", h.ApprovalWorkflows.Delete)
		admin.GET("/sla-rules", h.SLARules.List)
		admin.POST("/sla-rules", h.SLARules.Create)
		admin.PATCH("/sla-rules/:id", h.SLARules.Update)
		admin.DELETE("/sla-rules/:id", h.SLARules.Delete)
	}

	reports := api.Group("/reports", requireAuth)
	{
		reports.GET("", h.Reports.ListReports)
		reports.POST("", h.Reports.CreateReport)
		reports.GET("/:id", h.Reports.GetReport)
		reports.PATCH("/:id", h.Reports.UpdateReport)
		reports.DELETE("/:id", h.Reports.DeleteReport)
		reports.POST("/:id/execute", h.Reports.ExecuteReport)
	}

	reports2 := api.Group("/reports2", requireAuth)
	{
		reports2.GET("", h.Reports.ListWidgetReports)
		reports2.POST("", h.Reports.CreateWidgetReport)
		reports2.POST("/run-widget", h.Reports.RunWidget)
		reports2.GET("/data-sources/:id/fields", h.Reports.DataSourceFields)
		reports2.GET("/:id", h.Reports.GetWidgetReport)
		reports2.PATCH("/:id", h.Reports.UpdateWidgetReport)
		reports2.DELETE("/:id", h.Reports.DeleteWidgetReport)
	}
}
