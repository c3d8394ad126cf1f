package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// ProjectHandler serves projects
type ProjectHandler struct {
	projects *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// ListProjects returns projects with their task progress
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var query dto.ProjectQuery
	if !bindQuery(c, &query) {
		return
	}
	params := utils.GetPaginationParams(c)
	filter, err := query.Filter(params)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	projects, total, err := h.projects.ListProjects(c.Request.Context(), user, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Paged(c, projects, params, total)
}

// GetProject returns one project
func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	project, err := h.projects.GetProjectFor(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, project)
}

// CreateProject creates a project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), req.Input(user.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, project)
}

// UpdateProject applies a partial update
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.UpdateProjectInput
	if !bindJSON(c, &input) {
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), c.Param("id"), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, project)
}

// DeleteProject deletes a project
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Project deleted successfully")
}

// UpdatePriorities reorders projects
func (h *ProjectHandler) UpdatePriorities(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.PrioritiesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Priorities == nil {
		apierrors.BadRequest(c, "priorities must be an array")
		return
	}

	if err := h.projects.UpdatePriorities(c.Request.Context(), user.ID, *req.Priorities); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Project priorities updated successfully")
}

// ListLabels returns the labels on a project
func (h *ProjectHandler) ListLabels(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	labels, err := h.projects.ListLabels(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, labels)
}

// AddLabel tags a project with a label
func (h *ProjectHandler) AddLabel(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.LabelRequest
	if !bindJSON(c, &req) {
		return
	}

	label, err := h.projects.AddLabel(c.Request.Context(), c.Param("id"), req.LabelID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.DataMessage(c, http.StatusCreated, label, "Label added successfully")
}

// RemoveLabel untags a project
func (h *ProjectHandler) RemoveLabel(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.projects.RemoveLabel(c.Request.Context(), c.Param("id"), c.Param("label_id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Label removed successfully")
}

// ListTeams returns the teams on a project
func (h *ProjectHandler) ListTeams(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	teams, err := h.projects.ListTeams(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, teams)
}

// AddTeam attaches a team to a project
func (h *ProjectHandler) AddTeam(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.TeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.projects.AddTeam(c.Request.Context(), c.Param("id"), req.TeamID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.DataMessage(c, http.StatusCreated, team, "Team added successfully")
}

// RemoveTeam detaches a team from a project
func (h *ProjectHandler) RemoveTeam(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.projects.RemoveTeam(c.Request.Context(), c.Param("id"), c.Param("team_id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Team removed successfully")
}
