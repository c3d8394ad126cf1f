package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// AgencyHandler serves agencies and their teams
type AgencyHandler struct {
	agencies *services.AgencyService
	teams    *services.TeamService
}

// NewAgencyHandler creates a new AgencyHandler
func NewAgencyHandler(agencies *services.AgencyService, teams *services.TeamService) *AgencyHandler {
	return &AgencyHandler{
		agencies: agencies,
		teams:    teams,
	}
}

// ListAgencies returns agencies, optionally matching ?search=
func (h *AgencyHandler) ListAgencies(c *gin.Context) {
	agencies, err := h.agencies.ListAgencies(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, agencies)
}

// GetAgency returns an agency with its teams and members
func (h *AgencyHandler) GetAgency(c *gin.Context) {
	agency, err := h.agencies.GetAgency(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, agency)
}

// CreateAgency creates an agency
func (h *AgencyHandler) CreateAgency(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.AgencyInput
	if !bindJSON(c, &input) {
		return
	}

	agency, err := h.agencies.CreateAgency(c.Request.Context(), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, agency)
}

// UpdateAgency applies a partial update
func (h *AgencyHandler) UpdateAgency(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.AgencyInput
	if !bindJSON(c, &input) {
		return
	}

	agency, err := h.agencies.UpdateAgency(c.Request.Context(), c.Param("id"), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, agency)
}

// DeleteAgency deletes an agency
func (h *AgencyHandler) DeleteAgency(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.agencies.DeleteAgency(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Agency deleted successfully")
}

// ListTeams returns teams, optionally of ?agency_id= and with members when
// ?include_members=true
func (h *AgencyHandler) ListTeams(c *gin.Context) {
	withMembers, _ := strconv.ParseBool(c.Query("include_members"))
	teams, err := h.teams.ListTeams(c.Request.Context(), c.Query("agency_id"), withMembers)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, teams)
}

// GetTeam returns a team with its agency and members
func (h *AgencyHandler) GetTeam(c *gin.Context) {
	team, err := h.teams.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, team)
}

// CreateTeam creates a team
func (h *AgencyHandler) CreateTeam(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.TeamInput
	if !bindJSON(c, &input) {
		return
	}

	team, err := h.teams.CreateTeam(c.Request.Context(), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, team)
}

// UpdateTeam applies a partial update
func (h *AgencyHandler) UpdateTeam(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.TeamInput
	if !bindJSON(c, &input) {
		return
	}

	team, err := h.teams.UpdateTeam(c.Request.Context(), c.Param("id"), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, team)
}

// DeleteTeam deletes a team
func (h *AgencyHandler) DeleteTeam(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.teams.DeleteTeam(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Team deleted successfully")
}

// ListMembers returns the users of a team
func (h *AgencyHandler) ListMembers(c *gin.Context) {
	members, err := h.teams.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, members)
}

// AddMember adds a user to a team
func (h *AgencyHandler) AddMember(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.MemberRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.teams.AddMember(c.Request.Context(), c.Param("id"), req.UserID, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Response{Success: true, Message: "Member added successfully"})
}

// RemoveMember removes a user from a team
func (h *AgencyHandler) RemoveMember(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.teams.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("user_id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Member removed successfully")
}

// UserTeams returns the teams of a user
func (h *AgencyHandler) UserTeams(c *gin.Context) {
	teams, err := h.teams.TeamsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, teams)
}
