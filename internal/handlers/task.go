package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// TaskHandler serves tasks and their comments, subtasks, watchers, labels,
// checklists and custom field values. Routes with a task ID run behind
// RequireTaskAccess.
type TaskHandler struct {
	tasks       *services.TaskService
	comments    *services.CommentService
	checklist   *services.ChecklistService
	fieldValues *services.FieldValueService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(
	tasks *services.TaskService,
	comments *services.CommentService,
	checklist *services.ChecklistService,
	fieldValues *services.FieldValueService,
) *TaskHandler {
	return &TaskHandler{
		tasks:       tasks,
		comments:    comments,
		checklist:   checklist,
		fieldValues: fieldValues,
	}
}

// ListTasks returns the top-level tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var query dto.TaskQuery
	if !bindQuery(c, &query) {
		return
	}
	params := utils.GetPaginationParams(c)
	filter, err := query.Filter(params)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), user, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Paged(c, tasks, params, total)
}

// GetTask returns a task with its parent summary and subtasks
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, task)
}

// CreateTask creates a task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.Input(user.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, task)
}

// UpdateTask applies a partial update
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), user.ID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, task)
}

// DeleteTask deletes a task and its subtasks
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Task deleted successfully")
}

// UpdatePriorities reorders tasks
func (h *TaskHandler) UpdatePriorities(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.PrioritiesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Priorities == nil {
		apierrors.BadRequest(c, "priorities must be an array")
		return
	}

	if err := h.tasks.UpdatePriorities(c.Request.Context(), user.ID, *req.Priorities); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Task priorities updated successfully")
}

// ListComments returns the comments of a task the current user may read
func (h *TaskHandler) ListComments(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, comments)
}

// AddComment comments on a task and notifies mentioned users
func (h *TaskHandler) AddComment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.AddComment(c.Request.Context(), user, c.Param("id"), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, comment)
}

// DeleteComment deletes a comment. Authors may delete their own comments.
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	err := h.comments.DeleteComment(c.Request.Context(), user, c.Param("id"), c.Param("comment_id"))
	if errors.Is(err, services.ErrPermissionDenied) {
		apierrors.Forbidden(c, "Insufficient permissions to delete comment")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Comment deleted successfully")
}

// ListSubtasks returns the direct subtasks of a task
func (h *TaskHandler) ListSubtasks(c *gin.Context) {
	subtasks, err := h.tasks.ListSubtasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, subtasks)
}

// CreateSubtask creates a subtask under a task
func (h *TaskHandler) CreateSubtask(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	subtask, err := h.tasks.CreateSubtask(c.Request.Context(), c.Param("id"), req.Input(user.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, subtask)
}

// ListWatchers returns the watchers of a task
func (h *TaskHandler) ListWatchers(c *gin.Context) {
	watchers, err := h.tasks.ListWatchers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, watchers)
}

// AddWatcher adds a watcher to a task
func (h *TaskHandler) AddWatcher(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.WatcherRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = user.ID
	}

	added, err := h.tasks.AddWatcher(c.Request.Context(), c.Param("id"), req.UserID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !added {
		dto.Message(c, "User is already watching this task")
		return
	}
	c.JSON(http.StatusCreated, dto.Response{Success: true, Message: "Watcher added successfully"})
}

// RemoveWatcher removes a watcher from a task
func (h *TaskHandler) RemoveWatcher(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.tasks.RemoveWatcher(c.Request.Context(), user, c.Param("id"), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Watcher removed successfully")
}

// ListLabels returns the labels on a task
func (h *TaskHandler) ListLabels(c *gin.Context) {
	labels, err := h.tasks.ListLabels(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, labels)
}

// AddLabel tags a task with a label
func (h *TaskHandler) AddLabel(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.LabelRequest
	if !bindJSON(c, &req) {
		return
	}

	label, err := h.tasks.AddLabel(c.Request.Context(), c.Param("id"), req.LabelID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.DataMessage(c, http.StatusCreated, label, "Label added successfully")
}

// RemoveLabel untags a task
func (h *TaskHandler) RemoveLabel(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.tasks.RemoveLabel(c.Request.Context(), c.Param("id"), c.Param("label_id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Label removed successfully")
}

// ListChecklist returns a task's checklist in order
func (h *TaskHandler) ListChecklist(c *gin.Context) {
	items, err := h.checklist.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, items)
}

// CreateChecklistItem appends an item to a task's checklist
func (h *TaskHandler) CreateChecklistItem(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.ChecklistItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.checklist.Create(c.Request.Context(), c.Param("id"), user.ID, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.DataMessage(c, http.StatusCreated, item, "Checklist item created successfully")
}

// UpdateChecklistItem renames, moves, checks or unchecks an item
func (h *TaskHandler) UpdateChecklistItem(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.ChecklistUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.checklist.Update(c.Request.Context(), c.Param("id"), c.Param("item_id"), user.ID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, item)
}

// DeleteChecklistItem removes an item
func (h *TaskHandler) DeleteChecklistItem(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.checklist.Delete(c.Request.Context(), c.Param("id"), c.Param("item_id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Checklist item deleted successfully")
}

// ReorderChecklist moves checklist items in one batch
func (h *TaskHandler) ReorderChecklist(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.ChecklistReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Priorities == nil {
		apierrors.BadRequest(c, "priorities must be an array")
		return
	}

	if err := h.checklist.Reorder(c.Request.Context(), c.Param("id"), user.ID, *req.Priorities); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Checklist reordered successfully")
}

// ListCustomFieldValues returns the custom field values of a task
func (h *TaskHandler) ListCustomFieldValues(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	values, err := h.fieldValues.List(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, values)
}

// SetCustomFieldValues creates or replaces custom field values of a task
func (h *TaskHandler) SetCustomFieldValues(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.FieldValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Values == nil {
		apierrors.BadRequest(c, "Values must be an array")
		return
	}

	values, err := h.fieldValues.Set(c.Request.Context(), user, c.Param("id"), *req.Values)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, values)
}
