package notify

import (
	"strconv"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
)

// TemplateData holds the values a notification template can reference.
// Placeholders of a missing group (no task, no actor) are left as written.
type TemplateData struct {
	Task      *models.Task
	Actor     *models.User
	Recipient *models.User
	Comment   *string
	OldStatus string
	NewStatus string
}

// Render replaces the {{...}} placeholders of tpl with data
func Render(tpl string, data TemplateData) string {
	var pairs []string
	if task := data.Task; task != nil {
		dueDate := "No due date"
		if task.DueDate != nil {
			dueDate = task.DueDate.Format("2006-01-02")
		}
		var project, product string
		if task.Project != nil {
			project = task.Project.Name
		}
		if task.Product != nil {
			product = task.Product.Name
		}
		pairs = append(pairs,
			"{{task.title}}", task.Title,
			"{{task.due_date}}", dueDate,
			"{{task.priority}}", strconv.Itoa(task.Priority),
			"{{project.name}}", project,
			"{{product.name}}", product,
		)
	}
	if data.Actor != nil {
		pairs = append(pairs, "{{actor.name}}", nameOr(data.Actor, "Someone"))
	}
	if data.Comment != nil {
		pairs = append(pairs, "{{comment.content}}", *data.Comment)
	}
	pairs = append(pairs,
		"{{old_status}}", data.OldStatus,
		"{{new_status}}", data.NewStatus,
	)
	if data.Recipient != nil {
		pairs = append(pairs, "{{recipient.name}}", nameOr(data.Recipient, "there"))
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

func nameOr(u *models.User, fallback string) string {
	if u == nil || u.FullName == "" {
		return fallback
	}
	return u.FullName
}
