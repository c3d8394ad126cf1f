package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/agencyboard-api/internal/models"
)

func TestRender(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	task := &models.Task{
		Title:    "Ship landing page",
		Priority: 3,
		DueDate:  &due,
		Project:  &models.Project{Name: "Website"},
		Product:  &models.Product{Name: "Marketing"},
	}
	comment := "Looks good"

	tests := []struct {
		name string
		tpl  string
		data TemplateData
		want string
	}{
		{
			name: "task fields",
			tpl:  "{{task.title}} ({{project.name}}/{{product.name}}) due {{task.due_date}} p{{task.priority}}",
			data: TemplateData{Task: task},
			want: "Ship landing page (Website/Marketing) due 2024-03-15 p3",
		},
		{
			name: "missing due date",
			tpl:  "due {{task.due_date}}",
			data: TemplateData{Task: &models.Task{Title: "x"}},
			want: "due No due date",
		},
		{
			name: "actor without name",
			tpl:  "{{actor.name}} assigned you",
			data: TemplateData{Actor: &models.User{}},
			want: "Someone assigned you",
		},
		{
			name: "missing actor leaves placeholder",
			tpl:  "{{actor.name}} assigned you",
			data: TemplateData{},
			want: "{{actor.name}} assigned you",
		},
		{
			name: "status and comment",
			tpl:  "{{old_status}} -> {{new_status}}: {{comment.content}}",
			data: TemplateData{OldStatus: "Todo", NewStatus: "Done", Comment: &comment},
			want: "Todo -> Done: Looks good",
		},
		{
			name: "recipient",
			tpl:  "Hi {{recipient.name}}",
			data: TemplateData{Recipient: &models.User{FullName: "Dana"}},
			want: "Hi Dana",
		},
		{
			name: "repeated placeholder",
			tpl:  "{{task.title}} / {{task.title}}",
			data: TemplateData{Task: task},
			want: "Ship landing page / Ship landing page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tpl, tt.data))
		})
	}
}

func TestHTMLBody(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt;<br>c", htmlBody("a <b>\nc"))
}
