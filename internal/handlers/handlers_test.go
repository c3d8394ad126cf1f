package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/auth"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeTokens accepts any token naming a known subject: the bearer token is
// the user ID itself
type fakeTokens struct {
	claims map[string]*auth.Claims
}

func (f *fakeTokens) Verify(token string) (*auth.Claims, error) {
	if claims, ok := f.claims[token]; ok {
		return claims, nil
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: token}}, nil
}

// noMail satisfies the email service without reaching a server
type noMail struct{}

func (noMail) Verify(ctx context.Context, settings *models.EmailSettings) error { return nil }
func (noMail) SendTest(ctx context.Context, settings *models.EmailSettings, to string) error {
	return errors.New("not sent")
}

type noCache struct{}

func (noCache) Invalidate() {}

// testServer is the full API wired against an in-memory database
type testServer struct {
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	tokens   *fakeTokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	projectStatusRepo := repository.NewProjectStatusRepository(db)
	customFieldRepo := repository.NewCrudRepository[models.CustomField](db)

	visibility := services.NewVisibilityService(userRepo, repository.NewVisibilityRepository(db))
	audit := services.NewAuditService(repository.NewAuditLogRepository(db), log)
	engine := reporting.NewEngine(db, visibility, log)
	authService := services.NewAuthService(userRepo)
	customFields := services.NewCustomFieldService(customFieldRepo, audit)

	h := &Handlers{
		Auth: NewAuthHandler(authService),
		Tasks: NewTaskHandler(
			services.NewTaskService(taskRepo, projectRepo, statusRepo, labelRepo, teamRepo, visibility, services.NopNotifier{}, audit, log),
			services.NewCommentService(repository.NewCommentRepository(db), taskRepo, services.NopNotifier{}, log),
			services.NewChecklistService(repository.NewChecklistRepository(db), taskRepo, audit),
			services.NewFieldValueService(repository.NewFieldValueRepository(db), customFieldRepo, taskRepo, audit),
		),
		Projects: NewProjectHandler(services.NewProjectService(projectRepo, projectStatusRepo, labelRepo, teamRepo, visibility, audit, log)),
		Products: NewProductHandler(services.NewProductService(repository.NewProductRepository(db), visibility, audit)),
		Agencies: NewAgencyHandler(
			services.NewAgencyService(repository.NewAgencyRepository(db), teamRepo, audit),
			services.NewTeamService(teamRepo, audit),
		),
		Labels: NewCatalogHandler(
			services.NewLabelService(labelRepo, audit),
			services.LabelInput.Label, services.LabelInput.Fields, "Label",
		),
		Statuses: NewCatalogHandler(
			services.NewStatusService(statusRepo, audit),
			services.StatusInput.Status, services.StatusInput.Fields, "Status",
		),
		CustomFields: NewCatalogHandler(
			customFields,
			services.CustomFieldInput.CustomField, services.CustomFieldInput.Fields, "Custom field",
		),
		ProjectStatuses: NewCatalogHandler(
			services.NewProjectStatusService(projectStatusRepo, projectRepo, audit),
			services.ProjectStatusInput.ProjectStatus, services.ProjectStatusInput.Fields, "Project status",
		),
		Automations: NewCatalogHandler(
			services.NewAutomationService(repository.NewCrudRepository[models.Automation](db), audit),
			services.AutomationInput.Automation, services.AutomationInput.Fields, "Automation",
		),
		ApprovalWorkflows: NewCatalogHandler(
			services.NewApprovalWorkflowService(repository.NewCrudRepository[models.ApprovalWorkflow](db), audit),
			services.ApprovalWorkflowInput.ApprovalWorkflow, services.ApprovalWorkflowInput.Fields, "Approval workflow",
		),
		SLARules: NewCatalogHandler(
			services.NewSLARuleService(repository.NewCrudRepository[models.SLARule](db), audit),
			services.SLARuleInput.SLARule, services.SLARuleInput.Fields, "SLA rule",
		),
		Admin: NewAdminHandler(
			customFields,
			services.NewEmailService(repository.NewNotificationRepository(db), noMail{}, noCache{}, audit),
			audit,
		),
		Users: NewUserHandler(services.NewUserService(userRepo, audit)),
		Reports: NewReportHandler(
			services.NewReportService(repository.NewReportRepository(db), engine, audit),
			services.NewWidgetReportService(repository.NewWidgetReportRepository(db), engine),
		),
		Health: NewHealthHandler(db),
	}

	tokens := &fakeTokens{claims: map[string]*auth.Claims{}}
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	Register(r, "/api/v1", h, Gates{Tokens: tokens, Users: authService, Visibility: visibility})

	return &testServer{db: db, router: r, handlers: h, tokens: tokens}
}

// do sends a request authenticated as userID (none when empty) and
// returns the recorder
func (s *testServer) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// envelope is the decoded success or error body
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Pagination *struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}
