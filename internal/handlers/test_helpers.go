package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkgauth "github.com/BradenHooton/prospectiva/pkg/auth"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext attaches a validated session to the request, as the
// Authenticate middleware would
func WithSessionContext(req *http.Request, userID, email, role string) *http.Request {
	session := &models.Session{
		TokenID: "test-token-id",
		UserID:  userID,
		Email:   email,
		Role:    role,
	}
	return req.WithContext(auth.WithSession(req.Context(), session))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc                 func(ctx context.Context, email, password string) (*services.AuthResult, error)
	RegisterFunc              func(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error)
	LogoutFunc                func(ctx context.Context, session *models.Session) error
	CheckPasswordStrengthFunc func(lang, password string) pkgauth.PasswordAssessment
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, input)
}

func (m *MockAuthService) Logout(ctx context.Context, session *models.Session) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, session)
}

func (m *MockAuthService) CheckPasswordStrength(lang, password string) pkgauth.PasswordAssessment {
	if m.CheckPasswordStrengthFunc == nil {
		return pkgauth.ValidatePasswordStrengthIn(lang, password)
	}
	return m.CheckPasswordStrengthFunc(lang, password)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserByIDFunc func(ctx context.Context, id string) (*models.User, error)
	ListUsersFunc   func(ctx context.Context, limit, offset int) (*services.UserPage, error)
	UpdateUserFunc  func(ctx context.Context, actorID, id string, update models.UserUpdate) (*models.User, error)
	DeleteUserFunc  func(ctx context.Context, actorID, id string) error
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetUserByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) (*services.UserPage, error) {
	if m.ListUsersFunc == nil {
		return &services.UserPage{Users: []*models.User{}, Limit: limit, Offset: offset}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}

func (m *MockUserService) UpdateUser(ctx context.Context, actorID, id string, update models.UserUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, actorID, id, update)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if m.DeleteUserFunc == nil {
		return nil
	}
	return m.DeleteUserFunc(ctx, actorID, id)
}

// MockTechniqueService implements TechniqueService for testing
type MockTechniqueService struct {
	LoadTechniquesFunc  func(ctx context.Context, lang string) services.CatalogResult
	StatsFunc           func(ctx context.Context, lang string) (models.TechniqueStats, string)
	GetTechniqueFunc    func(ctx context.Context, lang, id string) (*models.Technique, error)
	CreateTechniqueFunc func(ctx context.Context, t models.Technique) (*models.Technique, error)
}

func (m *MockTechniqueService) LoadTechniques(ctx context.Context, lang string) services.CatalogResult {
	if m.LoadTechniquesFunc == nil {
		return services.CatalogResult{Techniques: []models.Technique{}, Source: models.SourceFallback}
	}
	return m.LoadTechniquesFunc(ctx, lang)
}

func (m *MockTechniqueService) Stats(ctx context.Context, lang string) (models.TechniqueStats, string) {
	if m.StatsFunc == nil {
		return services.ComputeStats(nil), models.SourceFallback
	}
	return m.StatsFunc(ctx, lang)
}

func (m *MockTechniqueService) GetTechnique(ctx context.Context, lang, id string) (*models.Technique, error) {
	if m.GetTechniqueFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetTechniqueFunc(ctx, lang, id)
}

func (m *MockTechniqueService) CreateTechnique(ctx context.Context, t models.Technique) (*models.Technique, error) {
	if m.CreateTechniqueFunc == nil {
		return &t, nil
	}
	return m.CreateTechniqueFunc(ctx, t)
}

// MockAccessLogService implements AccessLogService for testing
type MockAccessLogService struct {
	ListLogsFunc func(ctx context.Context, filter models.AccessLogFilter) (*services.AccessLogPage, error)
	StatsFunc    func(ctx context.Context) (*services.AccessLogStats, error)
}

func (m *MockAccessLogService) ListLogs(ctx context.Context, filter models.AccessLogFilter) (*services.AccessLogPage, error) {
	if m.ListLogsFunc == nil {
		return &services.AccessLogPage{Logs: []*models.AccessLog{}, Limit: filter.Limit, Offset: filter.Offset}, nil
	}
	return m.ListLogsFunc(ctx, filter)
}

func (m *MockAccessLogService) Stats(ctx context.Context) (*services.AccessLogStats, error) {
	if m.StatsFunc == nil {
		return &services.AccessLogStats{ByEventType: map[string]int64{}}, nil
	}
	return m.StatsFunc(ctx)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
