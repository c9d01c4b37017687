package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"career-catalog-backend/config"
	"career-catalog-backend/internal/delivery/http/middleware"
	v1 "career-catalog-backend/internal/delivery/http/v1"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/auth"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Mock usecases

type MockCareerUsecase struct {
	mock.Mock
}

func careerOrNil(args mock.Arguments) (*domain.Career, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Career), args.Error(1)
}

func (m *MockCareerUsecase) ListCareers(ctx context.Context, q querybuilder.Query) (*domain.PageResult[domain.Career], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PageResult[domain.Career]), args.Error(1)
}
func (m *MockCareerUsecase) GetCareer(ctx context.Context, id string) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, id))
}
func (m *MockCareerUsecase) GetCareerBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, slug))
}
func (m *MockCareerUsecase) CreateCareer(ctx context.Context, career *domain.Career) error {
	return m.Called(ctx, career).Error(0)
}
func (m *MockCareerUsecase) UpdateCareer(ctx context.Context, id string, patch domain.CareerPatch) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, id, patch))
}
func (m *MockCareerUsecase) DeleteCareer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockCareerUsecase) AddInstitutionToCareer(ctx context.Context, careerID, institutionID, program string) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, careerID, institutionID, program))
}
func (m *MockCareerUsecase) RemoveInstitutionFromCareer(ctx context.Context, careerID, institutionID string) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, careerID, institutionID))
}
func (m *MockCareerUsecase) SaveCareer(ctx context.Context, careerID string) (*domain.Career, error) {
	return careerOrNil(m.Called(ctx, careerID))
}
func (m *MockCareerUsecase) UnsaveCareer(ctx context.Context, careerID string) error {
	return m.Called(ctx, careerID).Error(0)
}
func (m *MockCareerUsecase) ListSavedCareers(ctx context.Context) ([]domain.Career, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Career), args.Error(1)
}

type MockBootstrapUsecase struct {
	mock.Mock
}

func (m *MockBootstrapUsecase) Run(ctx context.Context, input domain.BootstrapInput) (*domain.BootstrapReport, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BootstrapReport), args.Error(1)
}
func (m *MockBootstrapUsecase) Running() bool {
	return m.Called().Bool(0)
}
func (m *MockBootstrapUsecase) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsistencyReport), args.Error(1)
}
func (m *MockBootstrapUsecase) RepairConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsistencyReport), args.Error(1)
}

type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// Helpers

func asRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(domain.KeyUserID), "user-1")
		c.Set(string(domain.KeyUserRole), role)
		c.Next()
	}
}

func careerEngine(uc domain.CareerUsecase, role string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(), asRole(role))
	g := r.Group("/v1")
	v1.NewCareerHandler(g, g, g, uc)
	return r
}

func do(r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Count      *int                     `json:"count"`
	Pagination *querybuilder.Pagination `json:"pagination"`
	Data       json.RawMessage          `json:"data"`
	Error      map[string]interface{}   `json:"error"`
}

func parse(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// Tests

func TestListCareersBuildsQueryAndProjects(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, "")

	uc.On("ListCareers", mock.Anything, mock.MatchedBy(func(q querybuilder.Query) bool {
		return len(q.Filters) == 1 &&
			q.Filters[0].Field == "category" &&
			q.Filters[0].Value() == "Technology" &&
			len(q.Sort) == 1 && q.Sort[0].Field == "views" && q.Sort[0].Desc &&
			q.Limit == 2
	})).Return(&domain.PageResult[domain.Career]{
		Data: []domain.Career{
			{ID: "a", Title: "Data Scientist", Views: 9},
			{ID: "b", Title: "Software Engineer", Views: 4},
		},
		Pagination: querybuilder.Paginate(1, 2, 5),
	}, nil)

	w := do(r, http.MethodGet, "/v1/careers?category=Technology&sort=-views&limit=2&select=title", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := parse(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(5), env.Pagination.Total)
	require.NotNil(t, env.Pagination.Next)
	assert.Nil(t, env.Pagination.Prev)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, map[string]interface{}{"id": "a", "title": "Data Scientist"}, items[0])
}

func TestListCareersUnknownFieldIs400(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, "")
	uc.On("ListCareers", mock.Anything, mock.Anything).
		Return(nil, apperror.Validation("unknown field: color", nil))

	w := do(r, http.MethodGet, "/v1/careers?color=blue", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", parse(t, w).Error["kind"])
}

func TestGetCareerNotFound(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, "")
	uc.On("GetCareer", mock.Anything, "missing").Return(nil, apperror.NotFound("Career", "missing"))

	w := do(r, http.MethodGet, "/v1/careers/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := parse(t, w)
	assert.Equal(t, "Career", env.Error["entity"])
	assert.Equal(t, "missing", env.Error["id"])
}

func TestGetCareerBySlugRoute(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, "")
	uc.On("GetCareerBySlug", mock.Anything, "data-scientist").Return(&domain.Career{ID: "a", Slug: "data-scientist"}, nil)

	w := do(r, http.MethodGet, "/v1/careers/slug/data-scientist", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestAddInstitutionHandler(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, domain.RoleAdmin)

	t.Run("binds body", func(t *testing.T) {
		uc.On("AddInstitutionToCareer", mock.Anything, "c1", "i1", "BSc Nursing").
			Return(&domain.Career{ID: "c1", Institutions: []string{"i1"}}, nil).Once()

		w := do(r, http.MethodPost, "/v1/careers/c1/institutions", map[string]string{
			"institutionId": "i1",
			"program":       "BSc Nursing",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing institution id", func(t *testing.T) {
		w := do(r, http.MethodPost, "/v1/careers/c1/institutions", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("second add conflicts", func(t *testing.T) {
		uc.On("AddInstitutionToCareer", mock.Anything, "c1", "i1", "").
			Return(nil, apperror.Conflict("Institution already linked to career")).Once()

		w := do(r, http.MethodPost, "/v1/careers/c1/institutions", map[string]string{"institutionId": "i1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCreateCareerPassesRoleThroughContext(t *testing.T) {
	uc := new(MockCareerUsecase)
	r := careerEngine(uc, domain.RoleAdmin)

	uc.On("CreateCareer", mock.MatchedBy(func(ctx context.Context) bool {
		role, _ := ctx.Value(string(domain.KeyUserRole)).(string)
		return role == domain.RoleAdmin
	}), mock.MatchedBy(func(c *domain.Career) bool { return c.Title == "Pilot" })).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Career).Slug = "pilot"
		}).
		Return(nil)

	w := do(r, http.MethodPost, "/v1/careers", map[string]string{"title": "Pilot"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(parse(t, w).Data), `"slug":"pilot"`)
}

// Router level: real auth middleware with an HS256 token.

const testSecret = "test-secret"

func token(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newTestRouter(authUC domain.AuthUsecase, bootstrapUC domain.BootstrapUsecase) *gin.Engine {
	return v1.NewRouter(v1.RouterDeps{
		AuthUC:       authUC,
		CareerUC:     new(MockCareerUsecase),
		BootstrapUC:  bootstrapUC,
		HealthUC:     usecase.NewHealthUsecase(bootstrapUC, nil),
		JWKSProvider: auth.NewProvider(""),
		Config: &config.Config{
			JWTSecret:                testSecret,
			GinMode:                  gin.TestMode,
			RateLimitWindowSeconds:   60,
			RateLimitGlobalThreshold: 1000,
		},
	})
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	authUC := new(MockAuthUsecase)
	bootstrapUC := new(MockBootstrapUsecase)
	r := newTestRouter(authUC, bootstrapUC)

	authUC.On("GetCurrentUser", mock.Anything, "admin-1").Return(&domain.User{ID: "admin-1", Role: domain.RoleAdmin}, nil)
	authUC.On("GetCurrentUser", mock.Anything, "user-1").Return(nil, apperror.NotFound("User", "user-1"))
	bootstrapUC.On("CheckConsistency", mock.Anything).Return(&domain.ConsistencyReport{MissingEdges: []domain.Edge{}}, nil)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/admin/consistency", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/admin/consistency", nil, "Authorization", "Bearer nonsense").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/v1/admin/consistency", nil, "Authorization", token(t, "user-1")).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/admin/consistency", nil, "Authorization", token(t, "admin-1")).Code)
}

func TestBootstrapConflictWhileRunning(t *testing.T) {
	authUC := new(MockAuthUsecase)
	bootstrapUC := new(MockBootstrapUsecase)
	r := newTestRouter(authUC, bootstrapUC)

	authUC.On("GetCurrentUser", mock.Anything, "admin-1").Return(&domain.User{ID: "admin-1", Role: domain.RoleAdmin}, nil)
	bootstrapUC.On("Run", mock.Anything, mock.Anything).Return(nil, apperror.Conflict("A bootstrap is already running"))

	w := do(r, http.MethodPost, "/v1/admin/bootstrap", domain.BootstrapInput{}, "Authorization", token(t, "admin-1"))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealthReportsBootstrapping(t *testing.T) {
	bootstrapUC := new(MockBootstrapUsecase)
	r := newTestRouter(new(MockAuthUsecase), bootstrapUC)

	bootstrapUC.On("Running").Return(false).Once()
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/v1/health", nil).Code)

	bootstrapUC.On("Running").Return(true).Once()
	w := do(r, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "bootstrapping", parse(t, w).Error["status"])
}
