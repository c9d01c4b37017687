package usecase_test

import (
	"context"
	"testing"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/querybuilder"
	"career-catalog-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockCareerRepo struct {
	mock.Mock
}

func careerResult(args mock.Arguments) (*domain.Career, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Career), args.Error(1)
}

func careersResult(args mock.Arguments) ([]domain.Career, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Career), args.Error(1)
}

func (m *MockCareerRepo) Create(ctx context.Context, career *domain.Career) error {
	return m.Called(ctx, career).Error(0)
}
func (m *MockCareerRepo) CreateBatch(ctx context.Context, careers []domain.Career) error {
	return m.Called(ctx, careers).Error(0)
}
func (m *MockCareerRepo) ReplaceAll(ctx context.Context, careers []domain.Career) error {
	return m.Called(ctx, careers).Error(0)
}
func (m *MockCareerRepo) GetByID(ctx context.Context, id string) (*domain.Career, error) {
	return careerResult(m.Called(ctx, id))
}
func (m *MockCareerRepo) GetBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	return careerResult(m.Called(ctx, slug))
}
func (m *MockCareerRepo) Update(ctx context.Context, career *domain.Career, counters domain.CounterOverride) (*domain.Career, error) {
	args := m.Called(ctx, career, counters)
	if fn, ok := args.Get(0).(func(*domain.Career) *domain.Career); ok {
		return fn(career), args.Error(1)
	}
	return careerResult(args)
}
func (m *MockCareerRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockCareerRepo) Find(ctx context.Context, q querybuilder.Query) ([]domain.Career, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Career), args.Get(1).(int64), args.Error(2)
}
func (m *MockCareerRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Career, error) {
	return careersResult(m.Called(ctx, ids))
}
func (m *MockCareerRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockCareerRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockCareerRepo) IncrementViews(ctx context.Context, id string) (*domain.Career, error) {
	return careerResult(m.Called(ctx, id))
}
func (m *MockCareerRepo) IncrementViewsBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	return careerResult(m.Called(ctx, slug))
}
func (m *MockCareerRepo) Save(ctx context.Context, userID, careerID string) (*domain.Career, error) {
	return careerResult(m.Called(ctx, userID, careerID))
}
func (m *MockCareerRepo) Unsave(ctx context.Context, userID, careerID string) error {
	return m.Called(ctx, userID, careerID).Error(0)
}
func (m *MockCareerRepo) ListSaved(ctx context.Context, userID string) ([]domain.Career, error) {
	return careersResult(m.Called(ctx, userID))
}
func (m *MockCareerRepo) FindByCategory(ctx context.Context, category domain.CareerCategory, excludeID string, limit int) ([]domain.Career, error) {
	return careersResult(m.Called(ctx, category, excludeID, limit))
}
func (m *MockCareerRepo) FindBySharedSubjects(ctx context.Context, subjects []string, excludeID string, limit int) ([]domain.Career, error) {
	return careersResult(m.Called(ctx, subjects, excludeID, limit))
}
func (m *MockCareerRepo) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryCount), args.Error(1)
}
func (m *MockCareerRepo) CountByDemand(ctx context.Context) ([]domain.DemandCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DemandCount), args.Error(1)
}
func (m *MockCareerRepo) ListGradeEntries(ctx context.Context) ([]domain.GradeEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GradeEntry), args.Error(1)
}

type MockInstitutionRepo struct {
	mock.Mock
}

func (m *MockInstitutionRepo) Create(ctx context.Context, institution *domain.Institution) error {
	return m.Called(ctx, institution).Error(0)
}
func (m *MockInstitutionRepo) GetByID(ctx context.Context, id string) (*domain.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Institution), args.Error(1)
}
func (m *MockInstitutionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Institution, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Institution), args.Error(1)
}
func (m *MockInstitutionRepo) Update(ctx context.Context, institution *domain.Institution) error {
	return m.Called(ctx, institution).Error(0)
}
func (m *MockInstitutionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockInstitutionRepo) Find(ctx context.Context, q querybuilder.Query) ([]domain.Institution, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Institution), args.Get(1).(int64), args.Error(2)
}
func (m *MockInstitutionRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Institution, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Institution), args.Error(1)
}
func (m *MockInstitutionRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockInstitutionRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockInstitutionRepo) CountByType(ctx context.Context) ([]domain.TypeCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TypeCount), args.Error(1)
}
func (m *MockInstitutionRepo) CountProgramsByLevel(ctx context.Context) ([]domain.LevelCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LevelCount), args.Error(1)
}

type MockRelationshipRepo struct {
	mock.Mock
}

func (m *MockRelationshipRepo) AddEdge(ctx context.Context, careerID, institutionID, program string) error {
	return m.Called(ctx, careerID, institutionID, program).Error(0)
}
func (m *MockRelationshipRepo) RemoveEdge(ctx context.Context, careerID, institutionID string) error {
	return m.Called(ctx, careerID, institutionID).Error(0)
}
func (m *MockRelationshipRepo) LinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error) {
	args := m.Called(ctx, institutionID, careerIDs)
	return args.Int(0), args.Error(1)
}
func (m *MockRelationshipRepo) UnlinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error) {
	args := m.Called(ctx, institutionID, careerIDs)
	return args.Int(0), args.Error(1)
}
func (m *MockRelationshipRepo) MissingEdges(ctx context.Context) ([]domain.Edge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Edge), args.Error(1)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Append(ctx context.Context, entry *domain.ActivityLog) error {
	return m.Called(ctx, entry).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// Context helpers
func adminCtx() context.Context {
	ctx := context.WithValue(context.Background(), domain.KeyUserID, "admin-1")
	return context.WithValue(ctx, domain.KeyUserRole, domain.RoleAdmin)
}

func userCtx(id string) context.Context {
	ctx := context.WithValue(context.Background(), domain.KeyUserID, id)
	return context.WithValue(ctx, domain.KeyUserRole, "user")
}

func TestGetCurrentUserIDOR(t *testing.T) {
	repo := new(MockUserRepo)
	uc := usecase.NewAuthUsecase(repo)

	t.Run("Should fail when Context UserID does not match Argument UserID", func(t *testing.T) {
		_, err := uc.GetCurrentUser(userCtx("user1"), "user2")
		assert.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("Should fail safely when id is empty", func(t *testing.T) {
		_, err := uc.GetCurrentUser(context.Background(), "")
		assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
	})

	t.Run("Should return own account", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, "user1").Return(&domain.User{ID: "user1", Email: "a@b.co"}, nil).Once()
		user, err := uc.GetCurrentUser(userCtx("user1"), "user1")
		assert.NoError(t, err)
		assert.Equal(t, "a@b.co", user.Email)
	})

	t.Run("Should map missing account to NotFound", func(t *testing.T) {
		repo.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound).Once()
		_, err := uc.GetCurrentUser(adminCtx(), "ghost")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

// Fixtures
var testValidator = validation.New()

func validCareer(title string, category domain.CareerCategory) domain.Career {
	return domain.Career{
		Title:            title,
		Category:         category,
		Description:      "A career profile description that is comfortably longer than fifty characters.",
		KeySubjects:      []string{"Mathematics", "English"},
		MinimumMeanGrade: "B",
		MarketDemand:     domain.DemandHigh,
	}
}

// freeCareerSlugs makes every career slug lookup miss.
func freeCareerSlugs(m *MockCareerRepo) {
	m.On("GetBySlug", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
}

func freeInstitutionSlugs(m *MockInstitutionRepo) {
	m.On("GetBySlug", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
}
