package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memCache) DeletePrefix(_ context.Context, prefix string) error {
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func TestDemandDistributionFollowsScale(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)
	careers.On("CountByDemand", mock.Anything).Return([]domain.DemandCount{
		{Demand: domain.DemandLow, Count: 1},
		{Demand: domain.DemandHigh, Count: 2},
		{Demand: domain.DemandVeryHigh, Count: 3},
	}, nil)

	got, err := uc.DemandDistribution(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.DemandCount{
		{Demand: domain.DemandVeryHigh, Count: 3},
		{Demand: domain.DemandHigh, Count: 2},
		{Demand: domain.DemandLow, Count: 1},
	}, got)
}

func TestCategoryDistributionSortsByCountThenName(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)
	careers.On("CountByCategory", mock.Anything).Return([]domain.CategoryCount{
		{Category: domain.CategoryLaw, Count: 2},
		{Category: domain.CategoryTechnology, Count: 7},
		{Category: domain.CategoryFinance, Count: 2},
	}, nil)

	got, err := uc.CategoryDistribution(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{
		{Category: domain.CategoryTechnology, Count: 7},
		{Category: domain.CategoryFinance, Count: 2},
		{Category: domain.CategoryLaw, Count: 2},
	}, got)
}

func TestAnalyticsServedFromCacheUntilInvalidated(t *testing.T) {
	careers := new(MockCareerRepo)
	mem := newMemCache()
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), mem, time.Minute)
	careers.On("CountByCategory", mock.Anything).Return([]domain.CategoryCount{
		{Category: domain.CategoryScience, Count: 1},
	}, nil)

	for i := 0; i < 3; i++ {
		got, err := uc.CategoryDistribution(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	careers.AssertNumberOfCalls(t, "CountByCategory", 1)

	require.NoError(t, mem.DeletePrefix(context.Background(), "analytics:"))
	_, err := uc.CategoryDistribution(context.Background())
	require.NoError(t, err)
	careers.AssertNumberOfCalls(t, "CountByCategory", 2)
}

func TestTopCareers(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)

	_, err := uc.TopCareers(context.Background(), "clicks", 5)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	q := querybuilder.Query{Sort: []querybuilder.SortField{{Field: "saves", Desc: true}}, Page: 1, Limit: 3}
	careers.On("Find", mock.Anything, q).Return([]domain.Career{
		{ID: "a", Title: "Pilot", Saves: 9, Description: "long text"},
		{ID: "b", Title: "Chef", Saves: 4},
	}, int64(2), nil)

	got, err := uc.TopCareers(context.Background(), domain.MetricSaves, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pilot", got[0].Title)
	assert.Equal(t, int64(9), got[0].Saves)
}

func TestTrendsQueries(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)

	trending := querybuilder.Query{
		Filters: []querybuilder.Filter{{Field: "marketDemand", Op: querybuilder.OpIn, Values: []string{"Very High", "High"}}},
		Sort:    []querybuilder.SortField{{Field: "views", Desc: true}},
		Page:    1,
		Limit:   4,
	}
	emerging := querybuilder.Query{
		Sort:  []querybuilder.SortField{{Field: "createdAt", Desc: true}, {Field: "views", Desc: true}},
		Page:  1,
		Limit: 4,
	}
	careers.On("Find", mock.Anything, trending).Return([]domain.Career{{ID: "t1"}}, int64(1), nil)
	careers.On("Find", mock.Anything, emerging).Return([]domain.Career{{ID: "e1"}, {ID: "t1"}}, int64(2), nil)

	got, err := uc.Trends(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, got.Trending, 1)
	require.Len(t, got.Emerging, 2)
	assert.Equal(t, "t1", got.Trending[0].ID)
	assert.Equal(t, "e1", got.Emerging[0].ID)
}

func TestGradeDistributionBestGradeFirst(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)
	careers.On("ListGradeEntries", mock.Anything).Return([]domain.GradeEntry{
		{Grade: "C+", Title: "Chef", Category: domain.CategoryHospitality},
		{Grade: "A", Title: "Doctor", Category: domain.CategoryHealthcare},
		{Grade: "B-", Title: "Nurse", Category: domain.CategoryHealthcare},
		{Grade: "A", Title: "Pilot", Category: domain.CategoryTransport},
	}, nil)

	got, err := uc.GradeDistribution(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.MeanGrade("A"), got[0].Grade)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "Doctor", got[0].Careers[0].Title)
	assert.Equal(t, domain.MeanGrade("B-"), got[1].Grade)
	assert.Equal(t, domain.MeanGrade("C+"), got[2].Grade)
}

func TestSalaryRanking(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)
	q := querybuilder.Query{Sort: []querybuilder.SortField{{Field: "salary.entry", Desc: true}}, Page: 1, Limit: 10}
	careers.On("Find", mock.Anything, q).Return([]domain.Career{
		{ID: "a", Title: "Surgeon", Salary: domain.SalaryRange{Entry: domain.SalaryAmount(250000), Senior: domain.SalaryText("Negotiable")}},
	}, int64(1), nil)

	got, err := uc.SalaryRanking(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Surgeon", got[0].Title)
	require.NotNil(t, got[0].EntrySalary.Amount)
	assert.Equal(t, 250000.0, *got[0].EntrySalary.Amount)
	assert.Equal(t, "Negotiable", got[0].SeniorSalary.Text)
}

func TestRelatedCareersExcludeSelfAndCapAtFive(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)

	self := &domain.Career{ID: "fin", Category: domain.CategoryFinance, KeySubjects: []string{"Mathematics"}}
	careers.On("GetByID", mock.Anything, "fin").Return(self, nil)

	many := []domain.Career{*self}
	for i := 0; i < 7; i++ {
		many = append(many, domain.Career{ID: fmt.Sprintf("f%d", i), Category: domain.CategoryFinance})
	}
	careers.On("FindByCategory", mock.Anything, domain.CategoryFinance, "fin", 5).Return(many, nil)
	careers.On("FindBySharedSubjects", mock.Anything, []string{"Mathematics"}, "fin", 5).
		Return([]domain.Career{{ID: "f1"}, {ID: "eng"}}, nil)

	got, err := uc.RelatedCareers(context.Background(), "fin")

	require.NoError(t, err)
	assert.Len(t, got.SameCategory, 5)
	assert.Len(t, got.SharedSubjects, 2)
	for _, list := range [][]domain.CareerSummary{got.SameCategory, got.SharedSubjects} {
		for _, c := range list {
			assert.NotEqual(t, "fin", c.ID)
		}
	}
}

func TestRelatedCareersUnknownCareer(t *testing.T) {
	careers := new(MockCareerRepo)
	uc := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), cache.Noop{}, time.Minute)
	careers.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := uc.RelatedCareers(context.Background(), "ghost")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCareerStatsOverview(t *testing.T) {
	careers := new(MockCareerRepo)
	institutions := new(MockInstitutionRepo)
	uc := usecase.NewAnalyticsUsecase(careers, institutions, cache.Noop{}, time.Minute)

	careers.On("Count", mock.Anything).Return(int64(12), nil)
	institutions.On("Count", mock.Anything).Return(int64(4), nil)
	careers.On("CountByCategory", mock.Anything).Return([]domain.CategoryCount{{Category: domain.CategoryLaw, Count: 12}}, nil)
	careers.On("CountByDemand", mock.Anything).Return([]domain.DemandCount{{Demand: domain.DemandMedium, Count: 12}}, nil)
	careers.On("Find", mock.Anything, mock.Anything).Return([]domain.Career{{ID: "a"}}, int64(1), nil)

	got, err := uc.CareerStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), got.TotalCareers)
	assert.Equal(t, int64(4), got.TotalInstitutions)
	assert.Len(t, got.CategoryDistribution, 1)
	assert.Len(t, got.DemandDistribution, 1)
	assert.Len(t, got.TopViewed, 1)
	assert.Len(t, got.TopSaved, 1)
}

func TestInstitutionStatsOrdering(t *testing.T) {
	institutions := new(MockInstitutionRepo)
	uc := usecase.NewAnalyticsUsecase(new(MockCareerRepo), institutions, cache.Noop{}, time.Minute)

	institutions.On("Count", mock.Anything).Return(int64(5), nil)
	institutions.On("CountByType", mock.Anything).Return([]domain.TypeCount{
		{Type: domain.InstitutionCollege, Count: 1},
		{Type: domain.InstitutionUniversity, Count: 4},
	}, nil)
	institutions.On("CountProgramsByLevel", mock.Anything).Return([]domain.LevelCount{
		{Level: "PhD", Count: 1},
		{Level: "Certificate", Count: 6},
		{Level: "Bachelor's Degree", Count: 9},
	}, nil)

	got, err := uc.InstitutionStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.InstitutionUniversity, got.ByType[0].Type)
	assert.Equal(t, []domain.ProgramLevel{"Certificate", "Bachelor's Degree", "PhD"},
		[]domain.ProgramLevel{got.ProgramsByLevel[0].Level, got.ProgramsByLevel[1].Level, got.ProgramsByLevel[2].Level})
}

func TestTopCareersReflectsViewsImmediately(t *testing.T) {
	careers := new(MockCareerRepo)
	mem := newMemCache()
	analytics := usecase.NewAnalyticsUsecase(careers, new(MockInstitutionRepo), mem, time.Minute)
	careerUC := usecase.NewCareerUsecase(careers, new(MockInstitutionRepo), new(MockRelationshipRepo),
		new(MockActivityRepo), new(MockPublisher), mem, testValidator)

	q := querybuilder.Query{Sort: []querybuilder.SortField{{Field: "views", Desc: true}}, Page: 1, Limit: 5}
	careers.On("Find", mock.Anything, q).Return([]domain.Career{{ID: "c1", Title: "Nurse", Views: 0}}, int64(1), nil).Once()
	careers.On("Find", mock.Anything, q).Return([]domain.Career{{ID: "c1", Title: "Nurse", Views: 3}}, int64(1), nil).Once()
	stored := &domain.Career{ID: "c1", Title: "Nurse"}
	careers.On("IncrementViews", mock.Anything, "c1").
		Run(func(mock.Arguments) { stored.Views++ }).
		Return(stored, nil)

	before, err := analytics.TopCareers(context.Background(), domain.MetricViews, 5)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, int64(0), before[0].Views)

	for i := 0; i < 3; i++ {
		_, err := careerUC.GetCareer(context.Background(), "c1")
		require.NoError(t, err)
	}

	after, err := analytics.TopCareers(context.Background(), domain.MetricViews, 5)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, stored.Views, after[0].Views)
	careers.AssertNumberOfCalls(t, "Find", 2)
}
