package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/logger"
	"career-catalog-backend/pkg/querybuilder"
)

// analyticsCachePrefix namespaces every cached analytics result. Only
// groupings that change on admin writes are cached; writes drop the whole
// namespace.
const analyticsCachePrefix = "analytics:"

const (
	defaultTopN   = 10
	statsTopN     = 5
	defaultTTL    = 5 * time.Minute
	maxAnalyticsN = querybuilder.MaxLimit
)

type analyticsUsecase struct {
	careerRepo      domain.CareerRepository
	institutionRepo domain.InstitutionRepository
	cache           cache.Cache
	ttl             time.Duration
}

func NewAnalyticsUsecase(careerRepo domain.CareerRepository, institutionRepo domain.InstitutionRepository, c cache.Cache, ttl time.Duration) domain.AnalyticsUsecase {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &analyticsUsecase{
		careerRepo:      careerRepo,
		institutionRepo: institutionRepo,
		cache:           c,
		ttl:             ttl,
	}
}

// cached serves key from the cache or computes it with load. Cache failures
// only cost a recomputation.
func cached[T any](ctx context.Context, u *analyticsUsecase, key string, load func() (T, error)) (T, error) {
	var v T
	err := u.cache.GetJSON(ctx, analyticsCachePrefix+key, &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Log.Warn("analytics cache read failed", "key", key, "error", err)
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := u.cache.SetJSON(ctx, analyticsCachePrefix+key, v, u.ttl); err != nil {
		logger.Log.Warn("analytics cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func normalizeN(n int) int {
	if n < 1 {
		return defaultTopN
	}
	if n > maxAnalyticsN {
		return maxAnalyticsN
	}
	return n
}

// CategoryDistribution is ordered by count descending, then category name.
func (u *analyticsUsecase) CategoryDistribution(ctx context.Context) ([]domain.CategoryCount, error) {
	return cached(ctx, u, "categories", func() ([]domain.CategoryCount, error) {
		counts, err := u.careerRepo.CountByCategory(ctx)
		if err != nil {
			return nil, storeError(err, "Career", "")
		}
		sort.SliceStable(counts, func(i, j int) bool {
			if counts[i].Count != counts[j].Count {
				return counts[i].Count > counts[j].Count
			}
			return counts[i].Category < counts[j].Category
		})
		return counts, nil
	})
}

// DemandDistribution follows the demand scale (Very High first). Levels with
// no careers are omitted.
func (u *analyticsUsecase) DemandDistribution(ctx context.Context) ([]domain.DemandCount, error) {
	return cached(ctx, u, "demand", func() ([]domain.DemandCount, error) {
		counts, err := u.careerRepo.CountByDemand(ctx)
		if err != nil {
			return nil, storeError(err, "Career", "")
		}
		out := make([]domain.DemandCount, 0, len(counts))
		for _, c := range counts {
			if c.Count > 0 {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return demandOrder(out[i].Demand) < demandOrder(out[j].Demand)
		})
		return out, nil
	})
}

func demandOrder(d domain.MarketDemand) int {
	if r := d.Rank(); r >= 0 {
		return r
	}
	return len(domain.MarketDemands)
}

func (u *analyticsUsecase) TopCareers(ctx context.Context, metric domain.PopularityMetric, n int) ([]domain.CareerSummary, error) {
	if metric != domain.MetricViews && metric != domain.MetricSaves {
		return nil, apperror.Validation(fmt.Sprintf("unknown popularity metric %q", metric), nil)
	}
	n = normalizeN(n)

	// Counters move on every read, so rankings are never cached.
	return u.summaries(ctx, querybuilder.Query{
		Sort:  []querybuilder.SortField{{Field: string(metric), Desc: true}},
		Page:  1,
		Limit: n,
	})
}

// Trends returns the high-demand careers by views and the most recent
// careers by creation time then views. The lists may overlap.
func (u *analyticsUsecase) Trends(ctx context.Context, n int) (*domain.Trends, error) {
	n = normalizeN(n)

	trending, err := u.summaries(ctx, querybuilder.Query{
		Filters: []querybuilder.Filter{{
			Field:  "marketDemand",
			Op:     querybuilder.OpIn,
			Values: []string{string(domain.DemandVeryHigh), string(domain.DemandHigh)},
		}},
		Sort:  []querybuilder.SortField{{Field: "views", Desc: true}},
		Page:  1,
		Limit: n,
	})
	if err != nil {
		return nil, err
	}

	emerging, err := u.summaries(ctx, querybuilder.Query{
		Sort: []querybuilder.SortField{
			{Field: "createdAt", Desc: true},
			{Field: "views", Desc: true},
		},
		Page:  1,
		Limit: n,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Trends{Trending: trending, Emerging: emerging}, nil
}

// GradeDistribution groups careers by minimum mean grade, best grade first.
func (u *analyticsUsecase) GradeDistribution(ctx context.Context) ([]domain.GradeGroup, error) {
	return cached(ctx, u, "grades", func() ([]domain.GradeGroup, error) {
		entries, err := u.careerRepo.ListGradeEntries(ctx)
		if err != nil {
			return nil, storeError(err, "Career", "")
		}

		byGrade := map[domain.MeanGrade]*domain.GradeGroup{}
		var groups []*domain.GradeGroup
		for _, e := range entries {
			g, ok := byGrade[e.Grade]
			if !ok {
				g = &domain.GradeGroup{Grade: e.Grade, Careers: []domain.GradeEntry{}}
				byGrade[e.Grade] = g
				groups = append(groups, g)
			}
			g.Careers = append(g.Careers, e)
			g.Count++
		}

		sort.SliceStable(groups, func(i, j int) bool {
			return gradeOrder(groups[i].Grade) < gradeOrder(groups[j].Grade)
		})

		out := make([]domain.GradeGroup, 0, len(groups))
		for _, g := range groups {
			out = append(out, *g)
		}
		return out, nil
	})
}

func gradeOrder(g domain.MeanGrade) int {
	if r := g.Rank(); r >= 0 {
		return r
	}
	return len(domain.MeanGrades)
}

// SalaryRanking orders by numeric entry salary. Free-text salaries sort last.
func (u *analyticsUsecase) SalaryRanking(ctx context.Context, n int) ([]domain.SalaryRow, error) {
	n = normalizeN(n)

	return cached(ctx, u, fmt.Sprintf("salary:%d", n), func() ([]domain.SalaryRow, error) {
		careers, _, err := u.careerRepo.Find(ctx, querybuilder.Query{
			Sort:  []querybuilder.SortField{{Field: "salary.entry", Desc: true}},
			Page:  1,
			Limit: n,
		})
		if err != nil {
			return nil, storeError(err, "Career", "")
		}

		rows := make([]domain.SalaryRow, 0, len(careers))
		for _, c := range careers {
			rows = append(rows, domain.SalaryRow{
				ID:           c.ID,
				Title:        c.Title,
				Category:     c.Category,
				EntrySalary:  c.Salary.Entry,
				MidSalary:    c.Salary.Mid,
				SeniorSalary: c.Salary.Senior,
			})
		}
		return rows, nil
	})
}

// RelatedCareers returns two independent lists. Neither contains the career itself.
func (u *analyticsUsecase) RelatedCareers(ctx context.Context, careerID string) (*domain.RelatedCareers, error) {
	career, err := u.careerRepo.GetByID(ctx, careerID)
	if err != nil {
		return nil, storeError(err, "Career", careerID)
	}

	sameCategory, err := u.careerRepo.FindByCategory(ctx, career.Category, career.ID, relatedLimit)
	if err != nil {
		return nil, storeError(err, "Career", careerID)
	}
	sharedSubjects, err := u.careerRepo.FindBySharedSubjects(ctx, career.KeySubjects, career.ID, relatedLimit)
	if err != nil {
		return nil, storeError(err, "Career", careerID)
	}

	return &domain.RelatedCareers{
		SameCategory:   relatedSummaries(sameCategory, career.ID),
		SharedSubjects: relatedSummaries(sharedSubjects, career.ID),
	}, nil
}

func relatedSummaries(careers []domain.Career, self string) []domain.CareerSummary {
	out := make([]domain.CareerSummary, 0, relatedLimit)
	for i := range careers {
		if careers[i].ID == self {
			continue
		}
		out = append(out, careers[i].Summary())
		if len(out) == relatedLimit {
			break
		}
	}
	return out
}

func (u *analyticsUsecase) CareerStats(ctx context.Context) (*domain.CareerStats, error) {
	totalCareers, err := u.careerRepo.Count(ctx)
	if err != nil {
		return nil, storeError(err, "Career", "")
	}
	totalInstitutions, err := u.institutionRepo.Count(ctx)
	if err != nil {
		return nil, storeError(err, "Institution", "")
	}
	categories, err := u.CategoryDistribution(ctx)
	if err != nil {
		return nil, err
	}
	demand, err := u.DemandDistribution(ctx)
	if err != nil {
		return nil, err
	}
	topViewed, err := u.TopCareers(ctx, domain.MetricViews, statsTopN)
	if err != nil {
		return nil, err
	}
	topSaved, err := u.TopCareers(ctx, domain.MetricSaves, statsTopN)
	if err != nil {
		return nil, err
	}

	return &domain.CareerStats{
		TotalCareers:         totalCareers,
		TotalInstitutions:    totalInstitutions,
		CategoryDistribution: categories,
		DemandDistribution:   demand,
		TopViewed:            topViewed,
		TopSaved:             topSaved,
	}, nil
}

func (u *analyticsUsecase) InstitutionStats(ctx context.Context) (*domain.InstitutionStats, error) {
	return cached(ctx, u, "institutions", func() (*domain.InstitutionStats, error) {
		total, err := u.institutionRepo.Count(ctx)
		if err != nil {
			return nil, storeError(err, "Institution", "")
		}
		byType, err := u.institutionRepo.CountByType(ctx)
		if err != nil {
			return nil, storeError(err, "Institution", "")
		}
		levels, err := u.institutionRepo.CountProgramsByLevel(ctx)
		if err != nil {
			return nil, storeError(err, "Institution", "")
		}

		sort.SliceStable(byType, func(i, j int) bool {
			if byType[i].Count != byType[j].Count {
				return byType[i].Count > byType[j].Count
			}
			return byType[i].Type < byType[j].Type
		})
		sort.SliceStable(levels, func(i, j int) bool {
			return levelOrder(levels[i].Level) < levelOrder(levels[j].Level)
		})

		return &domain.InstitutionStats{
			TotalInstitutions: total,
			ByType:            byType,
			ProgramsByLevel:   levels,
		}, nil
	})
}

func levelOrder(l domain.ProgramLevel) int {
	for i, v := range domain.ProgramLevels {
		if v == l {
			return i
		}
	}
	return len(domain.ProgramLevels)
}

func (u *analyticsUsecase) summaries(ctx context.Context, q querybuilder.Query) ([]domain.CareerSummary, error) {
	careers, _, err := u.careerRepo.Find(ctx, q)
	if err != nil {
		return nil, storeError(err, "Career", "")
	}
	out := make([]domain.CareerSummary, 0, len(careers))
	for i := range careers {
		out = append(out, careers[i].Summary())
	}
	return out, nil
}
