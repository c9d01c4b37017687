package domain

import "context"

type CategoryCount struct {
	Category CareerCategory `json:"category"`
	Count    int64          `json:"count"`
}

type DemandCount struct {
	Demand MarketDemand `json:"marketDemand"`
	Count  int64        `json:"count"`
}

type TypeCount struct {
	Type  InstitutionType `json:"type"`
	Count int64           `json:"count"`
}

type LevelCount struct {
	Level ProgramLevel `json:"level"`
	Count int64        `json:"count"`
}

// GradeEntry is one career as seen by the grade distribution.
type GradeEntry struct {
	Grade    MeanGrade      `json:"-"`
	Title    string         `json:"title"`
	Category CareerCategory `json:"category"`
}

type GradeGroup struct {
	Grade   MeanGrade    `json:"grade"`
	Count   int          `json:"count"`
	Careers []GradeEntry `json:"careers"`
}

type SalaryRow struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Category     CareerCategory `json:"category"`
	EntrySalary  SalaryValue    `json:"entrySalary"`
	MidSalary    SalaryValue    `json:"midSalary"`
	SeniorSalary SalaryValue    `json:"seniorSalary"`
}

type Trends struct {
	Trending []CareerSummary `json:"trending"`
	Emerging []CareerSummary `json:"emerging"`
}

// RelatedCareers holds two independent lists; a career may appear in both.
type RelatedCareers struct {
	SameCategory   []CareerSummary `json:"sameCategory"`
	SharedSubjects []CareerSummary `json:"sharedSubjects"`
}

type CareerStats struct {
	TotalCareers         int64           `json:"totalCareers"`
	TotalInstitutions    int64           `json:"totalInstitutions"`
	CategoryDistribution []CategoryCount `json:"categoryDistribution"`
	DemandDistribution   []DemandCount   `json:"demandDistribution"`
	TopViewed            []CareerSummary `json:"topViewed"`
	TopSaved             []CareerSummary `json:"topSaved"`
}

type InstitutionStats struct {
	TotalInstitutions int64        `json:"totalInstitutions"`
	ByType            []TypeCount  `json:"byType"`
	ProgramsByLevel   []LevelCount `json:"programsByLevel"`
}

// PopularityMetric selects the counter used by top-N rankings.
type PopularityMetric string

const (
	MetricViews PopularityMetric = "views"
	MetricSaves PopularityMetric = "saves"
)

type AnalyticsUsecase interface {
	CategoryDistribution(ctx context.Context) ([]CategoryCount, error)
	DemandDistribution(ctx context.Context) ([]DemandCount, error)
	TopCareers(ctx context.Context, metric PopularityMetric, n int) ([]CareerSummary, error)
	Trends(ctx context.Context, n int) (*Trends, error)
	GradeDistribution(ctx context.Context) ([]GradeGroup, error)
	SalaryRanking(ctx context.Context, n int) ([]SalaryRow, error)
	RelatedCareers(ctx context.Context, careerID string) (*RelatedCareers, error)
	CareerStats(ctx context.Context) (*CareerStats, error)
	InstitutionStats(ctx context.Context) (*InstitutionStats, error)
}
