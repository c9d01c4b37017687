package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"career-catalog-backend/pkg/querybuilder"
)

// SalaryValue is either a number or free-form text such as "Ksh 50,000 - 80,000".
type SalaryValue struct {
	Amount *float64
	Text   string
}

func SalaryAmount(v float64) SalaryValue { return SalaryValue{Amount: &v} }

func SalaryText(s string) SalaryValue { return SalaryValue{Text: s} }

func (s SalaryValue) IsZero() bool { return s.Amount == nil && s.Text == "" }

func (s SalaryValue) MarshalJSON() ([]byte, error) {
	if s.Amount != nil {
		return []byte(strconv.FormatFloat(*s.Amount, 'f', -1, 64)), nil
	}
	if s.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s.Text)
}

func (s *SalaryValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = SalaryValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &s.Text)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	s.Amount = &f
	return nil
}

type SalaryRange struct {
	Entry  SalaryValue `json:"entry"`
	Mid    SalaryValue `json:"mid"`
	Senior SalaryValue `json:"senior"`
}

type CareerPathStage struct {
	Roles       []string `json:"roles"`
	Experience  string   `json:"experience"`
	Description string   `json:"description"`
}

type CareerPath struct {
	Entry     CareerPathStage `json:"entry"`
	Mid       CareerPathStage `json:"mid"`
	Senior    CareerPathStage `json:"senior"`
	Executive CareerPathStage `json:"executive"`
}

type Certification struct {
	Name        string `json:"name" validate:"required"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
}

type Career struct {
	ID               string          `json:"id"`
	Title            string          `json:"title" validate:"required,min=2,max=150"`
	Slug             string          `json:"slug"`
	Category         CareerCategory  `json:"category" validate:"required,career_category"`
	Description      string          `json:"description" validate:"required,min=50,max=2000"`
	KeySubjects      []string        `json:"keySubjects" validate:"required,min=1,dive,required"`
	JobProspects     []string        `json:"jobProspects" validate:"dive,required"`
	Salary           SalaryRange     `json:"salary"`
	Duration         string          `json:"duration"`
	SkillsRequired   []string        `json:"skillsRequired" validate:"dive,required"`
	CareerPath       CareerPath      `json:"careerPath"`
	Certifications   []Certification `json:"certifications" validate:"dive"`
	IndustryTrends   []string        `json:"industryTrends" validate:"dive,required"`
	MinimumMeanGrade MeanGrade       `json:"minimumMeanGrade" validate:"required,mean_grade"`
	MarketDemand     MarketDemand    `json:"marketDemand" validate:"required,market_demand"`
	Views            int64           `json:"views" validate:"min=0"`
	Saves            int64           `json:"saves" validate:"min=0"`
	Institutions     []string        `json:"institutions"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	// InstitutionDetails is filled only when institutions are populated.
	InstitutionDetails []Institution `json:"institutionDetails,omitempty" validate:"-"`
}

// HasInstitution reports whether id is already linked to the career.
func (c *Career) HasInstitution(id string) bool {
	for _, existing := range c.Institutions {
		if existing == id {
			return true
		}
	}
	return false
}

// CareerPatch carries the fields of an admin update. Nil fields are left as is.
// Views and Saves are only set for explicit admin corrections. Institutions
// are changed through the relationship mutators only.
type CareerPatch struct {
	Title            *string          `json:"title"`
	Category         *CareerCategory  `json:"category"`
	Description      *string          `json:"description"`
	KeySubjects      *[]string        `json:"keySubjects"`
	JobProspects     *[]string        `json:"jobProspects"`
	Salary           *SalaryRange     `json:"salary"`
	Duration         *string          `json:"duration"`
	SkillsRequired   *[]string        `json:"skillsRequired"`
	CareerPath       *CareerPath      `json:"careerPath"`
	Certifications   *[]Certification `json:"certifications"`
	IndustryTrends   *[]string        `json:"industryTrends"`
	MinimumMeanGrade *MeanGrade       `json:"minimumMeanGrade"`
	MarketDemand     *MarketDemand    `json:"marketDemand"`
	Views            *int64           `json:"views"`
	Saves            *int64           `json:"saves"`
}

func (p CareerPatch) Apply(c *Career) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.KeySubjects != nil {
		c.KeySubjects = *p.KeySubjects
	}
	if p.JobProspects != nil {
		c.JobProspects = *p.JobProspects
	}
	if p.Salary != nil {
		c.Salary = *p.Salary
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.SkillsRequired != nil {
		c.SkillsRequired = *p.SkillsRequired
	}
	if p.CareerPath != nil {
		c.CareerPath = *p.CareerPath
	}
	if p.Certifications != nil {
		c.Certifications = *p.Certifications
	}
	if p.IndustryTrends != nil {
		c.IndustryTrends = *p.IndustryTrends
	}
	if p.MinimumMeanGrade != nil {
		c.MinimumMeanGrade = *p.MinimumMeanGrade
	}
	if p.MarketDemand != nil {
		c.MarketDemand = *p.MarketDemand
	}
	if p.Views != nil {
		c.Views = *p.Views
	}
	if p.Saves != nil {
		c.Saves = *p.Saves
	}
}

// CounterOverride carries explicit admin corrections of the popularity
// counters. Nil leaves the stored value untouched.
type CounterOverride struct {
	Views *int64
	Saves *int64
}

// CareerSummary is the reduced projection used by rankings and related lists.
type CareerSummary struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Category     CareerCategory `json:"category"`
	MarketDemand MarketDemand   `json:"marketDemand"`
	Views        int64          `json:"views"`
	Saves        int64          `json:"saves"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (c *Career) Summary() CareerSummary {
	return CareerSummary{
		ID:           c.ID,
		Title:        c.Title,
		Slug:         c.Slug,
		Category:     c.Category,
		MarketDemand: c.MarketDemand,
		Views:        c.Views,
		Saves:        c.Saves,
		CreatedAt:    c.CreatedAt,
	}
}

// CareerSearchFields are matched case-insensitively by the search parameter.
var CareerSearchFields = []string{"title", "category", "description", "keySubjects", "jobProspects"}

type PageResult[T any] struct {
	Data       []T                     `json:"data"`
	Pagination querybuilder.Pagination `json:"pagination"`
}

type CareerRepository interface {
	Create(ctx context.Context, career *Career) error
	// CreateBatch inserts all careers or none.
	CreateBatch(ctx context.Context, careers []Career) error
	// ReplaceAll clears institutions, bookmarks and careers and inserts
	// careers in one transaction. On error the store is left untouched.
	ReplaceAll(ctx context.Context, careers []Career) error
	GetByID(ctx context.Context, id string) (*Career, error)
	GetBySlug(ctx context.Context, slug string) (*Career, error)
	// Update writes the descriptive fields and returns the stored row. The
	// institutions set is never written, and counters only when overridden.
	Update(ctx context.Context, career *Career, counters CounterOverride) (*Career, error)
	// Delete removes the career and strips its id from every institution program.
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q querybuilder.Query) ([]Career, int64, error)
	FindByIDs(ctx context.Context, ids []string) ([]Career, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	Count(ctx context.Context) (int64, error)

	// IncrementViews atomically adds one view and returns the updated career.
	IncrementViews(ctx context.Context, id string) (*Career, error)
	IncrementViewsBySlug(ctx context.Context, slug string) (*Career, error)

	// Save bookmarks the career for userID and increments saves in one unit.
	// Returns ErrDuplicate when the bookmark already exists.
	Save(ctx context.Context, userID, careerID string) (*Career, error)
	Unsave(ctx context.Context, userID, careerID string) error
	ListSaved(ctx context.Context, userID string) ([]Career, error)

	FindByCategory(ctx context.Context, category CareerCategory, excludeID string, limit int) ([]Career, error)
	FindBySharedSubjects(ctx context.Context, subjects []string, excludeID string, limit int) ([]Career, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
	CountByDemand(ctx context.Context) ([]DemandCount, error)
	ListGradeEntries(ctx context.Context) ([]GradeEntry, error)
}

type CareerUsecase interface {
	ListCareers(ctx context.Context, q querybuilder.Query) (*PageResult[Career], error)
	GetCareer(ctx context.Context, id string) (*Career, error)
	GetCareerBySlug(ctx context.Context, slug string) (*Career, error)
	CreateCareer(ctx context.Context, career *Career) error
	UpdateCareer(ctx context.Context, id string, patch CareerPatch) (*Career, error)
	DeleteCareer(ctx context.Context, id string) error

	AddInstitutionToCareer(ctx context.Context, careerID, institutionID, program string) (*Career, error)
	RemoveInstitutionFromCareer(ctx context.Context, careerID, institutionID string) (*Career, error)

	SaveCareer(ctx context.Context, careerID string) (*Career, error)
	UnsaveCareer(ctx context.Context, careerID string) error
	ListSavedCareers(ctx context.Context) ([]Career, error)
}
