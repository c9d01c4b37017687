package domain

import (
	"context"
	"time"

	"career-catalog-backend/pkg/querybuilder"
)

type Location struct {
	County  string `json:"county"`
	Town    string `json:"town"`
	Address string `json:"address"`
}

type Contact struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Website string `json:"website" validate:"omitempty,url"`
}

type Ranking struct {
	Source string `json:"source"`
	Rank   int    `json:"rank" validate:"min=0"`
	Year   int    `json:"year"`
}

type SubjectRequirement struct {
	Subject string    `json:"subject" validate:"required"`
	Grade   MeanGrade `json:"grade" validate:"required,mean_grade"`
}

type EntryRequirements struct {
	MinimumGrade           MeanGrade            `json:"minimumGrade" validate:"omitempty,mean_grade"`
	SubjectRequirements    []SubjectRequirement `json:"subjectRequirements" validate:"dive"`
	AdditionalRequirements []string             `json:"additionalRequirements"`
}

type Tuition struct {
	Amount   float64 `json:"amount" validate:"min=0"`
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
}

// Program is owned by its Institution. Careers is a non-owning set of Career ids.
type Program struct {
	Name              string            `json:"name" validate:"required,min=2,max=200"`
	Level             ProgramLevel      `json:"level" validate:"required,program_level"`
	Duration          string            `json:"duration"`
	Description       string            `json:"description" validate:"max=2000"`
	EntryRequirements EntryRequirements `json:"entryRequirements"`
	Tuition           Tuition           `json:"tuition"`
	Careers           []string          `json:"careers"`
}

// HasCareer reports whether the program feeds into careerID.
func (p *Program) HasCareer(careerID string) bool {
	for _, id := range p.Careers {
		if id == careerID {
			return true
		}
	}
	return false
}

type Institution struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" validate:"required,min=2,max=200"`
	Slug          string          `json:"slug"`
	Type          InstitutionType `json:"type" validate:"required,institution_type"`
	Description   string          `json:"description" validate:"omitempty,min=20,max=2000"`
	Location      Location        `json:"location"`
	Contact       Contact         `json:"contact"`
	Rankings      []Ranking       `json:"rankings" validate:"dive"`
	Facilities    []string        `json:"facilities"`
	Accreditation []string        `json:"accreditation"`
	Programs      []Program       `json:"programs" validate:"dive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CareerIDs returns the distinct career ids referenced by any program, in first-seen order.
func (i *Institution) CareerIDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range i.Programs {
		for _, id := range p.Careers {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// InstitutionPatch carries the fields of an admin update. Nil fields are left as is.
type InstitutionPatch struct {
	Name          *string          `json:"name"`
	Type          *InstitutionType `json:"type"`
	Description   *string          `json:"description"`
	Location      *Location        `json:"location"`
	Contact       *Contact         `json:"contact"`
	Rankings      *[]Ranking       `json:"rankings"`
	Facilities    *[]string        `json:"facilities"`
	Accreditation *[]string        `json:"accreditation"`
	Programs      *[]Program       `json:"programs"`
}

func (p InstitutionPatch) Apply(i *Institution) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Type != nil {
		i.Type = *p.Type
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.Location != nil {
		i.Location = *p.Location
	}
	if p.Contact != nil {
		i.Contact = *p.Contact
	}
	if p.Rankings != nil {
		i.Rankings = *p.Rankings
	}
	if p.Facilities != nil {
		i.Facilities = *p.Facilities
	}
	if p.Accreditation != nil {
		i.Accreditation = *p.Accreditation
	}
	if p.Programs != nil {
		i.Programs = *p.Programs
	}
}

// InstitutionSearchFields are matched case-insensitively by the search parameter.
var InstitutionSearchFields = []string{"name", "type", "description", "location.county", "location.town"}

type InstitutionRepository interface {
	Create(ctx context.Context, institution *Institution) error
	GetByID(ctx context.Context, id string) (*Institution, error)
	GetBySlug(ctx context.Context, slug string) (*Institution, error)
	Update(ctx context.Context, institution *Institution) error
	// Delete removes the institution and strips its id from every Career.institutions.
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, q querybuilder.Query) ([]Institution, int64, error)
	FindByIDs(ctx context.Context, ids []string) ([]Institution, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
	CountProgramsByLevel(ctx context.Context) ([]LevelCount, error)
}

// Edge is a single Career<->Institution relationship.
type Edge struct {
	CareerID      string `json:"careerId"`
	InstitutionID string `json:"institutionId"`
}

// RelationshipRepository mutates both sides of the Career<->Institution graph.
type RelationshipRepository interface {
	// AddEdge appends institutionID to the career's set. When program is not
	// empty the career is also added to that program of the institution.
	// Returns ErrDuplicate when the edge already exists and ErrProgramNotFound
	// when the program is unknown.
	AddEdge(ctx context.Context, careerID, institutionID, program string) error
	// RemoveEdge removes institutionID from the career's set and the career
	// from every program of the institution. Returns ErrEdgeNotFound when the
	// career does not hold the edge.
	RemoveEdge(ctx context.Context, careerID, institutionID string) error
	// LinkEdges adds institutionID to each career's set with set-union
	// semantics and returns how many sets changed.
	LinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error)
	// UnlinkEdges removes institutionID from each career's set and returns
	// how many sets changed.
	UnlinkEdges(ctx context.Context, institutionID string, careerIDs []string) (int, error)
	// MissingEdges lists program references whose career lacks the institution.
	MissingEdges(ctx context.Context) ([]Edge, error)
}

type InstitutionUsecase interface {
	ListInstitutions(ctx context.Context, q querybuilder.Query) (*PageResult[Institution], error)
	GetInstitution(ctx context.Context, id string) (*InstitutionWithCareers, error)
	GetInstitutionBySlug(ctx context.Context, slug string) (*InstitutionWithCareers, error)
	CreateInstitution(ctx context.Context, institution *Institution) error
	UpdateInstitution(ctx context.Context, id string, patch InstitutionPatch) (*Institution, error)
	DeleteInstitution(ctx context.Context, id string) error
}

// InstitutionWithCareers adds the careers taught by any program.
type InstitutionWithCareers struct {
	Institution
	CareerDetails []CareerSummary `json:"careerDetails"`
}
