package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/internal/usecase"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/slugger"
	"career-catalog-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bootstrapFixture struct {
	careers      *MockCareerRepo
	institutions *MockInstitutionRepo
	rel          *MockRelationshipRepo
	uc           domain.BootstrapUsecase
}

func newBootstrapFixture(mode domain.ResolutionMode) *bootstrapFixture {
	f := &bootstrapFixture{
		careers:      new(MockCareerRepo),
		institutions: new(MockInstitutionRepo),
		rel:          new(MockRelationshipRepo),
	}
	f.uc = usecase.NewBootstrapUsecase(f.careers, f.institutions, f.rel, cache.Noop{}, testValidator, mode)
	return f
}

func seedInstitution(name string, titles ...string) domain.InstitutionSeed {
	return domain.InstitutionSeed{
		Institution: domain.Institution{Name: name, Type: domain.InstitutionUniversity},
		Programs: []domain.ProgramSeed{{
			Program: domain.Program{Name: "BSc Data Science", Level: "Bachelor's Degree"},
			Careers: titles,
		}},
	}
}

func TestBootstrapDropsUnknownTitlesAndLinksTheRest(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)

	var inserted []domain.Career
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(1).([]domain.Career) }).
		Return(nil)

	var created *domain.Institution
	f.institutions.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Institution) }).
		Return(nil)
	f.rel.On("LinkEdges", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "  data   SCIENTIST ", "Ghost Career")},
	})

	require.NoError(t, err)
	require.Len(t, inserted, 1)
	require.NotNil(t, created)

	careerID := inserted[0].ID
	assert.NotEmpty(t, careerID)
	assert.Equal(t, slugger.Make("Data Scientist"), inserted[0].Slug)
	assert.Empty(t, inserted[0].Institutions)
	assert.Zero(t, inserted[0].Views)

	assert.Equal(t, []string{careerID}, created.Programs[0].Careers)
	f.rel.AssertCalled(t, "LinkEdges", mock.Anything, created.ID, []string{careerID})

	assert.Equal(t, 1, report.CareersInserted)
	assert.Equal(t, 1, report.InstitutionsInserted)
	assert.Equal(t, 1, report.EdgesLinked)
	assert.Equal(t, []domain.DroppedReference{{
		Institution: "Tech University",
		Program:     "BSc Data Science",
		Title:       "Ghost Career",
	}}, report.DroppedReferences)
	assert.False(t, f.uc.Running())
}

func TestBootstrapStrictModeWritesNothing(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionStrict)

	_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Ghost Career")},
		Force:        true,
	})

	assert.True(t, apperror.Is(err, apperror.KindValidation))
	f.careers.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
	f.careers.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestBootstrapModeOverride(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)

	_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Ghost Career")},
		Mode:         domain.ResolutionStrict,
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.uc.Run(adminCtx(), domain.BootstrapInput{Mode: "fuzzy"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestBootstrapCareerFailureAbortsBeforeInstitutions(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).Return(domain.ErrStoreUnavailable)

	_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Data Scientist")},
	})

	assert.True(t, apperror.Is(err, apperror.KindStoreUnavailable))
	f.institutions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.rel.AssertNotCalled(t, "LinkEdges", mock.Anything, mock.Anything, mock.Anything)
}

func TestBootstrapRejectsBadCareers(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)

	t.Run("duplicate title", func(t *testing.T) {
		_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
			Careers: []domain.Career{
				validCareer("Nurse", domain.CategoryHealthcare),
				validCareer(" NURSE ", domain.CategoryHealthcare),
			},
		})
		assert.True(t, apperror.Is(err, apperror.KindConflict))
	})

	t.Run("invalid career", func(t *testing.T) {
		bad := validCareer("Nurse", domain.CategoryHealthcare)
		bad.MarketDemand = "Extreme"
		_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{Careers: []domain.Career{bad}})
		require.True(t, apperror.Is(err, apperror.KindValidation))

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Error(), "Career validation failed")
	})

	t.Run("non admin", func(t *testing.T) {
		_, err := f.uc.Run(userCtx("u1"), domain.BootstrapInput{})
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	f.careers.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestBootstrapSkipsInvalidInstitutions(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.institutions.On("Create", mock.Anything, mock.MatchedBy(func(i *domain.Institution) bool {
		return i.Name == "Second University"
	})).Return(domain.ErrDuplicate)
	f.rel.On("LinkEdges", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	invalid := seedInstitution("X")
	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{invalid, seedInstitution("Second University", "Data Scientist")},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, report.InstitutionsInserted)
	assert.Equal(t, 2, report.InstitutionsSkipped)
	require.Len(t, report.SkippedInstitutions, 2)
	assert.Equal(t, "duplicate institution name", report.SkippedInstitutions[1].Reason)
	f.rel.AssertNotCalled(t, "LinkEdges", mock.Anything, mock.Anything, mock.Anything)
}

func TestBootstrapBackfillIsIdempotent(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.institutions.On("Create", mock.Anything, mock.Anything).Return(nil)
	// Every edge is already present.
	f.rel.On("LinkEdges", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Data Scientist", "Data Scientist")},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, report.EdgesLinked)
	assert.Equal(t, 0, report.EdgesSkipped)
}

func TestBootstrapBackfillFailureIsCounted(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.institutions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.rel.On("LinkEdges", mock.Anything, mock.Anything, mock.Anything).Return(0, domain.ErrStoreUnavailable)

	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers: []domain.Career{
			validCareer("Data Scientist", domain.CategoryTechnology),
			validCareer("Data Analyst", domain.CategoryTechnology),
		},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Data Scientist", "Data Analyst")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.InstitutionsInserted)
	assert.Equal(t, 2, report.EdgesSkipped)
}

func TestBootstrapForceReplacesInOneTransaction(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil)

	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers: []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Force:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.CareersInserted)
	f.careers.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestBootstrapForceCareerFailureKeepsCatalog(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("ReplaceAll", mock.Anything, mock.Anything).
		Return(fmt.Errorf("insert career %q: %w", "Data Scientist", domain.ErrStoreUnavailable))

	_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers:      []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{seedInstitution("Tech University", "Data Scientist")},
		Force:        true,
	})

	assert.True(t, apperror.Is(err, apperror.KindStoreUnavailable))
	f.careers.AssertNumberOfCalls(t, "ReplaceAll", 1)
	f.careers.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.institutions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.rel.AssertNotCalled(t, "LinkEdges", mock.Anything, mock.Anything, mock.Anything)
}

func TestBootstrapRejectsCollidingSlugs(t *testing.T) {
	cases := []struct {
		name   string
		titles []string
	}{
		{"punctuation", []string{"C++ Developer", "C# Developer", "C Developer"}},
		{"hyphen", []string{"Data-Scientist", "Data Scientist"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBootstrapFixture(domain.ResolutionLenient)
			careers := make([]domain.Career, len(tc.titles))
			for i, title := range tc.titles {
				careers[i] = validCareer(title, domain.CategoryTechnology)
			}

			_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{Careers: careers, Force: true})

			require.True(t, apperror.Is(err, apperror.KindValidation))
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			details := appErr.Details.([]validation.FieldError)
			require.Len(t, details, len(tc.titles)-1)
			assert.Equal(t, "careers[1].title", details[0].Field)
			assert.Contains(t, details[0].Message, tc.titles[0])
			assert.Contains(t, details[0].Message, tc.titles[1])
			f.careers.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
			f.careers.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestBootstrapSkipsInstitutionWithCollidingSlug(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	f.institutions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.rel.On("LinkEdges", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	report, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
		Careers: []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		Institutions: []domain.InstitutionSeed{
			seedInstitution("St. Paul's University"),
			seedInstitution("St Pauls University"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.InstitutionsInserted)
	require.Len(t, report.SkippedInstitutions, 1)
	assert.Equal(t, "St Pauls University", report.SkippedInstitutions[0].Name)
	assert.Contains(t, report.SkippedInstitutions[0].Reason, "St. Paul's University")
	f.institutions.AssertNumberOfCalls(t, "Create", 1)
}

func TestBootstrapRejectsConcurrentRun(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	started := make(chan struct{})
	release := make(chan struct{})
	f.careers.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{
			Careers: []domain.Career{validCareer("Data Scientist", domain.CategoryTechnology)},
		})
		done <- err
	}()

	<-started
	assert.True(t, f.uc.Running())
	_, err := f.uc.Run(adminCtx(), domain.BootstrapInput{})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.uc.Running())
}

func TestRepairConsistencyGroupsByInstitution(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	f.rel.On("MissingEdges", mock.Anything).Return([]domain.Edge{
		{CareerID: "c1", InstitutionID: "i1"},
		{CareerID: "c3", InstitutionID: "i2"},
		{CareerID: "c2", InstitutionID: "i1"},
	}, nil)
	f.rel.On("LinkEdges", mock.Anything, "i1", []string{"c1", "c2"}).Return(2, nil)
	f.rel.On("LinkEdges", mock.Anything, "i2", []string{"c3"}).Return(1, nil)

	report, err := f.uc.RepairConsistency(adminCtx())

	require.NoError(t, err)
	assert.Len(t, report.MissingEdges, 3)
	assert.Equal(t, 3, report.Repaired)
}

func TestCheckConsistencyRequiresAdmin(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	_, err := f.uc.CheckConsistency(context.Background())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestHealthReportsDegradedDependency(t *testing.T) {
	f := newBootstrapFixture(domain.ResolutionLenient)
	health := usecase.NewHealthUsecase(f.uc, map[string]usecase.Pinger{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return domain.ErrStoreUnavailable },
	})

	got := health.Check(context.Background())

	assert.Equal(t, "degraded", got["status"])
	assert.Equal(t, "ok", got["database"])
	assert.Equal(t, "unavailable", got["cache"])
}
