package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/logger"
	"career-catalog-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type bootstrapUsecase struct {
	careerRepo      domain.CareerRepository
	institutionRepo domain.InstitutionRepository
	relRepo         domain.RelationshipRepository
	cache           cache.Cache
	validate        *validator.Validate
	defaultMode     domain.ResolutionMode
	running         atomic.Bool
}

func NewBootstrapUsecase(
	careerRepo domain.CareerRepository,
	institutionRepo domain.InstitutionRepository,
	relRepo domain.RelationshipRepository,
	c cache.Cache,
	validate *validator.Validate,
	defaultMode domain.ResolutionMode,
) domain.BootstrapUsecase {
	if c == nil {
		c = cache.Noop{}
	}
	if defaultMode == "" {
		defaultMode = domain.ResolutionLenient
	}
	return &bootstrapUsecase{
		careerRepo:      careerRepo,
		institutionRepo: institutionRepo,
		relRepo:         relRepo,
		cache:           c,
		validate:        validate,
		defaultMode:     defaultMode,
	}
}

func (u *bootstrapUsecase) Running() bool {
	return u.running.Load()
}

// Run seeds the store in three passes: insert careers, resolve and insert
// institutions, back-fill career institution sets. A pass 1 failure writes
// nothing; pass 2 and 3 failures are skipped and counted in the report.
func (u *bootstrapUsecase) Run(ctx context.Context, input domain.BootstrapInput) (*domain.BootstrapReport, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !u.running.CompareAndSwap(false, true) {
		return nil, apperror.Conflict("A bootstrap is already running")
	}
	defer u.running.Store(false)

	mode := input.Mode
	if mode == "" {
		mode = u.defaultMode
	}
	if mode != domain.ResolutionLenient && mode != domain.ResolutionStrict {
		return nil, apperror.Validation(fmt.Sprintf("unknown resolution mode %q", mode), nil)
	}

	start := time.Now()
	logger.Log.Info("bootstrap started",
		"careers", len(input.Careers),
		"institutions", len(input.Institutions),
		"force", input.Force,
		"mode", mode,
	)

	careers, err := u.prepareCareers(input.Careers)
	if err != nil {
		return nil, err
	}
	index := NewTitleIndex(careers)

	if mode == domain.ResolutionStrict {
		if err := checkAllTitlesResolve(input.Institutions, index); err != nil {
			return nil, err
		}
	}

	report := &domain.BootstrapReport{
		DroppedReferences:   []domain.DroppedReference{},
		SkippedInstitutions: []domain.SkippedRecord{},
	}

	// Pass 1. In force mode the clear shares the insert transaction.
	insert := u.careerRepo.CreateBatch
	if input.Force {
		insert = u.careerRepo.ReplaceAll
	}
	if err := insert(ctx, careers); err != nil {
		logger.Log.Error("bootstrap aborted: career insert failed", "force", input.Force, "error", err)
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.Conflict("Career title already exists: " + err.Error())
		}
		return nil, storeError(err, "Career", "")
	}
	if input.Force {
		logger.Log.Warn("bootstrap force mode replaced careers and institutions")
	}
	report.CareersInserted = len(careers)

	// Pass 2
	created := make([]*domain.Institution, 0, len(input.Institutions))
	slugs := make(map[string]string, len(input.Institutions))
	for _, seed := range input.Institutions {
		inst, dropped := u.resolveInstitution(seed, index)
		for _, d := range dropped {
			logger.Log.Warn("dropped unknown career reference",
				"institution", d.Institution,
				"program", d.Program,
				"title", d.Title,
			)
		}
		report.DroppedReferences = append(report.DroppedReferences, dropped...)

		if reason := u.insertInstitution(ctx, inst, slugs); reason != "" {
			logger.Log.Warn("institution skipped", "name", inst.Name, "reason", reason)
			report.InstitutionsSkipped++
			report.SkippedInstitutions = append(report.SkippedInstitutions, domain.SkippedRecord{Name: inst.Name, Reason: reason})
			continue
		}
		report.InstitutionsInserted++
		created = append(created, inst)
	}

	// Pass 3
	for _, inst := range created {
		ids := inst.CareerIDs()
		linked, err := u.relRepo.LinkEdges(ctx, inst.ID, ids)
		if err != nil {
			logger.Log.Warn("career back-fill skipped", "institution_id", inst.ID, "careers", len(ids), "error", err)
			report.EdgesSkipped += len(ids)
			continue
		}
		report.EdgesLinked += linked
	}

	if err := u.cache.DeletePrefix(ctx, analyticsCachePrefix); err != nil {
		logger.Log.Warn("analytics cache invalidation failed", "error", err)
	}

	logger.Log.Info("bootstrap finished",
		"careers_inserted", report.CareersInserted,
		"institutions_inserted", report.InstitutionsInserted,
		"institutions_skipped", report.InstitutionsSkipped,
		"edges_linked", report.EdgesLinked,
		"edges_skipped", report.EdgesSkipped,
		"dropped_references", len(report.DroppedReferences),
		"duration", time.Since(start).String(),
	)
	return report, nil
}

// prepareCareers assigns ids, slugs and timestamps and validates every
// career before anything is written.
func (u *bootstrapUsecase) prepareCareers(input []domain.Career) ([]domain.Career, error) {
	now := time.Now().UTC()
	careers := make([]domain.Career, len(input))
	seen := make(map[string]int, len(input))
	slugs := make(map[string]int, len(input))
	var details []validation.FieldError

	for i := range input {
		c := input[i]
		c.ID = uuid.NewString()
		prepareCareer(&c)
		c.CreatedAt = now
		c.UpdatedAt = now
		c.Views, c.Saves = 0, 0
		c.Institutions = []string{}
		c.InstitutionDetails = nil

		if err := u.validate.Struct(&c); err != nil {
			for _, fe := range validation.FormatErrors(err) {
				fe.Field = fmt.Sprintf("careers[%d].%s", i, fe.Field)
				details = append(details, fe)
			}
		}

		key := normalizeTitle(c.Title)
		if first, dup := seen[key]; dup {
			return nil, apperror.Conflict(fmt.Sprintf("Duplicate career title %q at careers[%d] and careers[%d]", c.Title, first, i))
		}
		seen[key] = i
		if first, taken := slugs[c.Slug]; taken && c.Slug != "" {
			details = append(details, validation.FieldError{
				Field:   fmt.Sprintf("careers[%d].title", i),
				Message: fmt.Sprintf("title %q has the same slug %q as careers[%d] %q", c.Title, c.Slug, first, careers[first].Title),
			})
		} else {
			slugs[c.Slug] = i
		}
		careers[i] = c
	}

	if len(details) > 0 {
		return nil, apperror.Validation("Career validation failed", details)
	}
	return careers, nil
}

func checkAllTitlesResolve(seeds []domain.InstitutionSeed, r TitleResolver) error {
	var details []validation.FieldError
	for i, seed := range seeds {
		for j, p := range seed.Programs {
			for k, title := range p.Careers {
				if _, ok := r.Resolve(title); !ok {
					details = append(details, validation.FieldError{
						Field:   fmt.Sprintf("institutions[%d].programs[%d].careers[%d]", i, j, k),
						Message: "unknown career title " + title,
					})
				}
			}
		}
	}
	if len(details) > 0 {
		return apperror.Validation("Unresolved career titles", details)
	}
	return nil
}

func (u *bootstrapUsecase) resolveInstitution(seed domain.InstitutionSeed, r TitleResolver) (*domain.Institution, []domain.DroppedReference) {
	programs, dropped := resolvePrograms(seed, r)
	inst := seed.Institution
	inst.Programs = programs
	return &inst, dropped
}

// insertInstitution returns a skip reason, or "" on success. slugs maps
// the slug of every institution inserted so far to its name.
func (u *bootstrapUsecase) insertInstitution(ctx context.Context, inst *domain.Institution, slugs map[string]string) string {
	inst.ID = uuid.NewString()
	prepareInstitution(inst)
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	if err := u.validate.Struct(inst); err != nil {
		return fmt.Sprintf("validation failed: %v", validation.FormatErrors(err))
	}
	if other, taken := slugs[inst.Slug]; taken {
		if normalizeTitle(other) == normalizeTitle(inst.Name) {
			return "duplicate institution name"
		}
		return fmt.Sprintf("slug %q already used by %q", inst.Slug, other)
	}
	if err := u.institutionRepo.Create(ctx, inst); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return "duplicate institution name"
		}
		return err.Error()
	}
	slugs[inst.Slug] = inst.Name
	return ""
}

func (u *bootstrapUsecase) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	edges, err := u.relRepo.MissingEdges(ctx)
	if err != nil {
		return nil, storeError(err, "Career", "")
	}
	return &domain.ConsistencyReport{MissingEdges: edges}, nil
}

// RepairConsistency applies the pass 3 back-fill to every missing edge.
func (u *bootstrapUsecase) RepairConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	report, err := u.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	byInstitution := map[string][]string{}
	var order []string
	for _, e := range report.MissingEdges {
		if _, ok := byInstitution[e.InstitutionID]; !ok {
			order = append(order, e.InstitutionID)
		}
		byInstitution[e.InstitutionID] = append(byInstitution[e.InstitutionID], e.CareerID)
	}

	for _, instID := range order {
		n, err := u.relRepo.LinkEdges(ctx, instID, byInstitution[instID])
		if err != nil {
			return nil, storeError(err, "Institution", instID)
		}
		report.Repaired += n
	}

	if report.Repaired > 0 {
		logger.Log.Info("consistency repaired", "edges", report.Repaired)
	}
	return report, nil
}
