package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/cache"
	"career-catalog-backend/pkg/logger"
	"career-catalog-backend/pkg/querybuilder"
	"career-catalog-backend/pkg/slugger"
	"career-catalog-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type institutionUsecase struct {
	institutionRepo domain.InstitutionRepository
	careerRepo      domain.CareerRepository
	relRepo         domain.RelationshipRepository
	cache           cache.Cache
	validate        *validator.Validate
}

func NewInstitutionUsecase(
	institutionRepo domain.InstitutionRepository,
	careerRepo domain.CareerRepository,
	relRepo domain.RelationshipRepository,
	c cache.Cache,
	validate *validator.Validate,
) domain.InstitutionUsecase {
	if c == nil {
		c = cache.Noop{}
	}
	return &institutionUsecase{
		institutionRepo: institutionRepo,
		careerRepo:      careerRepo,
		relRepo:         relRepo,
		cache:           c,
		validate:        validate,
	}
}

func (u *institutionUsecase) ListInstitutions(ctx context.Context, q querybuilder.Query) (*domain.PageResult[domain.Institution], error) {
	institutions, total, err := u.institutionRepo.Find(ctx, q)
	if err != nil {
		return nil, storeError(err, "Institution", "")
	}
	return &domain.PageResult[domain.Institution]{
		Data:       institutions,
		Pagination: querybuilder.Paginate(q.Page, q.Limit, total),
	}, nil
}

func (u *institutionUsecase) GetInstitution(ctx context.Context, id string) (*domain.InstitutionWithCareers, error) {
	inst, err := u.institutionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Institution", id)
	}
	return u.withCareers(ctx, inst)
}

func (u *institutionUsecase) GetInstitutionBySlug(ctx context.Context, slug string) (*domain.InstitutionWithCareers, error) {
	inst, err := u.institutionRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(err, "Institution", slug)
	}
	return u.withCareers(ctx, inst)
}

func (u *institutionUsecase) withCareers(ctx context.Context, inst *domain.Institution) (*domain.InstitutionWithCareers, error) {
	careers, err := u.careerRepo.FindByIDs(ctx, inst.CareerIDs())
	if err != nil {
		return nil, storeError(err, "Career", "")
	}
	out := &domain.InstitutionWithCareers{Institution: *inst, CareerDetails: make([]domain.CareerSummary, 0, len(careers))}
	for i := range careers {
		out.CareerDetails = append(out.CareerDetails, careers[i].Summary())
	}
	return out, nil
}

// CreateInstitution persists the institution and adds its id to every career
// its programs teach.
func (u *institutionUsecase) CreateInstitution(ctx context.Context, inst *domain.Institution) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	prepareInstitution(inst)
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	if err := validateEntity(u.validate, inst); err != nil {
		return err
	}
	if err := u.checkProgramCareers(ctx, inst); err != nil {
		return err
	}
	if err := u.checkSlug(ctx, inst); err != nil {
		return err
	}

	if err := u.institutionRepo.Create(ctx, inst); err != nil {
		return storeError(err, "Institution", inst.Name)
	}
	if err := u.linkCareers(ctx, inst); err != nil {
		return err
	}

	logger.Log.Info("institution created", "institution_id", inst.ID, "name", inst.Name)
	u.invalidateAnalytics(ctx)
	return nil
}

func (u *institutionUsecase) UpdateInstitution(ctx context.Context, id string, patch domain.InstitutionPatch) (*domain.Institution, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	inst, err := u.institutionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Institution", id)
	}
	taught := inst.CareerIDs()

	patch.Apply(inst)
	prepareInstitution(inst)
	inst.UpdatedAt = time.Now().UTC()

	if err := validateEntity(u.validate, inst); err != nil {
		return nil, err
	}
	if err := u.checkProgramCareers(ctx, inst); err != nil {
		return nil, err
	}
	if err := u.checkSlug(ctx, inst); err != nil {
		return nil, err
	}

	if err := u.institutionRepo.Update(ctx, inst); err != nil {
		return nil, storeError(err, "Institution", id)
	}
	if err := u.linkCareers(ctx, inst); err != nil {
		return nil, err
	}
	if err := u.unlinkCareers(ctx, inst.ID, difference(taught, inst.CareerIDs())); err != nil {
		return nil, err
	}

	u.invalidateAnalytics(ctx)
	return inst, nil
}

func (u *institutionUsecase) DeleteInstitution(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	if err := u.institutionRepo.Delete(ctx, id); err != nil {
		return storeError(err, "Institution", id)
	}

	logger.Log.Info("institution deleted", "institution_id", id)
	u.invalidateAnalytics(ctx)
	return nil
}

func (u *institutionUsecase) checkProgramCareers(ctx context.Context, inst *domain.Institution) error {
	ids := inst.CareerIDs()
	if len(ids) == 0 {
		return nil
	}
	found, err := u.careerRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return storeError(err, "Career", "")
	}
	missing := map[string]bool{}
	for _, id := range difference(ids, found) {
		missing[id] = true
	}
	if len(missing) == 0 {
		return nil
	}

	var details []validation.FieldError
	for pi, p := range inst.Programs {
		for ci, id := range p.Careers {
			if missing[id] {
				details = append(details, validation.FieldError{
					Field:   fmt.Sprintf("programs[%d].careers[%d]", pi, ci),
					Message: "unknown career " + id,
				})
			}
		}
	}
	return apperror.Validation("Validation failed", details)
}

func (u *institutionUsecase) linkCareers(ctx context.Context, inst *domain.Institution) error {
	linked, err := u.relRepo.LinkEdges(ctx, inst.ID, inst.CareerIDs())
	if err != nil {
		logger.Log.Error("career back-fill failed", "institution_id", inst.ID, "error", err)
		return storeError(err, "Institution", inst.ID)
	}
	if linked > 0 {
		logger.Log.Debug("careers linked to institution", "institution_id", inst.ID, "linked", linked)
	}
	return nil
}

// unlinkCareers drops the edge from careers no program teaches any more.
// Edges added without a program are never in taught and stay.
func (u *institutionUsecase) unlinkCareers(ctx context.Context, institutionID string, dropped []string) error {
	if len(dropped) == 0 {
		return nil
	}
	unlinked, err := u.relRepo.UnlinkEdges(ctx, institutionID, dropped)
	if err != nil {
		logger.Log.Error("career unlink failed", "institution_id", institutionID, "error", err)
		return storeError(err, "Institution", institutionID)
	}
	logger.Log.Debug("careers unlinked from institution", "institution_id", institutionID, "unlinked", unlinked)
	return nil
}

func (u *institutionUsecase) checkSlug(ctx context.Context, inst *domain.Institution) error {
	return checkSlugAvailable("Institution", "name", inst.ID, inst.Name, inst.Slug, func() (string, string, error) {
		other, err := u.institutionRepo.GetBySlug(ctx, inst.Slug)
		if err != nil {
			return "", "", err
		}
		return other.ID, other.Name, nil
	})
}

func (u *institutionUsecase) invalidateAnalytics(ctx context.Context) {
	if err := u.cache.DeletePrefix(ctx, analyticsCachePrefix); err != nil {
		logger.Log.Warn("analytics cache invalidation failed", "error", err)
	}
}

// prepareInstitution normalises the name, recomputes the slug and removes
// duplicate career ids inside each program.
func prepareInstitution(inst *domain.Institution) {
	inst.Name = strings.TrimSpace(inst.Name)
	inst.Slug = slugger.Make(inst.Name)
	for i := range inst.Programs {
		inst.Programs[i].Careers = dedupe(inst.Programs[i].Careers)
	}
}
