package usecase

import (
	"context"
	"errors"
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

const relatedLimit = 5

type careerUsecase struct {
	careerRepo      domain.CareerRepository
	institutionRepo domain.InstitutionRepository
	relRepo         domain.RelationshipRepository
	activity        *activityRecorder
	cache           cache.Cache
	validate        *validator.Validate
}

func NewCareerUsecase(
	careerRepo domain.CareerRepository,
	institutionRepo domain.InstitutionRepository,
	relRepo domain.RelationshipRepository,
	activityRepo domain.ActivityLogRepository,
	publisher domain.ActivityPublisher,
	c cache.Cache,
	validate *validator.Validate,
) domain.CareerUsecase {
	if c == nil {
		c = cache.Noop{}
	}
	return &careerUsecase{
		careerRepo:      careerRepo,
		institutionRepo: institutionRepo,
		relRepo:         relRepo,
		activity:        newActivityRecorder(activityRepo, publisher),
		cache:           c,
		validate:        validate,
	}
}

func (u *careerUsecase) ListCareers(ctx context.Context, q querybuilder.Query) (*domain.PageResult[domain.Career], error) {
	careers, total, err := u.careerRepo.Find(ctx, q)
	if err != nil {
		return nil, storeError(err, "Career", "")
	}

	if q.Populates("institutions") {
		if err := u.populateInstitutions(ctx, careers); err != nil {
			return nil, err
		}
	}

	return &domain.PageResult[domain.Career]{
		Data:       careers,
		Pagination: querybuilder.Paginate(q.Page, q.Limit, total),
	}, nil
}

// GetCareer increments the view counter as part of the read. The activity
// record for authenticated actors is best-effort.
func (u *careerUsecase) GetCareer(ctx context.Context, id string) (*domain.Career, error) {
	career, err := u.careerRepo.IncrementViews(ctx, id)
	if err != nil {
		return nil, storeError(err, "Career", id)
	}
	return u.afterView(ctx, career)
}

func (u *careerUsecase) GetCareerBySlug(ctx context.Context, slug string) (*domain.Career, error) {
	career, err := u.careerRepo.IncrementViewsBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(err, "Career", slug)
	}
	return u.afterView(ctx, career)
}

func (u *careerUsecase) afterView(ctx context.Context, career *domain.Career) (*domain.Career, error) {
	u.activity.record(ctx, actorID(ctx), domain.ActionViewCareer, career.ID, nil)

	list := []domain.Career{*career}
	if err := u.populateInstitutions(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (u *careerUsecase) populateInstitutions(ctx context.Context, careers []domain.Career) error {
	seen := map[string]bool{}
	var ids []string
	for _, c := range careers {
		for _, id := range c.Institutions {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	institutions, err := u.institutionRepo.FindByIDs(ctx, ids)
	if err != nil {
		return storeError(err, "Institution", "")
	}
	byID := make(map[string]domain.Institution, len(institutions))
	for _, inst := range institutions {
		byID[inst.ID] = inst
	}

	for i := range careers {
		details := []domain.Institution{}
		for _, id := range careers[i].Institutions {
			if inst, ok := byID[id]; ok {
				details = append(details, inst)
			}
		}
		careers[i].InstitutionDetails = details
	}
	return nil
}

func (u *careerUsecase) CreateCareer(ctx context.Context, career *domain.Career) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	if career.ID == "" {
		career.ID = uuid.NewString()
	}
	prepareCareer(career)
	now := time.Now().UTC()
	career.CreatedAt = now
	career.UpdatedAt = now
	career.Institutions = dedupe(career.Institutions)

	if err := validateEntity(u.validate, career); err != nil {
		return err
	}
	if err := u.checkInstitutionsExist(ctx, career.Institutions); err != nil {
		return err
	}
	if err := u.checkSlug(ctx, career); err != nil {
		return err
	}

	if err := u.careerRepo.Create(ctx, career); err != nil {
		return storeError(err, "Career", career.Title)
	}

	logger.Log.Info("career created", "career_id", career.ID, "title", career.Title)
	u.invalidateAnalytics(ctx)
	return nil
}

func (u *careerUsecase) UpdateCareer(ctx context.Context, id string, patch domain.CareerPatch) (*domain.Career, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	career, err := u.careerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Career", id)
	}

	patch.Apply(career)
	prepareCareer(career)
	career.UpdatedAt = time.Now().UTC()

	if err := validateEntity(u.validate, career); err != nil {
		return nil, err
	}
	if err := u.checkSlug(ctx, career); err != nil {
		return nil, err
	}

	updated, err := u.careerRepo.Update(ctx, career, domain.CounterOverride{Views: patch.Views, Saves: patch.Saves})
	if err != nil {
		return nil, storeError(err, "Career", id)
	}

	u.invalidateAnalytics(ctx)
	return updated, nil
}

func (u *careerUsecase) DeleteCareer(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	if err := u.careerRepo.Delete(ctx, id); err != nil {
		return storeError(err, "Career", id)
	}

	logger.Log.Info("career deleted", "career_id", id)
	u.invalidateAnalytics(ctx)
	return nil
}

// AddInstitutionToCareer links both sides of the edge. When program is set
// the career is also listed under that program of the institution.
func (u *careerUsecase) AddInstitutionToCareer(ctx context.Context, careerID, institutionID, program string) (*domain.Career, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	if _, err := u.careerRepo.GetByID(ctx, careerID); err != nil {
		return nil, storeError(err, "Career", careerID)
	}
	institution, err := u.institutionRepo.GetByID(ctx, institutionID)
	if err != nil {
		return nil, storeError(err, "Institution", institutionID)
	}

	program = strings.TrimSpace(program)
	if program != "" && !hasProgram(institution, program) {
		return nil, apperror.NotFound("Program", program)
	}

	err = u.relRepo.AddEdge(ctx, careerID, institutionID, program)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return nil, apperror.ConflictEntity("Institution", institutionID,
			fmt.Sprintf("Institution %s is already linked to career %s", institutionID, careerID))
	case errors.Is(err, domain.ErrProgramNotFound):
		return nil, apperror.NotFound("Program", program)
	case err != nil:
		return nil, storeError(err, "Career", careerID)
	}

	logger.Log.Info("institution linked to career", "career_id", careerID, "institution_id", institutionID)
	return u.reload(ctx, careerID)
}

// RemoveInstitutionFromCareer unlinks the edge and removes the career from
// every program of the institution.
func (u *careerUsecase) RemoveInstitutionFromCareer(ctx context.Context, careerID, institutionID string) (*domain.Career, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	if _, err := u.careerRepo.GetByID(ctx, careerID); err != nil {
		return nil, storeError(err, "Career", careerID)
	}

	err := u.relRepo.RemoveEdge(ctx, careerID, institutionID)
	if errors.Is(err, domain.ErrEdgeNotFound) {
		e := apperror.NotFound("Institution", institutionID)
		e.Message = fmt.Sprintf("Institution %s is not linked to career %s", institutionID, careerID)
		return nil, e
	}
	if err != nil {
		return nil, storeError(err, "Career", careerID)
	}

	logger.Log.Info("institution unlinked from career", "career_id", careerID, "institution_id", institutionID)
	return u.reload(ctx, careerID)
}

func (u *careerUsecase) SaveCareer(ctx context.Context, careerID string) (*domain.Career, error) {
	userID := actorID(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}

	career, err := u.careerRepo.Save(ctx, userID, careerID)
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, apperror.ConflictEntity("Career", careerID, "Career already saved")
	}
	if err != nil {
		return nil, storeError(err, "Career", careerID)
	}

	u.activity.record(ctx, userID, domain.ActionSaveCareer, careerID, nil)
	u.invalidateAnalytics(ctx)
	return career, nil
}

func (u *careerUsecase) UnsaveCareer(ctx context.Context, careerID string) error {
	userID := actorID(ctx)
	if userID == "" {
		return apperror.Unauthorized("User not authenticated")
	}

	if err := u.careerRepo.Unsave(ctx, userID, careerID); err != nil {
		return storeError(err, "SavedCareer", careerID)
	}

	u.activity.record(ctx, userID, domain.ActionUnsaveCareer, careerID, nil)
	return nil
}

func (u *careerUsecase) ListSavedCareers(ctx context.Context) ([]domain.Career, error) {
	userID := actorID(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}

	careers, err := u.careerRepo.ListSaved(ctx, userID)
	if err != nil {
		return nil, storeError(err, "SavedCareer", "")
	}
	return careers, nil
}

func (u *careerUsecase) reload(ctx context.Context, id string) (*domain.Career, error) {
	career, err := u.careerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Career", id)
	}
	return career, nil
}

func (u *careerUsecase) checkInstitutionsExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := u.institutionRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return storeError(err, "Institution", "")
	}
	if missing := difference(ids, found); len(missing) > 0 {
		details := make([]validation.FieldError, 0, len(missing))
		for _, id := range missing {
			details = append(details, validation.FieldError{Field: "institutions", Message: "unknown institution " + id})
		}
		return apperror.Validation("Validation failed", details)
	}
	return nil
}

func (u *careerUsecase) invalidateAnalytics(ctx context.Context) {
	if err := u.cache.DeletePrefix(ctx, analyticsCachePrefix); err != nil {
		logger.Log.Warn("analytics cache invalidation failed", "error", err)
	}
}

// prepareCareer normalises the title and recomputes the derived slug.
func (u *careerUsecase) checkSlug(ctx context.Context, career *domain.Career) error {
	return checkSlugAvailable("Career", "title", career.ID, career.Title, career.Slug, func() (string, string, error) {
		other, err := u.careerRepo.GetBySlug(ctx, career.Slug)
		if err != nil {
			return "", "", err
		}
		return other.ID, other.Title, nil
	})
}

func prepareCareer(c *domain.Career) {
	c.Title = strings.TrimSpace(c.Title)
	c.Slug = slugger.Make(c.Title)
}

func hasProgram(inst *domain.Institution, name string) bool {
	for _, p := range inst.Programs {
		if p.Name == name {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// difference returns the members of want missing from have.
func difference(want, have []string) []string {
	present := make(map[string]bool, len(have))
	for _, id := range have {
		present[id] = true
	}
	var missing []string
	for _, id := range want {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
