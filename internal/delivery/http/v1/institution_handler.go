package v1

import (
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/gin-gonic/gin"
)

type InstitutionHandler struct {
	institutionUC domain.InstitutionUsecase
}

var institutionQueryOptions = querybuilder.Options{
	SearchFields: domain.InstitutionSearchFields,
	DefaultSort:  querybuilder.NewestFirst,
}

func NewInstitutionHandler(public, admin *gin.RouterGroup, institutionUC domain.InstitutionUsecase) {
	handler := &InstitutionHandler{institutionUC: institutionUC}

	institutions := public.Group("/institutions")
	{
		institutions.GET("", handler.List)
		institutions.GET("/slug/:slug", handler.GetBySlug)
		institutions.GET("/:id", handler.Get)
	}

	adminInstitutions := admin.Group("/institutions")
	{
		adminInstitutions.POST("", handler.Create)
		adminInstitutions.PUT("/:id", handler.Update)
		adminInstitutions.DELETE("/:id", handler.Delete)
	}
}

// List godoc
// @Summary      List institutions
// @Tags         institutions
// @Produce      json
// @Param        search  query     string  false  "Search over name, type, description, county and town"
// @Param        sort    query     string  false  "Comma separated fields, prefix with - for descending"
// @Param        select  query     string  false  "Comma separated fields to return"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Router       /institutions [get]
func (h *InstitutionHandler) List(c *gin.Context) {
	q := querybuilder.Build(c.Request.URL.Query(), institutionQueryOptions)

	page, err := h.institutionUC.ListInstitutions(c, q)
	if err != nil {
		c.Error(err)
		return
	}

	data, err := querybuilder.Project(page.Data, q.Select)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	response.Paginated(c, http.StatusOK, "Institutions retrieved", len(page.Data), page.Pagination, data)
}

// Get godoc
// @Summary      Get institution
// @Description  Returns the institution with the careers its programs lead to.
// @Tags         institutions
// @Produce      json
// @Param        id   path      string  true  "Institution ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /institutions/{id} [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	inst, err := h.institutionUC.GetInstitution(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution retrieved", inst)
}

// GetBySlug godoc
// @Summary      Get institution by slug
// @Tags         institutions
// @Produce      json
// @Param        slug  path      string  true  "Institution slug"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /institutions/slug/{slug} [get]
func (h *InstitutionHandler) GetBySlug(c *gin.Context) {
	inst, err := h.institutionUC.GetInstitutionBySlug(c, c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution retrieved", inst)
}

// Create godoc
// @Summary      Create institution
// @Description  Admin only. Program careers must exist; each is linked back to the institution.
// @Tags         institutions
// @Accept       json
// @Produce      json
// @Param        institution  body      domain.Institution  true  "Institution"
// @Success      201          {object}  response.Response
// @Failure      400          {object}  response.Response
// @Failure      409          {object}  response.Response
// @Router       /institutions [post]
// @Security     BearerAuth
func (h *InstitutionHandler) Create(c *gin.Context) {
	var inst domain.Institution
	if err := c.ShouldBindJSON(&inst); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.institutionUC.CreateInstitution(c, &inst); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Institution created", inst)
}

// Update godoc
// @Summary      Update institution
// @Tags         institutions
// @Accept       json
// @Produce      json
// @Param        id     path      string                   true  "Institution ID"
// @Param        patch  body      domain.InstitutionPatch  true  "Fields to change"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /institutions/{id} [put]
// @Security     BearerAuth
func (h *InstitutionHandler) Update(c *gin.Context) {
	var patch domain.InstitutionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	inst, err := h.institutionUC.UpdateInstitution(c, c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution updated", inst)
}

// Delete godoc
// @Summary      Delete institution
// @Description  Admin only. Also removes the institution from every career.
// @Tags         institutions
// @Param        id   path      string  true  "Institution ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /institutions/{id} [delete]
// @Security     BearerAuth
func (h *InstitutionHandler) Delete(c *gin.Context) {
	if err := h.institutionUC.DeleteInstitution(c, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution deleted", nil)
}
