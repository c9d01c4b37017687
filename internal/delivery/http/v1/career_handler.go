package v1

import (
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/querybuilder"

	"github.com/gin-gonic/gin"
)

type CareerHandler struct {
	careerUC domain.CareerUsecase
}

var careerQueryOptions = querybuilder.Options{
	SearchFields: domain.CareerSearchFields,
	DefaultSort:  querybuilder.NewestFirst,
}

// NewCareerHandler registers career routes. public carries optional auth so
// views can be attributed; admin requires the admin role.
func NewCareerHandler(public, protected, admin *gin.RouterGroup, careerUC domain.CareerUsecase) {
	handler := &CareerHandler{careerUC: careerUC}

	careers := public.Group("/careers")
	{
		careers.GET("", handler.List)
		careers.GET("/slug/:slug", handler.GetBySlug)
		careers.GET("/:id", handler.Get)
	}

	saved := protected.Group("/careers")
	{
		saved.POST("/:id/save", handler.Save)
		saved.DELETE("/:id/save", handler.Unsave)
	}
	protected.GET("/me/saved-careers", handler.ListSaved)

	adminCareers := admin.Group("/careers")
	{
		adminCareers.POST("", handler.Create)
		adminCareers.PUT("/:id", handler.Update)
		adminCareers.DELETE("/:id", handler.Delete)
		adminCareers.POST("/:id/institutions", handler.AddInstitution)
		adminCareers.DELETE("/:id/institutions/:institutionId", handler.RemoveInstitution)
	}
}

type AddInstitutionRequest struct {
	InstitutionID string `json:"institutionId" binding:"required"`
	// Program optionally names the institution program that leads to the career.
	Program string `json:"program"`
}

// List godoc
// @Summary      List careers
// @Description  Filter (field=value, field[gt|gte|lt|lte|in]=value), search, select, sort, paginate and populate=institutions
// @Tags         careers
// @Produce      json
// @Param        search    query     string  false  "Case-insensitive search over title, category, description, key subjects and job prospects"
// @Param        sort      query     string  false  "Comma separated fields, prefix with - for descending"
// @Param        select    query     string  false  "Comma separated fields to return"
// @Param        page      query     int     false  "Page number"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Param        populate  query     string  false  "institutions"
// @Success      200       {object}  response.Response
// @Failure      400       {object}  response.Response
// @Router       /careers [get]
func (h *CareerHandler) List(c *gin.Context) {
	q := querybuilder.Build(c.Request.URL.Query(), careerQueryOptions)

	page, err := h.careerUC.ListCareers(c, q)
	if err != nil {
		c.Error(err)
		return
	}

	data, err := querybuilder.Project(page.Data, q.Select)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	response.Paginated(c, http.StatusOK, "Careers retrieved", len(page.Data), page.Pagination, data)
}

// Get godoc
// @Summary      Get career
// @Description  Returns the career with its institutions populated. Every read counts one view.
// @Tags         careers
// @Produce      json
// @Param        id   path      string  true  "Career ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /careers/{id} [get]
func (h *CareerHandler) Get(c *gin.Context) {
	career, err := h.careerUC.GetCareer(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career retrieved", career)
}

// GetBySlug godoc
// @Summary      Get career by slug
// @Tags         careers
// @Produce      json
// @Param        slug  path      string  true  "Career slug"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /careers/slug/{slug} [get]
func (h *CareerHandler) GetBySlug(c *gin.Context) {
	career, err := h.careerUC.GetCareerBySlug(c, c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career retrieved", career)
}

// Create godoc
// @Summary      Create career
// @Description  Admin only. Slug, counters and institutions are derived server-side.
// @Tags         careers
// @Accept       json
// @Produce      json
// @Param        career  body      domain.Career  true  "Career"
// @Success      201     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /careers [post]
// @Security     BearerAuth
func (h *CareerHandler) Create(c *gin.Context) {
	var career domain.Career
	if err := c.ShouldBindJSON(&career); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	if err := h.careerUC.CreateCareer(c, &career); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Career created", career)
}

// Update godoc
// @Summary      Update career
// @Description  Admin only. Partial update; institutions change only through the relationship routes.
// @Tags         careers
// @Accept       json
// @Produce      json
// @Param        id     path      string             true  "Career ID"
// @Param        patch  body      domain.CareerPatch  true  "Fields to change"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /careers/{id} [put]
// @Security     BearerAuth
func (h *CareerHandler) Update(c *gin.Context) {
	var patch domain.CareerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	career, err := h.careerUC.UpdateCareer(c, c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career updated", career)
}

// Delete godoc
// @Summary      Delete career
// @Description  Admin only. Also removes the career from every institution program.
// @Tags         careers
// @Param        id   path      string  true  "Career ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /careers/{id} [delete]
// @Security     BearerAuth
func (h *CareerHandler) Delete(c *gin.Context) {
	if err := h.careerUC.DeleteCareer(c, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career deleted", nil)
}

// AddInstitution godoc
// @Summary      Link institution to career
// @Description  Admin only. Adds the institution to the career and, when program is given, the career to that program.
// @Tags         careers
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Career ID"
// @Param        body  body      AddInstitutionRequest  true  "Institution link"
// @Success      200   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /careers/{id}/institutions [post]
// @Security     BearerAuth
func (h *CareerHandler) AddInstitution(c *gin.Context) {
	var req AddInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	career, err := h.careerUC.AddInstitutionToCareer(c, c.Param("id"), req.InstitutionID, req.Program)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution added to career", career)
}

// RemoveInstitution godoc
// @Summary      Unlink institution from career
// @Tags         careers
// @Produce      json
// @Param        id             path      string  true  "Career ID"
// @Param        institutionId  path      string  true  "Institution ID"
// @Success      200            {object}  response.Response
// @Failure      404            {object}  response.Response
// @Router       /careers/{id}/institutions/{institutionId} [delete]
// @Security     BearerAuth
func (h *CareerHandler) RemoveInstitution(c *gin.Context) {
	career, err := h.careerUC.RemoveInstitutionFromCareer(c, c.Param("id"), c.Param("institutionId"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution removed from career", career)
}

// Save godoc
// @Summary      Save career
// @Description  Bookmarks the career for the caller. The first save counts towards saves.
// @Tags         careers
// @Produce      json
// @Param        id   path      string  true  "Career ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /careers/{id}/save [post]
// @Security     BearerAuth
func (h *CareerHandler) Save(c *gin.Context) {
	career, err := h.careerUC.SaveCareer(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career saved", career)
}

// Unsave godoc
// @Summary      Remove saved career
// @Tags         careers
// @Param        id   path      string  true  "Career ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /careers/{id}/save [delete]
// @Security     BearerAuth
func (h *CareerHandler) Unsave(c *gin.Context) {
	if err := h.careerUC.UnsaveCareer(c, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career removed from saved list", nil)
}

// ListSaved godoc
// @Summary      List saved careers
// @Tags         me
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /me/saved-careers [get]
// @Security     BearerAuth
func (h *CareerHandler) ListSaved(c *gin.Context) {
	careers, err := h.careerUC.ListSavedCareers(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Saved careers retrieved", careers)
}
