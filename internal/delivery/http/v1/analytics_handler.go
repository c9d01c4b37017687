package v1

import (
	"net/http"
	"strconv"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsUC domain.AnalyticsUsecase
}

func NewAnalyticsHandler(public *gin.RouterGroup, analyticsUC domain.AnalyticsUsecase) {
	handler := &AnalyticsHandler{analyticsUC: analyticsUC}

	public.GET("/careers/stats", handler.CareerStats)
	public.GET("/careers/:id/related", handler.Related)

	analytics := public.Group("/analytics")
	{
		analytics.GET("/categories", handler.Categories)
		analytics.GET("/demand", handler.Demand)
		analytics.GET("/top", handler.Top)
		analytics.GET("/trends", handler.Trends)
		analytics.GET("/grades", handler.Grades)
		analytics.GET("/salaries", handler.Salaries)
		analytics.GET("/institutions", handler.Institutions)
	}
}

// limitParam reads ?limit; invalid values fall back to the usecase default.
func limitParam(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// CareerStats godoc
// @Summary      Career overview
// @Description  Totals, category and demand distributions, top viewed and top saved careers
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /careers/stats [get]
func (h *AnalyticsHandler) CareerStats(c *gin.Context) {
	stats, err := h.analyticsUC.CareerStats(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career statistics", stats)
}

// Related godoc
// @Summary      Related careers
// @Description  Up to five careers in the same category and up to five sharing a key subject
// @Tags         analytics
// @Produce      json
// @Param        id   path      string  true  "Career ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /careers/{id}/related [get]
func (h *AnalyticsHandler) Related(c *gin.Context) {
	related, err := h.analyticsUC.RelatedCareers(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Related careers", related)
}

// Categories godoc
// @Summary      Category distribution
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /analytics/categories [get]
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	counts, err := h.analyticsUC.CategoryDistribution(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Category distribution", counts)
}

// Demand godoc
// @Summary      Market demand distribution
// @Description  Ordered Very High, High, Medium, Low; empty levels are omitted
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /analytics/demand [get]
func (h *AnalyticsHandler) Demand(c *gin.Context) {
	counts, err := h.analyticsUC.DemandDistribution(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Demand distribution", counts)
}

// Top godoc
// @Summary      Most popular careers
// @Tags         analytics
// @Produce      json
// @Param        metric  query     string  false  "views or saves"  default(views)
// @Param        limit   query     int     false  "Number of careers"  default(10)
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Router       /analytics/top [get]
func (h *AnalyticsHandler) Top(c *gin.Context) {
	metric := domain.PopularityMetric(c.DefaultQuery("metric", string(domain.MetricViews)))

	top, err := h.analyticsUC.TopCareers(c, metric, limitParam(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Top careers", top)
}

// Trends godoc
// @Summary      Trending and emerging careers
// @Tags         analytics
// @Produce      json
// @Param        limit  query     int  false  "Number of careers per list"  default(10)
// @Success      200    {object}  response.Response
// @Router       /analytics/trends [get]
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	trends, err := h.analyticsUC.Trends(c, limitParam(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Career trends", trends)
}

// Grades godoc
// @Summary      Minimum mean grade distribution
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /analytics/grades [get]
func (h *AnalyticsHandler) Grades(c *gin.Context) {
	groups, err := h.analyticsUC.GradeDistribution(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Grade distribution", groups)
}

// Salaries godoc
// @Summary      Salary ranking
// @Description  Careers ordered by numeric entry salary
// @Tags         analytics
// @Produce      json
// @Param        limit  query     int  false  "Number of careers"  default(10)
// @Success      200    {object}  response.Response
// @Router       /analytics/salaries [get]
func (h *AnalyticsHandler) Salaries(c *gin.Context) {
	rows, err := h.analyticsUC.SalaryRanking(c, limitParam(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Salary ranking", rows)
}

// Institutions godoc
// @Summary      Institution statistics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /analytics/institutions [get]
func (h *AnalyticsHandler) Institutions(c *gin.Context) {
	stats, err := h.analyticsUC.InstitutionStats(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Institution statistics", stats)
}
