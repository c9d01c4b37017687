package v1

import (
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// maxBootstrapBody caps the seed payload accepted over HTTP.
const maxBootstrapBody = 32 << 20

type AdminHandler struct {
	bootstrapUC domain.BootstrapUsecase
}

// NewAdminHandler registers the bootstrap and consistency routes. strict is
// applied to the write routes on top of the admin group's middleware.
func NewAdminHandler(admin *gin.RouterGroup, bootstrapUC domain.BootstrapUsecase, strict gin.HandlerFunc) {
	handler := &AdminHandler{bootstrapUC: bootstrapUC}

	routes := admin.Group("/admin")
	{
		routes.POST("/bootstrap", strict, handler.Bootstrap)
		routes.GET("/consistency", handler.CheckConsistency)
		routes.POST("/consistency/repair", strict, handler.RepairConsistency)
	}
}

// Bootstrap godoc
// @Summary      Seed careers and institutions
// @Description  Three-pass bootstrap. Program careers are referenced by title; mode is lenient (drop and report) or strict (abort).
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        input  body      domain.BootstrapInput  true  "Careers and institutions"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /admin/bootstrap [post]
// @Security     BearerAuth
func (h *AdminHandler) Bootstrap(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBootstrapBody)

	var input domain.BootstrapInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	report, err := h.bootstrapUC.Run(c, input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Bootstrap completed", report)
}

// CheckConsistency godoc
// @Summary      Check relationship consistency
// @Description  Lists program career references whose career does not hold the institution
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /admin/consistency [get]
// @Security     BearerAuth
func (h *AdminHandler) CheckConsistency(c *gin.Context) {
	report, err := h.bootstrapUC.CheckConsistency(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Consistency report", report)
}

// RepairConsistency godoc
// @Summary      Repair relationship consistency
// @Description  Adds every missing institution to its careers. Safe to repeat.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /admin/consistency/repair [post]
// @Security     BearerAuth
func (h *AdminHandler) RepairConsistency(c *gin.Context) {
	report, err := h.bootstrapUC.RepairConsistency(c)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Consistency repaired", report)
}
