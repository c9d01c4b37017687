package v1

import (
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

// NewHealthHandler reports 503 while degraded or bootstrapping so load
// balancers hold traffic.
func NewHealthHandler(public *gin.RouterGroup, healthUC usecase.HealthUsecase) {
	public.GET("/health", func(c *gin.Context) {
		status := healthUC.Check(c)
		if status["status"] != "ok" {
			response.Error(c, http.StatusServiceUnavailable, "System "+status["status"], status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})
}
