package v1

import (
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC domain.AuthUsecase
}

// NewAuthHandler registers the account routes. Tokens are issued by the
// identity provider; this service only verifies them.
func NewAuthHandler(protected *gin.RouterGroup, authUC domain.AuthUsecase) {
	handler := &AuthHandler{authUC: authUC}

	protected.GET("/me", handler.Me)
}

type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Me godoc
// @Summary      Current user
// @Tags         me
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	me := MeResponse{
		ID:    userID,
		Email: c.GetString(string(domain.KeyUserEmail)),
		Role:  c.GetString(string(domain.KeyUserRole)),
	}

	// Accounts not yet mirrored locally still get their token identity.
	if user, err := h.authUC.GetCurrentUser(c, userID); err == nil {
		me.Email = user.Email
		me.Role = user.Role
	}

	response.Success(c, http.StatusOK, "Current user", me)
}
