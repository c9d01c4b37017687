package response

import (
	"career-catalog-backend/pkg/querybuilder"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Count      *int                     `json:"count,omitempty"`
	Pagination *querybuilder.Pagination `json:"pagination,omitempty"`
	Data       interface{}              `json:"data,omitempty"`
	Error      interface{}              `json:"error,omitempty"`
	RequestID  string                   `json:"request_id,omitempty"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string) // Safe type assertion
	return idStr
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Paginated sends one page of a listing. count is the number of items on
// this page; the pagination block carries the total.
func Paginated(c *gin.Context, code int, message string, count int, pagination querybuilder.Pagination, data interface{}) {
	c.JSON(code, Response{
		Success:    true,
		Message:    message,
		Count:      &count,
		Pagination: &pagination,
		Data:       data,
		RequestID:  requestID(c),
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, err interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: requestID(c),
	})
}
