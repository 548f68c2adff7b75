package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standardized API envelope shared by the mock marketplace
// server and the bot's gateway client.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success sends a successful response.
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// Fail sends an error response with the given HTTP status and error code.
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, code, message string) {
	Fail(c, http.StatusBadRequest, code, message)
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, code, message string) {
	Fail(c, http.StatusUnauthorized, code, message)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(c *gin.Context, code, message string) {
	Fail(c, http.StatusTooManyRequests, code, message)
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, code, message string) {
	Fail(c, http.StatusInternalServerError, code, message)
}
