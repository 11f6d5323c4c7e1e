package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, code int, message string) {
	c.JSON(code, errorResponse{Error: message})
}

func badRequestError(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, message)
}

func notFoundError(c *gin.Context) {
	c.Status(http.StatusNotFound)
}

func internalError(c *gin.Context, message string) {
	writeError(c, http.StatusInternalServerError, message)
}

func tooManyRequestsError(c *gin.Context, message string) {
	writeError(c, http.StatusTooManyRequests, message)
}
