// Package handlers contains HTTP request handlers for the todo service.
package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error payload returned by every handler.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Code: code, Message: message})
}

// logAndRespondError logs the underlying error server-side and returns a
// generic payload; internal detail never reaches the caller.
func logAndRespondError(c *gin.Context, status int, err error, code, message string) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	respondError(c, status, code, message)
}
