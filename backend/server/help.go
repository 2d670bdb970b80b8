package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Help(c *gin.Context) {
	c.String(http.StatusOK, `
	SkySafe API:
	Aviation obstacle reporting server, API v1.
	`)
}
