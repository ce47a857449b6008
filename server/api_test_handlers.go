package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/seed"
)

// HandleTestSetup wipes every table and reseeds the baseline data, giving
// end-to-end suites a known starting state. Only registered when
// test_endpoints is enabled in config.
func (s *Server) HandleTestSetup(c *gin.Context) {
	if err := seed.Wipe(c.Request.Context(), s.DB); err != nil {
		writeError(c, err)
		return
	}
	if err := seed.Run(c.Request.Context(), s.DB); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Test data ready"})
}
