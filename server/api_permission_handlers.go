package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/dto"
	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

func (s *Server) HandleCreatePermission(c *gin.Context) {
	var req dto.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	perm, err := s.Permissions.Create(c.Request.Context(), req.Action, req.Module)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromPermission(perm))
}

func (s *Server) HandleListPermissions(c *gin.Context) {
	perms, err := s.Permissions.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPermissions(perms))
}

func (s *Server) HandleGetPermission(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	perm, err := s.Permissions.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPermission(perm))
}

func (s *Server) HandleUpdatePermission(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	var req dto.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	perm, err := s.Permissions.Update(c.Request.Context(), id, req.Action, req.Module)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPermission(perm))
}

func (s *Server) HandleDeletePermission(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	if err := s.Permissions.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permission deleted"})
}

// HandleSeedPermissions creates the full action x module matrix, skipping
// rows that already exist. Safe to call repeatedly.
func (s *Server) HandleSeedPermissions(c *gin.Context) {
	perms, err := s.Permissions.Seed(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromPermissions(perms))
}
