package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/dto"
	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

func (s *Server) HandleCreateRole(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	role, err := s.Roles.Create(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRole(role))
}

func (s *Server) HandleListRoles(c *gin.Context) {
	roles, err := s.Roles.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRoles(roles))
}

func (s *Server) HandleGetRole(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	role, err := s.Roles.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRole(role))
}

func (s *Server) HandleUpdateRole(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	role, err := s.Roles.Update(c.Request.Context(), id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRole(role))
}

// HandleDeleteRole removes a role and, transactionally, every permission
// grant and user assignment hanging off it.
func (s *Server) HandleDeleteRole(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	if err := s.Roles.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role deleted"})
}

// HandleSeedRoles creates any missing system roles and reports the full
// set. Safe to call repeatedly.
func (s *Server) HandleSeedRoles(c *gin.Context) {
	roles, err := s.Roles.SeedSystemRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRoles(roles))
}

func (s *Server) HandleAssignRolePermission(c *gin.Context) {
	var req dto.AssignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.RoleID) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	if !models.IsValidID(req.PermissionID) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	canDo := true
	if req.CanDoTheAction != nil {
		canDo = *req.CanDoTheAction
	}
	rp, err := s.Roles.AssignPermission(c.Request.Context(), req.RoleID, req.PermissionID, canDo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rp)
}

func (s *Server) HandleUpdateRolePermission(c *gin.Context) {
	var req dto.UpdateRolePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.RoleID) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	if !models.IsValidID(req.PermissionID) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	rp, err := s.Roles.UpdatePermission(c.Request.Context(), req.RoleID, req.PermissionID, req.CanDoTheAction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rp)
}

// HandleRevokeRolePermission removes a grant; revoking one that does not
// exist is a no-op.
func (s *Server) HandleRevokeRolePermission(c *gin.Context) {
	var req dto.RevokeRolePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.RoleID) {
		writeError(c, errs.InvalidInput("INVALID_ROLE_ID"))
		return
	}
	if !models.IsValidID(req.PermissionID) {
		writeError(c, errs.InvalidInput("INVALID_PERMISSION_ID"))
		return
	}
	if err := s.Roles.RevokePermission(c.Request.Context(), req.RoleID, req.PermissionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Permission revoked"})
}
