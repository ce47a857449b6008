package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/models"
)

// NewGinEngine builds a Gin router and registers all routes. Authorization
// requirements live here, next to the routes they protect, as one readable
// table.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())

	r.GET("/health", s.HandleHealth)

	// Public auth endpoints
	r.POST("/auth/register", s.HandleRegister)
	r.POST("/auth/login", s.HandleLogin)
	r.POST("/auth/refresh-token", s.HandleRefreshToken)
	r.POST("/auth/verify-user-email", s.HandleVerifyUserEmail)
	r.POST("/auth/resend-verification-email", s.HandleResendVerificationEmail)
	r.POST("/auth/forgot-password", s.HandleForgotPassword)
	r.POST("/auth/reset-password", s.HandleResetPassword)

	// Authenticated endpoints: token gate only
	authed := r.Group("/auth")
	authed.Use(s.TokenMiddleware())
	authed.POST("/logout", s.HandleLogout)
	authed.GET("/user", s.HandleCurrentUser)
	authed.POST("/change-password", s.HandleChangePassword)
	authed.POST("/change-email", s.HandleChangeEmail)

	// Admin-only auth endpoints: token gate + role gate + permission gate
	authed.POST("/assign-role", s.Require(adminOnly(models.ModuleRoleUser, models.ActionCreate)), s.HandleAssignRole)
	authed.POST("/revoke-role", s.Require(adminOnly(models.ModuleRoleUser, models.ActionDelete)), s.HandleRevokeRole)
	authed.POST("/set-user-email", s.Require(adminOnly(models.ModuleUser, models.ActionUpdate)), s.HandleSetUserEmail)
	authed.POST("/set-user-password", s.Require(adminOnly(models.ModuleUser, models.ActionUpdate)), s.HandleSetUserPassword)

	// User management
	users := r.Group("/users", s.TokenMiddleware())
	users.POST("", s.Require(adminOnly(models.ModuleUser, models.ActionCreate)), s.HandleCreateUser)
	users.GET("", s.Require(adminOnly(models.ModuleUser, models.ActionRead)), s.HandleListUsers)
	users.GET("/:id", s.Require(adminOnly(models.ModuleUser, models.ActionRead)), s.HandleGetUser)
	users.PATCH("/:id", s.Require(adminOnly(models.ModuleUser, models.ActionUpdate)), s.HandleUpdateUser)
	users.DELETE("/:id", s.Require(adminOnly(models.ModuleUser, models.ActionDelete)), s.HandleDeleteUser)

	// Role management
	roles := r.Group("/roles", s.TokenMiddleware())
	roles.POST("", s.Require(adminOnly(models.ModuleRole, models.ActionCreate)), s.HandleCreateRole)
	roles.GET("", s.Require(adminOnly(models.ModuleRole, models.ActionRead)), s.HandleListRoles)
	roles.POST("/seed", s.Require(adminOnly(models.ModuleRole, models.ActionCreate)), s.HandleSeedRoles)
	roles.POST("/permissions/assign", s.Require(adminOnly(models.ModuleRolePermission, models.ActionCreate)), s.HandleAssignRolePermission)
	roles.PATCH("/permissions/update", s.Require(adminOnly(models.ModuleRolePermission, models.ActionUpdate)), s.HandleUpdateRolePermission)
	roles.POST("/permissions/revoke", s.Require(adminOnly(models.ModuleRolePermission, models.ActionDelete)), s.HandleRevokeRolePermission)
	roles.GET("/:id", s.Require(adminOnly(models.ModuleRole, models.ActionRead)), s.HandleGetRole)
	roles.PATCH("/:id", s.Require(adminOnly(models.ModuleRole, models.ActionUpdate)), s.HandleUpdateRole)
	roles.DELETE("/:id", s.Require(adminOnly(models.ModuleRole, models.ActionDelete)), s.HandleDeleteRole)

	// Permission management
	perms := r.Group("/permissions", s.TokenMiddleware())
	perms.POST("", s.Require(adminOnly(models.ModulePermission, models.ActionCreate)), s.HandleCreatePermission)
	perms.GET("", s.Require(adminOnly(models.ModulePermission, models.ActionRead)), s.HandleListPermissions)
	perms.POST("/seed", s.Require(adminOnly(models.ModulePermission, models.ActionCreate)), s.HandleSeedPermissions)
	perms.GET("/:id", s.Require(adminOnly(models.ModulePermission, models.ActionRead)), s.HandleGetPermission)
	perms.PATCH("/:id", s.Require(adminOnly(models.ModulePermission, models.ActionUpdate)), s.HandleUpdatePermission)
	perms.DELETE("/:id", s.Require(adminOnly(models.ModulePermission, models.ActionDelete)), s.HandleDeletePermission)

	// Destructive reset for end-to-end test runs; registration is gated by
	// config so the route does not exist in production.
	if s.Config != nil && s.Config.TestEndpoints {
		r.POST("/test/setup", s.HandleTestSetup)
	}

	return r
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
