package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/auth"
	"github.com/authgate/authgate/dto"
	"github.com/authgate/authgate/email"
	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
	"github.com/authgate/authgate/store"
)

// HandleRegister creates an account in unverified status and mails a
// verification token. Duplicate email is a 400.
func (s *Server) HandleRegister(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := dto.ValidatePassword(req.Password); err != nil {
		writeError(c, err)
		return
	}

	user, err := s.Users.Create(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName, models.UserStatusUnverified)
	if err != nil {
		writeError(c, err)
		return
	}

	// Every account starts with the default role. A database without seeded
	// roles just produces a role-less account, not a failed registration.
	if _, err := s.Users.AssignRoleByName(c.Request.Context(), user.ID, string(models.RoleNameUser)); err != nil && !errs.IsNotFound(err) {
		writeError(c, err)
		return
	}

	if err := s.sendVerificationMail(c, user); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// HandleLogin verifies credentials and issues a token pair. Bad email and
// bad password both come back as 401 so the response does not reveal which
// half was wrong.
func (s *Server) HandleLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, errs.Unauthorized("UNAUTHORIZED"))
		return
	}
	if !auth.VerifyPassword(user.Password, req.Password) {
		writeError(c, errs.Unauthorized("UNAUTHORIZED"))
		return
	}

	resp, err := s.issuePair(c, user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// HandleRefreshToken rotates a token pair. The presented pair must have
// been issued together and still be on record; the old record is removed so
// the superseded pair stops working immediately.
func (s *Server) HandleRefreshToken(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	refreshClaims, err := s.Issuer.ValidateRefresh(req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	accessClaims, err := s.Issuer.ParseAccessAllowExpired(req.AccessToken)
	if err != nil {
		writeError(c, err)
		return
	}
	if refreshClaims.Subject != accessClaims.Subject {
		writeError(c, errs.Unauthorized("UNAUTHORIZED"))
		return
	}

	if _, err := s.Tokens.FindPair(c.Request.Context(), req.AccessToken, req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Tokens.DeleteByAccess(c.Request.Context(), req.AccessToken); err != nil {
		writeError(c, err)
		return
	}

	// Roles are re-read so a grant change since login lands in the new token.
	user, err := s.Users.FindByID(c.Request.Context(), refreshClaims.Subject)
	if err != nil {
		writeError(c, errs.Unauthorized("UNAUTHORIZED"))
		return
	}

	resp, err := s.issuePair(c, user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// HandleLogout revokes the presented pair.
func (s *Server) HandleLogout(c *gin.Context) {
	if err := s.Tokens.DeleteByAccess(c.Request.Context(), GetAccessTokenFromContext(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Logged out"})
}

// HandleCurrentUser returns the authenticated user.
func (s *Server) HandleCurrentUser(c *gin.Context) {
	user, err := s.Users.FindByID(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// HandleVerifyUserEmail consumes an email-verification token and activates
// the account.
func (s *Server) HandleVerifyUserEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Verifications.Consume(c.Request.Context(), user.ID, req.Token, models.PurposeEmailVerification); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Users.SetStatus(c.Request.Context(), user.ID, models.UserStatusActive); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Email verified"})
}

// HandleResendVerificationEmail issues a fresh verification token,
// invalidating any earlier one.
func (s *Server) HandleResendVerificationEmail(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.Status == models.UserStatusActive {
		writeError(c, errs.InvalidInput("USER_ALREADY_VERIFIED"))
		return
	}
	if err := s.sendVerificationMail(c, user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Verification email sent"})
}

// HandleForgotPassword starts the reset flow by mailing a reset token.
func (s *Server) HandleForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := s.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	rec, err := s.Verifications.Issue(c.Request.Context(), user.ID, models.PurposePasswordReset, PasswordResetTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Mailer.SendPasswordReset(c.Request.Context(), email.VerificationEmailData{
		To:           user.Email,
		Name:         user.FirstName,
		Token:        rec.Token,
		ExpiresInMin: int(PasswordResetTTL.Minutes()),
	}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Password reset email sent"})
}

// HandleChangePassword rotates the caller's own password after verifying
// the old one.
func (s *Server) HandleChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := dto.ValidatePassword(req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	user, err := s.Users.FindByID(c.Request.Context(), GetUserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if !auth.VerifyPassword(user.Password, req.OldPassword) {
		writeError(c, errs.Unauthorized("UNAUTHORIZED"))
		return
	}
	if err := s.Users.SetPassword(c.Request.Context(), user.ID, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Password changed"})
}

// HandleChangeEmail moves the caller's own account to a new address. The
// address stays unique across users, so a taken email comes back as
// EMAIL_ALREADY_EXISTS.
func (s *Server) HandleChangeEmail(c *gin.Context) {
	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if _, err := s.Users.Update(c.Request.Context(), GetUserIDFromContext(c), store.UserUpdate{Email: &req.Email}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Email changed"})
}

// HandleResetPassword completes the forgot-password flow. Every live
// session is revoked, since whoever triggered the reset may not be the one
// holding them.
func (s *Server) HandleResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := dto.ValidatePassword(req.Password); err != nil {
		writeError(c, err)
		return
	}

	user, err := s.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Verifications.Consume(c.Request.Context(), user.ID, req.Token, models.PurposePasswordReset); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Users.SetPassword(c.Request.Context(), user.ID, req.Password); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Tokens.DeleteByUser(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Password reset"})
}

// HandleAssignRole grants a role to a user by name.
func (s *Server) HandleAssignRole(c *gin.Context) {
	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.UserID) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	if _, err := s.Users.AssignRoleByName(c.Request.Context(), req.UserID, req.RoleName); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Role assigned"})
}

// HandleRevokeRole removes a role from a user by name.
func (s *Server) HandleRevokeRole(c *gin.Context) {
	var req dto.RevokeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.UserID) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	if err := s.Users.RevokeRoleByName(c.Request.Context(), req.UserID, req.RoleName); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Role revoked"})
}

// HandleSetUserEmail sets another user's email.
func (s *Server) HandleSetUserEmail(c *gin.Context) {
	var req dto.SetUserEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.UserID) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	if _, err := s.Users.Update(c.Request.Context(), req.UserID, store.UserUpdate{Email: &req.Email}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Email updated"})
}

// HandleSetUserPassword sets another user's password and revokes their
// sessions.
func (s *Server) HandleSetUserPassword(c *gin.Context) {
	var req dto.SetUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if !models.IsValidID(req.UserID) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	if err := dto.ValidatePassword(req.Password); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Users.SetPassword(c.Request.Context(), req.UserID, req.Password); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Tokens.DeleteByUser(c.Request.Context(), req.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Password updated"})
}

// issuePair mints and records a token pair for the user.
func (s *Server) issuePair(c *gin.Context, user *models.User) (*dto.TokenResponse, error) {
	roles := []string{}
	for _, ru := range user.RoleUsers {
		if ru.Role != nil {
			roles = append(roles, string(ru.Role.Name))
		}
	}
	pair, err := s.Issuer.Issue(user.ID, user.Email, roles)
	if err != nil {
		return nil, err
	}
	rec := models.AuthToken{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if err := s.Tokens.Save(c.Request.Context(), rec, s.Issuer.RefreshTTL); err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.Unix(),
	}, nil
}

// sendVerificationMail issues a fresh email-verification token and mails it.
func (s *Server) sendVerificationMail(c *gin.Context, user *models.User) error {
	rec, err := s.Verifications.Issue(c.Request.Context(), user.ID, models.PurposeEmailVerification, VerificationTTL)
	if err != nil {
		return err
	}
	return s.Mailer.SendVerification(c.Request.Context(), email.VerificationEmailData{
		To:           user.Email,
		Name:         user.FirstName,
		Token:        rec.Token,
		ExpiresInMin: int(VerificationTTL.Minutes()),
	})
}
