package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/dto"
	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
	"github.com/authgate/authgate/store"
)

// HandleCreateUser creates a user through the management API. Unlike
// register, the account starts active; an admin vouched for it.
func (s *Server) HandleCreateUser(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := dto.ValidatePassword(req.Password); err != nil {
		writeError(c, err)
		return
	}
	user, err := s.Users.Create(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName, models.UserStatusActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

func (s *Server) HandleListUsers(c *gin.Context) {
	users, err := s.Users.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}

func (s *Server) HandleGetUser(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	user, err := s.Users.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (s *Server) HandleUpdateUser(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	upd := store.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		switch status {
		case models.UserStatusUnverified, models.UserStatusActive, models.UserStatusSuspended:
		default:
			writeError(c, errs.InvalidInput("INVALID_USER_STATUS"))
			return
		}
		upd.Status = &status
	}

	user, err := s.Users.Update(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// HandleDeleteUser removes a user and their role assignments, and revokes
// any live sessions.
func (s *Server) HandleDeleteUser(c *gin.Context) {
	id := c.Param("id")
	if !models.IsValidID(id) {
		writeError(c, errs.InvalidInput("INVALID_USER_ID"))
		return
	}
	if err := s.Users.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Tokens.DeleteByUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
