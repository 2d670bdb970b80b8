package server

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"skysafe/backend/auth"
	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/server/api"
)

// Register handles self-registration. New accounts get the submitter
// roles; elevated roles are assigned by an admin afterwards.
func (s *Server) Register(c *gin.Context) {
	var args api.RegisterArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := s.auth.Register(args, []authz.Role{authz.RoleDefaultUser, authz.RolePilot})
	if err != nil {
		respondError(c, err, EndPointLogin)
		return
	}
	log.Infof("User %s registered", user.Username)
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and returns a bearer token.
func (s *Server) Login(c *gin.Context) {
	var args api.LoginArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	token, user, err := s.auth.Login(args.Username, args.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "login failed"})
		return
	}
	c.JSON(http.StatusOK, api.TokenResponse{Token: token, User: user})
}

// Users lists all accounts. Admin only.
func (s *Server) Users(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpUserAdminister); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	users, err := db.ListUsers(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, api.UsersResponse{Users: users})
}

// CreateUser is admin provisioning with an explicit role set.
func (s *Server) CreateUser(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpUserAdminister); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	var args api.CreateUserArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	roles, err := authz.ParseRoles(args.Roles)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"roles": err.Error()},
		})
		return
	}

	user, err := s.auth.Register(args.RegisterArgs, roles)
	if err != nil {
		respondError(c, err, EndPointUsers)
		return
	}
	log.Infof("User %s created by %s with roles %v", user.Username, p.Username, user.Roles)
	c.JSON(http.StatusCreated, user)
}

// SetUserRoles replaces a user's role set. Admin only.
func (s *Server) SetUserRoles(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpUserAdminister); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	var args api.SetRolesArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	roles, err := authz.ParseRoles(args.Roles)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"roles": err.Error()},
		})
		return
	}

	id := c.Param("id")
	user, err := db.GetUser(s.db, id)
	if err != nil {
		respondError(c, err, EndPointUsers)
		return
	}
	if err := db.SetUserRoles(s.db, id, roles); err != nil {
		respondError(c, err, EndPointUsers)
		return
	}
	user.Roles = authz.RoleStrings(roles)
	log.Infof("Roles of user %s set to %v by %s", user.Username, user.Roles, p.Username)
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account. Admin only.
func (s *Server) DeleteUser(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpUserAdminister); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	id := c.Param("id")
	if id == p.ID {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "you cannot delete your own account"})
		return
	}
	if err := db.DeleteUser(s.db, id); err != nil {
		respondError(c, err, EndPointUsers)
		return
	}
	log.Infof("User %s deleted by %s", id, p.Username)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "user deleted"})
}
