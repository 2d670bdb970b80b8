package server

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/server/api"
)

// Organizations lists all organizations. Admin only.
func (s *Server) Organizations(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpOrgAdminister); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}
	orgs, err := db.ListOrganizations(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list organizations"})
		return
	}
	c.JSON(http.StatusOK, api.OrganizationsResponse{Organizations: orgs})
}

// CreateOrganization registers a new organization. Admin only.
func (s *Server) CreateOrganization(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpOrgAdminister); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}

	var args api.CreateOrganizationArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "could not read JSON input"})
		return
	}

	org, err := db.CreateOrganization(s.db, args.Name, args.Code)
	if err != nil {
		respondError(c, err, EndPointOrgs)
		return
	}
	log.Infof("Organization %s (%s) created by %s", org.Name, org.Code, p.Username)
	c.JSON(http.StatusCreated, org)
}

// MyOrganization serves the organization the calling admin manages,
// with its member list.
func (s *Server) MyOrganization(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpOrgManage); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	org, err := db.ResolveAdminOrg(s.db, p)
	if err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	members, err := db.ListMembers(s.db, org.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list members"})
		return
	}
	c.JSON(http.StatusOK, api.OrganizationDetail{Organization: *org, Members: members})
}

// AddOrgMember adds a user to an organization. Adding an existing
// member is a no-op with an informational message.
func (s *Server) AddOrgMember(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpOrgManage); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}

	var args api.AddMemberArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "could not read JSON input"})
		return
	}

	orgID := c.Param("id")
	if _, err := db.GetOrganization(s.db, orgID); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}
	if _, err := db.GetUser(s.db, args.UserID); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}

	added, err := db.AddMember(s.db, orgID, args.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to add member"})
		return
	}
	if !added {
		c.JSON(http.StatusOK, api.MessageResponse{Message: "user is already a member"})
		return
	}
	log.Infof("User %s added to organization %s by %s", args.UserID, orgID, p.Username)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "member added"})
}

// RemoveOrgMember removes a membership; removing a non-member fails
// with an error message and no other effect.
func (s *Server) RemoveOrgMember(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpOrgManage); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}

	orgID := c.Param("id")
	userID := c.Param("userID")
	if err := db.RemoveMember(s.db, orgID, userID); err != nil {
		respondError(c, err, EndPointMyOrg)
		return
	}
	log.Infof("User %s removed from organization %s by %s", userID, orgID, p.Username)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "member removed"})
}
