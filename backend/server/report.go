package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/report"
	"skysafe/backend/server/api"
)

// CreateReport stores a new obstacle report as a draft or, when
// submitted, as pending review.
func (s *Server) CreateReport(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportCreate); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	var args api.ReportArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		log.Infof("Failed to get the argument in %s call: %v", EndPointReports, err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "could not read JSON input"})
		return
	}

	r := &api.Report{
		ID:        uuid.NewString(),
		OwnerID:   p.ID,
		Status:    string(report.StatusAfter(report.Action(args.Action))),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.applyReportArgs(c, r, &args); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	if err := db.SaveReport(s.db, r); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to save the report"})
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateReport edits a draft. Submitting moves it to pending.
func (s *Server) UpdateReport(c *gin.Context) {
	p := principal(c)
	id := c.Param("id")

	existing, err := db.GetReport(s.db, id)
	if err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	if err := authz.AuthorizeEdit(p, existing.OwnerID); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	if err := report.CanEdit(existing, p.ID); err != nil {
		c.JSON(http.StatusForbidden, api.ErrorResponse{
			Error:    err.Error(),
			Redirect: EndPointMyReports,
		})
		return
	}

	var args api.ReportArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		log.Infof("Failed to get the argument in %s call: %v", EndPointReport, err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "could not read JSON input"})
		return
	}

	r := &api.Report{
		ID:        existing.ID,
		OwnerID:   existing.OwnerID,
		Status:    string(report.StatusAfter(report.Action(args.Action))),
		CreatedAt: existing.CreatedAt,
	}
	now := time.Now().UTC()
	r.UpdatedAt = &now
	if err := s.applyReportArgs(c, r, &args); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	if err := db.UpdateReport(s.db, r); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	c.JSON(http.StatusOK, r)
}

// applyReportArgs validates the submitted fields and copies them onto
// the stored report. When a geometry is present its representative
// coordinate wins over any client-sent lat/lon, so the dedicated
// columns always agree with the shape.
func (s *Server) applyReportArgs(c *gin.Context, r *api.Report, args *api.ReportArgs) error {
	if args.Geometry != nil {
		rep, err := args.Geometry.Representative()
		if err != nil {
			return report.ValidationErrors{"geometry": err.Error()}
		}
		args.Latitude, args.Longitude = &rep.Lat, &rep.Lon
	}

	if errs := report.Validate(args, report.Action(args.Action)); errs != nil {
		return errs
	}

	if args.ObstacleType != "" {
		known, err := db.ObstacleTypeExists(s.db, args.ObstacleType)
		if err != nil {
			return err
		}
		if !known {
			return report.ValidationErrors{"obstacle_type": fmt.Sprintf("unknown obstacle type %q", args.ObstacleType)}
		}
	}

	if args.Latitude != nil && args.Longitude != nil {
		lat := decimal.NewFromFloat(*args.Latitude).Round(9)
		lon := decimal.NewFromFloat(*args.Longitude).Round(9)
		r.Latitude, r.Longitude = &lat, &lon
	}
	r.Geometry = args.Geometry
	r.HeightFt = args.HeightFt
	r.ObstacleType = args.ObstacleType
	r.Description = args.Description
	return nil
}

// GetReport serves one report, owner-scoped unless the caller is a
// reviewer.
func (s *Server) GetReport(c *gin.Context) {
	p := principal(c)
	id := c.Param("id")

	r, err := db.GetReport(s.db, id)
	if err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	if err := authz.AuthorizeView(p, r.OwnerID); err != nil {
		// An OrgAdmin may still view reports from its own organization.
		if !s.orgAdminMayView(p, r.OwnerID) {
			respondError(c, err, EndPointMyReports)
			return
		}
	}
	c.JSON(http.StatusOK, r)
}

// orgAdminMayView checks the OrgAdmin escape hatch for single-report
// views: the owner must belong to the admin's resolved organization.
func (s *Server) orgAdminMayView(p authz.Principal, ownerID string) bool {
	if !p.HasRole(authz.RoleOrgAdmin) {
		return false
	}
	org, err := db.ResolveAdminOrg(s.db, p)
	if err != nil {
		return false
	}
	members, err := db.ListMembers(s.db, org.ID)
	if err != nil {
		return false
	}
	for _, m := range members {
		if m.ID == ownerID {
			return true
		}
	}
	return false
}

// MyReports lists the caller's own reports.
func (s *Server) MyReports(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportListMine); err != nil {
		respondError(c, err, EndPointHelp)
		return
	}
	s.listReports(c, db.ReportFilter{
		OwnerID: p.ID,
		SortBy:  c.Query("sort"),
		Asc:     c.Query("dir") == "asc",
	})
}

// PendingReports lists reports awaiting review.
func (s *Server) PendingReports(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportListPending); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	s.listReports(c, db.ReportFilter{
		Statuses: []string{api.StatusPending},
		SortBy:   c.Query("sort"),
		Asc:      c.Query("dir") == "asc",
	})
}

// ReviewedReports lists approved and rejected reports, optionally
// filtered to one outcome.
func (s *Server) ReviewedReports(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportListReviewed); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	statuses := []string{api.StatusApproved, api.StatusRejected}
	switch c.Query("outcome") {
	case api.StatusApproved:
		statuses = []string{api.StatusApproved}
	case api.StatusRejected:
		statuses = []string{api.StatusRejected}
	}
	s.listReports(c, db.ReportFilter{
		Statuses: statuses,
		SortBy:   c.Query("sort"),
		Asc:      c.Query("dir") == "asc",
	})
}

// OrgReports lists reports from the members of the admin's resolved
// organization. When the organization cannot be resolved the listing
// widens to every user with a membership.
func (s *Server) OrgReports(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportListOrg); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	filter := db.ReportFilter{
		SortBy: c.Query("sort"),
		Asc:    c.Query("dir") == "asc",
	}
	org, err := db.ResolveAdminOrg(s.db, p)
	if err == nil {
		filter.OrgID = org.ID
	} else {
		log.Infof("No organization resolved for %s, listing all organization members", p.Username)
		filter.AnyOrg = true
	}
	s.listReports(c, filter)
}

// AllReports lists every report in the system.
func (s *Server) AllReports(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportListAll); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}
	s.listReports(c, db.ReportFilter{
		SortBy: c.Query("sort"),
		Asc:    c.Query("dir") == "asc",
	})
}

func (s *Server) listReports(c *gin.Context, filter db.ReportFilter) {
	reports, err := db.ListReports(s.db, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, api.ReportsResponse{Reports: reports})
}
