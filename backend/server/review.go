package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/server/api"
)

const (
	titleApproved = "Report approved"
	titleRejected = "Report rejected"
)

// ApproveReport records an approval and notifies the owner.
func (s *Server) ApproveReport(c *gin.Context) {
	s.review(c, api.StatusApproved, titleApproved)
}

// RejectReport records a rejection and notifies the owner.
func (s *Server) RejectReport(c *gin.Context) {
	s.review(c, api.StatusRejected, titleRejected)
}

// review performs an approve/reject decision. The source status is
// deliberately not checked: a registrar may re-decide a report that
// was already reviewed, matching how the review queue is used in
// practice.
func (s *Server) review(c *gin.Context, status, title string) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportReview); err != nil {
		respondError(c, err, EndPointPendingReports)
		return
	}

	var args api.ReviewArgs
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "could not read JSON input"})
			return
		}
	}

	id := c.Param("id")
	r, err := db.GetReport(s.db, id)
	if err != nil {
		respondError(c, err, EndPointPendingReports)
		return
	}

	now := time.Now().UTC()
	if err := db.SetReportStatus(s.db, id, status, args.Comment, now); err != nil {
		respondError(c, err, EndPointPendingReports)
		return
	}
	log.Infof("Report %s %s by %s", id, status, p.Username)

	// Notification is a best-effort side effect: the decision stands
	// even when the insert fails.
	message := reviewMessage(r, status, args.Comment)
	if _, err := db.CreateNotification(s.db, r.OwnerID, r.ID, title, message); err != nil {
		log.Errorf("Failed to create notification for report %s: %v", id, err)
	}

	r.Status = status
	r.RegistrarComment = args.Comment
	r.UpdatedAt = &now
	c.JSON(http.StatusOK, r)
}

func reviewMessage(r *api.Report, status, comment string) string {
	subject := "Your obstacle report"
	if r.ObstacleType != "" {
		subject = fmt.Sprintf("Your %s report", r.ObstacleType)
	}
	msg := fmt.Sprintf("%s from %s has been %s.",
		subject, r.CreatedAt.Format("2006-01-02"), statusVerb(status))
	if comment != "" {
		msg += " Registrar comment: " + comment
	}
	return msg
}

func statusVerb(status string) string {
	if status == api.StatusApproved {
		return "approved"
	}
	return "rejected"
}

// DeleteReport removes a report unconditionally. Admin only.
func (s *Server) DeleteReport(c *gin.Context) {
	p := principal(c)
	if err := authz.Authorize(p, authz.OpReportDelete); err != nil {
		respondError(c, err, EndPointMyReports)
		return
	}

	id := c.Param("id")
	if err := db.DeleteReport(s.db, id); err != nil {
		respondError(c, err, EndPointReports)
		return
	}
	log.Infof("Report %s deleted by %s", id, p.Username)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "report deleted"})
}
