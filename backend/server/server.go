package server

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"skysafe/backend/auth"
	"skysafe/backend/config"
)

const (
	EndPointHelp = "/help"

	EndPointRegister = "/api/v1/auth/register"
	EndPointLogin    = "/api/v1/auth/login"

	EndPointObstacleTypes = "/api/v1/obstacle_types"

	EndPointReports         = "/api/v1/reports"
	EndPointReport          = "/api/v1/reports/:id"
	EndPointMyReports       = "/api/v1/reports/mine"
	EndPointPendingReports  = "/api/v1/reports/pending"
	EndPointReviewedReports = "/api/v1/reports/reviewed"
	EndPointOrgReports      = "/api/v1/reports/org"
	EndPointApproveReport   = "/api/v1/reports/:id/approve"
	EndPointRejectReport    = "/api/v1/reports/:id/reject"

	EndPointNotifications    = "/api/v1/notifications"
	EndPointNotification     = "/api/v1/notifications/:id/open"
	EndPointUnreadCount      = "/api/v1/notifications/unread_count"
	EndPointNotificationsAll = "/api/v1/notifications/read_all"

	EndPointOrgs      = "/api/v1/organizations"
	EndPointMyOrg     = "/api/v1/organizations/mine"
	EndPointOrgMember = "/api/v1/organizations/:id/members"
	EndPointOrgExpel  = "/api/v1/organizations/:id/members/:userID"

	EndPointUsers     = "/api/v1/users"
	EndPointUser      = "/api/v1/users/:id"
	EndPointUserRoles = "/api/v1/users/:id/roles"

	EndPointMapObstacles = "/api/v1/map/obstacles"
)

// Server wires the handlers to their collaborators.
type Server struct {
	db   *sql.DB
	auth *auth.Service
}

// StartService builds the router and serves until the process dies.
func StartService(cfg *config.Config, dbc *sql.DB, authService *auth.Service) {
	log.Info("Starting the service...")

	s := &Server{db: dbc, auth: authService}

	router := gin.Default()
	if len(cfg.TrustedProxies) > 0 {
		router.SetTrustedProxies(cfg.TrustedProxies)
	}
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.registerRoutes(router)

	if err := router.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Errorf("Server stopped: %v", err)
	}
	log.Info("Finished the service. Should not ever being seen.")
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET(EndPointHelp, s.Help)
	router.POST(EndPointRegister, s.Register)
	router.POST(EndPointLogin, s.Login)
	router.GET(EndPointMapObstacles, s.MapObstacles)

	authed := router.Group("/", AuthMiddleware(s.auth))
	authed.GET(EndPointObstacleTypes, s.ObstacleTypes)

	authed.POST(EndPointReports, s.CreateReport)
	authed.GET(EndPointMyReports, s.MyReports)
	authed.GET(EndPointPendingReports, s.PendingReports)
	authed.GET(EndPointReviewedReports, s.ReviewedReports)
	authed.GET(EndPointOrgReports, s.OrgReports)
	authed.GET(EndPointReports, s.AllReports)
	authed.GET(EndPointReport, s.GetReport)
	authed.PUT(EndPointReport, s.UpdateReport)
	authed.POST(EndPointApproveReport, s.ApproveReport)
	authed.POST(EndPointRejectReport, s.RejectReport)
	authed.DELETE(EndPointReport, s.DeleteReport)

	authed.GET(EndPointNotifications, s.Notifications)
	authed.GET(EndPointUnreadCount, s.UnreadCount)
	authed.POST(EndPointNotification, s.OpenNotification)
	authed.POST(EndPointNotificationsAll, s.MarkAllRead)

	authed.GET(EndPointOrgs, s.Organizations)
	authed.POST(EndPointOrgs, s.CreateOrganization)
	authed.GET(EndPointMyOrg, s.MyOrganization)
	authed.POST(EndPointOrgMember, s.AddOrgMember)
	authed.DELETE(EndPointOrgExpel, s.RemoveOrgMember)

	authed.GET(EndPointUsers, s.Users)
	authed.POST(EndPointUsers, s.CreateUser)
	authed.PUT(EndPointUserRoles, s.SetUserRoles)
	authed.DELETE(EndPointUser, s.DeleteUser)
}
