package server

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jknair0/beforeeach"

	"skysafe/backend/auth"
	"skysafe/backend/authz"
	"skysafe/backend/server/api"
)

var (
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
	srv    *Server
)

func setUp() {
	gin.SetMode(gin.TestMode)
	mockDB, mock, _ = sqlmock.New()
	srv = &Server{db: mockDB, auth: auth.NewService(mockDB, "test-secret")}
}

func tearDown() {
	mockDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var (
	pilot = authz.Principal{
		ID: "u-pilot", Username: "pilot", Roles: []authz.Role{authz.RolePilot},
	}
	otherPilot = authz.Principal{
		ID: "u-other", Username: "other", Roles: []authz.Role{authz.RolePilot},
	}
	registrar = authz.Principal{
		ID: "u-reg", Username: "registrar", Roles: []authz.Role{authz.RoleRegistrar},
	}
	admin = authz.Principal{
		ID: "u-admin", Username: "admin", Roles: []authz.Role{authz.RoleAdmin},
	}
)

// performAs runs one handler as the given principal and returns the
// recorded response. Routes are registered fresh per call so each
// test exercises exactly the handler under test.
func performAs(p authz.Principal, method, path string, body []byte,
	register func(*gin.RouterGroup)) *httptest.ResponseRecorder {

	router := gin.New()
	group := router.Group("/", func(c *gin.Context) {
		c.Set(principalKey, p)
	})
	register(group)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var reportCols = []string{
	"id", "owner_id", "username", "latitude", "longitude", "geometry",
	"height_ft", "obstacle_type", "description", "registrar_comment", "status",
	"created_at", "updated_at",
}

// pendingReportRow returns a row for a pending report owned by the
// sample pilot.
func pendingReportRow(status string) *sqlmock.Rows {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(reportCols).
		AddRow("r-1", pilot.ID, pilot.Username, "59.329323300", "18.068580800", nil,
			300, "CRANE", "Tower crane by the waterfront", "", status, created, nil)
}

func TestAuthMiddleware(t *testing.T) {
	it(func() {
		router := gin.New()
		router.GET("/probe", AuthMiddleware(srv.auth), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user": principal(c).Username})
		})

		// No Authorization header.
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("no header: status = %d, want 401", w.Code)
		}

		// Malformed header.
		req := httptest.NewRequest("GET", "/probe", nil)
		req.Header.Set("Authorization", "Basic abc")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("malformed header: status = %d, want 401", w.Code)
		}

		// Garbage token.
		req = httptest.NewRequest("GET", "/probe", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("bad token: status = %d, want 401", w.Code)
		}

		// Valid token passes through with the principal attached.
		token, err := srv.auth.IssueToken(&api.User{
			ID: pilot.ID, Username: pilot.Username, Roles: authz.RoleStrings(pilot.Roles),
		})
		if err != nil {
			t.Fatalf("IssueToken() error: %v", err)
		}
		req = httptest.NewRequest("GET", "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("valid token: status = %d, want 200", w.Code)
		}
	})
}
