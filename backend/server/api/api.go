package api

import (
	"time"

	"github.com/shopspring/decimal"

	"skysafe/backend/geom"
)

// Report statuses as persisted and served.
const (
	StatusDraft    = "Draft"
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// ReportArgs is the submit/save payload from the map client. Fields
// other than Action are optional at the wire level; how many of them
// must be present depends on the action (see backend/report).
type ReportArgs struct {
	Action       string           `json:"action" binding:"required,oneof=save submit"`
	Latitude     *float64         `json:"latitude"`
	Longitude    *float64         `json:"longitude"`
	Geometry     *geom.Descriptor `json:"geometry"`
	HeightFt     *int             `json:"height_ft"`
	ObstacleType string           `json:"obstacle_type"`
	Description  string           `json:"description"`
}

// Report is the stored report served back to clients. OwnerName is
// joined in for listings; coordinates carry the stored decimal
// precision.
type Report struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	OwnerName        string           `json:"owner_name,omitempty"`
	Latitude         *decimal.Decimal `json:"latitude,omitempty"`
	Longitude        *decimal.Decimal `json:"longitude,omitempty"`
	Geometry         *geom.Descriptor `json:"geometry,omitempty"`
	HeightFt         *int             `json:"height_ft,omitempty"`
	ObstacleType     string           `json:"obstacle_type,omitempty"`
	Description      string           `json:"description,omitempty"`
	RegistrarComment string           `json:"registrar_comment,omitempty"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        *time.Time       `json:"updated_at,omitempty"`
}

type ReportsResponse struct {
	Reports []Report `json:"reports"`
}

// ReviewArgs carries the registrar's optional comment on approve or
// reject.
type ReviewArgs struct {
	Comment string `json:"comment" binding:"max=1000"`
}

type ObstacleType struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type ObstacleTypesResponse struct {
	Types []ObstacleType `json:"types"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ReportID  string    `json:"report_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

// OpenNotificationResponse tells the client where to go next: the
// linked report when there is one, otherwise back to the list.
type OpenNotificationResponse struct {
	Notification Notification `json:"notification"`
	Redirect     string       `json:"redirect"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

type RegisterArgs struct {
	Username  string `json:"username" binding:"required,min=3,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// CreateUserArgs is admin provisioning: like registration, plus an
// explicit role set.
type CreateUserArgs struct {
	RegisterArgs
	Roles []string `json:"roles" binding:"required,min=1"`
}

// SetRolesArgs replaces a user's role set wholesale.
type SetRolesArgs struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

type LoginArgs struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type OrganizationsResponse struct {
	Organizations []Organization `json:"organizations"`
}

type CreateOrganizationArgs struct {
	Name string `json:"name" binding:"required,max=200"`
	Code string `json:"code" binding:"required,max=50"`
}

type AddMemberArgs struct {
	UserID string `json:"user_id" binding:"required"`
}

type OrganizationDetail struct {
	Organization Organization `json:"organization"`
	Members      []User       `json:"members"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform failure envelope. Fields carries
// per-field validation messages; Redirect names the safe listing the
// client should fall back to on forbidden or not-found outcomes.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}
