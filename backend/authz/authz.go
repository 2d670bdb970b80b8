// Package authz is the role-gated operation dispatch. Every guarded
// operation is declared once in the capability table below; handlers
// never test role literals themselves.
package authz

import (
	"errors"
	"fmt"
)

type Role string

const (
	RolePilot        Role = "Pilot"
	RoleEntrepreneur Role = "Entrepreneur"
	RoleRegistrar    Role = "Registrar"
	RoleAdmin        Role = "Admin"
	RoleOrgAdmin     Role = "OrgAdmin"
	RoleDefaultUser  Role = "DefaultUser"
)

// Roles lists every known role, for validation of admin-assigned sets.
var Roles = []Role{
	RolePilot, RoleEntrepreneur, RoleRegistrar, RoleAdmin, RoleOrgAdmin, RoleDefaultUser,
}

func ValidRole(r Role) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type Operation string

const (
	OpReportCreate       Operation = "report.create"
	OpReportEdit         Operation = "report.edit"
	OpReportView         Operation = "report.view"
	OpReportListMine     Operation = "report.list.mine"
	OpReportListPending  Operation = "report.list.pending"
	OpReportListReviewed Operation = "report.list.reviewed"
	OpReportListOrg      Operation = "report.list.org"
	OpReportListAll      Operation = "report.list.all"
	OpReportReview       Operation = "report.review"
	OpReportDelete       Operation = "report.delete"
	OpOrgManage          Operation = "org.manage"
	OpOrgAdminister      Operation = "org.administer"
	OpUserAdminister     Operation = "user.administer"
)

// capabilities is the single role-to-operation table. An operation
// missing from the table is denied for everyone.
var capabilities = map[Operation][]Role{
	OpReportCreate:       {RolePilot, RoleEntrepreneur, RoleAdmin},
	OpReportEdit:         {RolePilot, RoleEntrepreneur, RoleAdmin},
	OpReportView:         {RolePilot, RoleEntrepreneur, RoleRegistrar, RoleAdmin, RoleOrgAdmin},
	OpReportListMine:     {RolePilot, RoleEntrepreneur, RoleAdmin},
	OpReportListPending:  {RoleRegistrar, RoleAdmin},
	OpReportListReviewed: {RoleRegistrar, RoleAdmin},
	OpReportListOrg:      {RoleOrgAdmin, RoleAdmin},
	OpReportListAll:      {RoleAdmin},
	OpReportReview:       {RoleRegistrar, RoleAdmin},
	OpReportDelete:       {RoleAdmin},
	OpOrgManage:          {RoleOrgAdmin, RoleAdmin},
	OpOrgAdminister:      {RoleAdmin},
	OpUserAdminister:     {RoleAdmin},
}

// reviewRoles may view any report regardless of ownership. Editing is
// never covered by the bypass.
var reviewRoles = []Role{RoleRegistrar, RoleAdmin}

var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated caller as carried through a request.
type Principal struct {
	ID       string
	Username string
	Roles    []Role
}

func (p Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

func (p Principal) hasAny(roles []Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// Authorize checks the principal's role set against the capability
// table. Fails closed: unknown operations are denied.
func Authorize(p Principal, op Operation) error {
	allowed, ok := capabilities[op]
	if !ok || !p.hasAny(allowed) {
		return fmt.Errorf("%w: %s may not %s", ErrForbidden, p.Username, op)
	}
	return nil
}

// AuthorizeView layers ownership on top of the role check for viewing
// a single report. Registrars and admins may view any report; other
// roles only their own.
func AuthorizeView(p Principal, ownerID string) error {
	if err := Authorize(p, OpReportView); err != nil {
		return err
	}
	if p.ID == ownerID || p.hasAny(reviewRoles) {
		return nil
	}
	return fmt.Errorf("%w: %s may not view a report owned by another user", ErrForbidden, p.Username)
}

// AuthorizeEdit layers ownership on top of the role check for
// mutating a report. There is no reviewer bypass here: editing stays
// with the drafting owner.
func AuthorizeEdit(p Principal, ownerID string) error {
	if err := Authorize(p, OpReportEdit); err != nil {
		return err
	}
	if p.ID != ownerID {
		return fmt.Errorf("%w: %s may not edit a report owned by another user", ErrForbidden, p.Username)
	}
	return nil
}

// ParseRoles converts raw strings into the Role set, rejecting
// unknown names.
func ParseRoles(raw []string) ([]Role, error) {
	roles := make([]Role, 0, len(raw))
	for _, s := range raw {
		r := Role(s)
		if !ValidRole(r) {
			return nil, fmt.Errorf("unknown role %q", s)
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// RoleStrings is the inverse of ParseRoles for responses.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
