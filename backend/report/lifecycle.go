// Package report implements the obstacle-report lifecycle: the
// Draft -> Pending -> Approved/Rejected state machine and the field
// validation attached to each transition.
package report

import (
	"fmt"
	"strings"

	"skysafe/backend/server/api"
)

type Status string

const (
	StatusDraft    Status = api.StatusDraft
	StatusPending  Status = api.StatusPending
	StatusApproved Status = api.StatusApproved
	StatusRejected Status = api.StatusRejected
)

// Action distinguishes a partial save from a full submission.
type Action string

const (
	ActionSave   Action = "save"
	ActionSubmit Action = "submit"
)

const (
	DescriptionMinLen = 5
	DescriptionMaxLen = 1000
	HeightMinFt       = 0
	HeightMaxFt       = 2000
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses accept no further edits.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Editable reports a status the owner may still change.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// Reviewed statuses are the approve/reject outcomes.
func (s Status) Reviewed() bool {
	return s.Terminal()
}

// StatusAfter returns the status a report takes when stored with the
// given action.
func StatusAfter(a Action) Status {
	if a == ActionSubmit {
		return StatusPending
	}
	return StatusDraft
}

// ValidationErrors maps field name to a human-readable problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the submitted fields against the rules for the
// given action. Saving a draft waives the required-field checks so
// partial data is fine; submitting enforces the full set. Format and
// range checks always apply to fields that are present.
func Validate(a *api.ReportArgs, action Action) ValidationErrors {
	errs := ValidationErrors{}

	desc := strings.TrimSpace(a.Description)
	if len(desc) > DescriptionMaxLen {
		errs["description"] = fmt.Sprintf("must be at most %d characters", DescriptionMaxLen)
	}
	if a.HeightFt != nil && (*a.HeightFt < HeightMinFt || *a.HeightFt > HeightMaxFt) {
		errs["height_ft"] = fmt.Sprintf("must be between %d and %d feet", HeightMinFt, HeightMaxFt)
	}
	if a.Latitude != nil && (*a.Latitude < -90 || *a.Latitude > 90) {
		errs["latitude"] = "must be between -90 and 90"
	}
	if a.Longitude != nil && (*a.Longitude < -180 || *a.Longitude > 180) {
		errs["longitude"] = "must be between -180 and 180"
	}
	if (a.Latitude == nil) != (a.Longitude == nil) {
		errs["coordinates"] = "latitude and longitude must be given together"
	}

	if action != ActionSubmit {
		if len(errs) == 0 {
			return nil
		}
		return errs
	}

	if len(desc) < DescriptionMinLen {
		errs["description"] = fmt.Sprintf("must be at least %d characters", DescriptionMinLen)
	}
	if a.ObstacleType == "" {
		errs["obstacle_type"] = "an obstacle type is required"
	}
	if a.Latitude == nil || a.Longitude == nil {
		errs["coordinates"] = "a position is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CanEdit decides whether the given editor may mutate a stored
// report. Only the owner may edit, and only while the report is a
// draft.
func CanEdit(r *api.Report, editorID string) error {
	if r.OwnerID != editorID {
		return fmt.Errorf("report %s is owned by another user", r.ID)
	}
	if !Status(r.Status).Editable() {
		return fmt.Errorf("report %s has status %s and can no longer be edited", r.ID, r.Status)
	}
	return nil
}
