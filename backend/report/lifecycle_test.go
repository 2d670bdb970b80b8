package report

import (
	"testing"

	"skysafe/backend/server/api"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		args       api.ReportArgs
		action     Action
		wantFields []string
	}{
		{
			name:   "empty draft save is fine",
			args:   api.ReportArgs{Action: "save"},
			action: ActionSave,
		},
		{
			name: "full submit is fine",
			args: api.ReportArgs{
				Action:       "submit",
				Latitude:     f64(59.3293),
				Longitude:    f64(18.0686),
				HeightFt:     intp(250),
				ObstacleType: "CRANE",
				Description:  "Tower crane at the harbour construction site",
			},
			action: ActionSubmit,
		},
		{
			name:       "submit without description",
			args:       api.ReportArgs{Action: "submit", Latitude: f64(1), Longitude: f64(1), ObstacleType: "MAST"},
			action:     ActionSubmit,
			wantFields: []string{"description"},
		},
		{
			name:       "submit without obstacle type",
			args:       api.ReportArgs{Action: "submit", Latitude: f64(1), Longitude: f64(1), Description: "A very tall mast"},
			action:     ActionSubmit,
			wantFields: []string{"obstacle_type"},
		},
		{
			name:       "submit without coordinates",
			args:       api.ReportArgs{Action: "submit", ObstacleType: "MAST", Description: "A very tall mast"},
			action:     ActionSubmit,
			wantFields: []string{"coordinates"},
		},
		{
			name:       "submit with everything missing",
			args:       api.ReportArgs{Action: "submit"},
			action:     ActionSubmit,
			wantFields: []string{"description", "obstacle_type", "coordinates"},
		},
		{
			name:       "height out of range fails even on save",
			args:       api.ReportArgs{Action: "save", HeightFt: intp(9000)},
			action:     ActionSave,
			wantFields: []string{"height_ft"},
		},
		{
			name:       "latitude out of range fails even on save",
			args:       api.ReportArgs{Action: "save", Latitude: f64(100), Longitude: f64(10)},
			action:     ActionSave,
			wantFields: []string{"latitude"},
		},
		{
			name:       "lat without lon",
			args:       api.ReportArgs{Action: "save", Latitude: f64(10)},
			action:     ActionSave,
			wantFields: []string{"coordinates"},
		},
		{
			name:       "short description on submit",
			args:       api.ReportArgs{Action: "submit", Latitude: f64(1), Longitude: f64(1), ObstacleType: "MAST", Description: "abc"},
			action:     ActionSubmit,
			wantFields: []string{"description"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.args, tt.action)
			if len(tt.wantFields) == 0 {
				if errs != nil {
					t.Fatalf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("Validate() = %v, want errors on %v", errs, tt.wantFields)
			}
			for _, field := range tt.wantFields {
				if _, ok := errs[field]; !ok {
					t.Errorf("Validate() missing error for field %q: %v", field, errs)
				}
			}
		})
	}
}

func TestStatusAfter(t *testing.T) {
	if got := StatusAfter(ActionSave); got != StatusDraft {
		t.Errorf("StatusAfter(save) = %v, want Draft", got)
	}
	if got := StatusAfter(ActionSubmit); got != StatusPending {
		t.Errorf("StatusAfter(submit) = %v, want Pending", got)
	}
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
		editable bool
	}{
		{StatusDraft, false, true},
		{StatusPending, false, false},
		{StatusApproved, true, false},
		{StatusRejected, true, false},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.Editable(); got != tt.editable {
			t.Errorf("%s.Editable() = %v, want %v", tt.status, got, tt.editable)
		}
	}
	if Status("Bogus").Valid() {
		t.Error("Valid() accepted a bogus status")
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name     string
		report   api.Report
		editorID string
		wantErr  bool
	}{
		{
			name:     "owner edits own draft",
			report:   api.Report{ID: "r1", OwnerID: "u1", Status: api.StatusDraft},
			editorID: "u1",
		},
		{
			name:     "another user may not edit a draft",
			report:   api.Report{ID: "r1", OwnerID: "u1", Status: api.StatusDraft},
			editorID: "u2",
			wantErr:  true,
		},
		{
			name:     "pending reports are frozen for the owner",
			report:   api.Report{ID: "r1", OwnerID: "u1", Status: api.StatusPending},
			editorID: "u1",
			wantErr:  true,
		},
		{
			name:     "approved reports are terminal",
			report:   api.Report{ID: "r1", OwnerID: "u1", Status: api.StatusApproved},
			editorID: "u1",
			wantErr:  true,
		},
		{
			name:     "rejected reports are terminal",
			report:   api.Report{ID: "r1", OwnerID: "u1", Status: api.StatusRejected},
			editorID: "u1",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanEdit(&tt.report, tt.editorID)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanEdit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
