package events

import "testing"

func TestChangeEventMatches(t *testing.T) {
	tests := []struct {
		name   string
		keys   map[string]string
		filter map[string]string
		want   bool
	}{
		{"nil filter matches keyed event", map[string]string{"patient_id": "7"}, nil, true},
		{"broadcast event matches any filter", nil, map[string]string{"patient_id": "7"}, true},
		{"matching filter", map[string]string{"patient_id": "7"}, map[string]string{"patient_id": "7"}, true},
		{"mismatched filter", map[string]string{"patient_id": "7"}, map[string]string{"patient_id": "8"}, false},
		{"filter key missing on event", map[string]string{"doctor_id": "2"}, map[string]string{"patient_id": "7"}, false},
		{"multi-key filter all match", map[string]string{"patient_id": "7", "doctor_id": "2"}, map[string]string{"patient_id": "7", "doctor_id": "2"}, true},
		{"multi-key filter partial match", map[string]string{"patient_id": "7", "doctor_id": "2"}, map[string]string{"patient_id": "7", "doctor_id": "3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := ChangeEvent{Collection: CollectionAppointments, Keys: tt.keys}
			if got := evt.Matches(tt.filter); got != tt.want {
				t.Errorf("Matches(%v) with keys %v = %v, want %v", tt.filter, tt.keys, got, tt.want)
			}
		})
	}
}
