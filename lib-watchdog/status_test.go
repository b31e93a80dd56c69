package watchdog_test

import (
	"testing"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		String string
		Status api.Status
	}{
		{"healthy", api.StatusHealthy},
		{"degraded", api.StatusDegraded},
		{"failed", api.StatusFailed},
		{"unknown", api.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.String, func(t *testing.T) {
			if s := tt.Status.String(); s != tt.String {
				t.Errorf("expected %q but got %q", tt.String, s)
			}

			var s api.Status
			if err := s.UnmarshalText([]byte(tt.String)); err != nil {
				t.Fatalf("failed to unmarshal: %s", err)
			}
			if s != tt.Status {
				t.Errorf("expected %s but got %s", tt.Status, s)
			}
		})
	}

	if s := api.ParseStatus("something-wrong"); s != api.StatusUnknown {
		t.Errorf("unsupported string should be unknown but got %s", s)
	}
}
