package watchdog_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

func TestIncidentUpdate_Apply(t *testing.T) {
	orig := api.FailureIncident{
		ID:                   3,
		Timestamp:            time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		FailureType:          api.FailureTypeAutoDetected,
		Severity:             api.SeverityCritical,
		AutoRestartAttempted: true,
	}

	if !orig.Pending() {
		t.Fatalf("new incident should be pending")
	}

	if !(api.IncidentUpdate{}).IsEmpty() {
		t.Errorf("zero update should be empty")
	}

	updated := api.IncidentUpdate{
		RestartSuccessful: api.Ptr(true),
		Notes:             api.Ptr("ok"),
	}.Apply(orig)

	want := orig
	want.RestartSuccessful = api.Ptr(true)
	want.Notes = api.Ptr("ok")

	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("unexpected incident:\n%s", diff)
	}
	if updated.Pending() {
		t.Errorf("updated incident should not be pending")
	}
	if !orig.Pending() {
		t.Errorf("Apply should not modify the original incident")
	}
}
