package logconv_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nbwatchdog/nbwatchdog/internal/logconv"
)

func TestToLTSV(t *testing.T) {
	var w bytes.Buffer

	err := logconv.ToLTSV(&w, history(t))
	if err != nil {
		t.Fatalf("failed to convert: %s", err)
	}

	want := strings.Join([]string{
		"time:2024-01-02T15:04:05Z\tstatus:healthy\tprocess_running:true\tinternet_reachable:true\tdns_working:true\tservices_up:2/2\tcheck_duration_ms:120\tpid:1234\tservices:{\"203.0.113.5\":true,\"svc-a\":true}",
		"time:2024-01-02T15:05:05Z\tstatus:degraded\tprocess_running:true\tinternet_reachable:true\tdns_working:true\tservices_up:1/2\tcheck_duration_ms:0\tservices:{\"203.0.113.5\":false,\"svc-a\":true}",
		"time:2024-01-02T15:06:05Z\tstatus:failed\tprocess_running:false\tinternet_reachable:true\tdns_working:true\tservices_up:0/1\tcheck_duration_ms:0\tservices:{\"svc-a\":false}",
		"",
	}, "\n")

	if diff := cmp.Diff(want, w.String()); diff != "" {
		t.Errorf("unexpected output:\n%s", diff)
	}
}
