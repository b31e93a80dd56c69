package recovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
)

// ClientStatus is the part of the client status that the report looks into.
type ClientStatus struct {
	// QuantumResistance is nil if the status does not mention it.
	QuantumResistance *bool

	// PeersCount is the raw peers count, like "2/3 Connected".
	PeersCount string
}

// statusQuery extracts the same fields as the text form from the JSON form of `status --json`.
const statusQuery = `{
	quantum: .quantumResistance,
	peers: (if .peers then "\(.peers.connected)/\(.peers.total) Connected" else null end)
}`

var statusCode *gojq.Code

func init() {
	q, err := gojq.Parse(statusQuery)
	if err != nil {
		panic(err)
	}
	statusCode, err = gojq.Compile(q)
	if err != nil {
		panic(err)
	}
}

// ParseStatusText reads "Quantum resistance:" and "Peers count:" lines of the text form, case-insensitively.
// Quantum resistance is true only if the value is "true", ignoring case.
func ParseStatusText(text string) ClientStatus {
	var s ClientStatus

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		if strings.HasPrefix(lower, "quantum resistance:") {
			v := strings.ToLower(strings.TrimSpace(line[len("quantum resistance:"):])) == "true"
			s.QuantumResistance = &v
		}
		if strings.HasPrefix(lower, "peers count:") {
			s.PeersCount = strings.TrimSpace(line[len("peers count:"):])
		}
	}

	return s
}

func parseStatusJSON(ctx context.Context, raw string) (ClientStatus, error) {
	var input any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return ClientStatus{}, err
	}

	var s ClientStatus

	iter := statusCode.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return s, nil
	}
	if err, ok := v.(error); ok {
		return ClientStatus{}, err
	}

	m, ok := v.(map[string]any)
	if !ok {
		return ClientStatus{}, fmt.Errorf("unexpected status query result: %v", v)
	}
	if q, ok := m["quantum"].(bool); ok {
		s.QuantumResistance = &q
	}
	if p, ok := m["peers"].(string); ok {
		s.PeersCount = p
	}

	return s, nil
}

// ParseClientStatus parses the text form, and fills the missing fields from the JSON form.
// The JSON form may be empty or broken.
func ParseClientStatus(ctx context.Context, text, jsonText string) ClientStatus {
	s := ParseStatusText(text)
	if s.QuantumResistance != nil && s.PeersCount != "" {
		return s
	}
	if strings.TrimSpace(jsonText) == "" {
		return s
	}

	j, err := parseStatusJSON(ctx, jsonText)
	if err != nil {
		return s
	}
	if s.QuantumResistance == nil {
		s.QuantumResistance = j.QuantumResistance
	}
	if s.PeersCount == "" {
		s.PeersCount = j.PeersCount
	}
	return s
}
