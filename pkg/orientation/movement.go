package orientation

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Movement is a full Madgwick line: the quaternion plus the optional timing
// and position fields around it.
type Movement struct {
	Sample

	HasTiming    bool    `json:"has_timing"`
	Time         float64 `json:"time,omitempty"`
	Acceleration float64 `json:"acceleration,omitempty"`

	HasPosition bool       `json:"has_position"`
	Position    mgl64.Vec3 `json:"position,omitempty"`
}

// ParseMovement parses the quaternion exactly like ParseSample and then reads
// the prefix ("Mov: t acc") and rest ("px py pz") when they are well formed.
// Only the quaternion can make it fail.
func ParseMovement(text string) (Movement, error) {
	body, rest, err := splitMessage(text)
	if err != nil {
		return Movement{}, err
	}
	sample, err := parseQuaternion(body)
	if err != nil {
		return Movement{}, err
	}

	m := Movement{Sample: sample}
	prefix := text[:strings.Index(text, fieldSeparator)]
	if vals, ok := parseFloats(strings.Fields(prefix), 2); ok {
		m.HasTiming = true
		m.Time, m.Acceleration = vals[0], vals[1]
	}
	if vals, ok := parseFloats(strings.Fields(strings.TrimRight(rest, "# \r\n")), 3); ok {
		m.HasPosition = true
		m.Position = mgl64.Vec3{vals[0], vals[1], vals[2]}
	}
	return m, nil
}

// parseFloats reads the last n fields as numbers. A leading label such as
// "Mov:" is skipped.
func parseFloats(fields []string, n int) ([]float64, bool) {
	if len(fields) < n {
		return nil, false
	}
	fields = fields[len(fields)-n:]
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, ","), 64)
		if err != nil || !finite(v) {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
