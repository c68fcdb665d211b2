// Package orientation turns orientation messages from the motion sensor
// bridge into rotations for the follower's target object.
//
// A message has the shape
//
//	<prefix>;<w> <x> <y> <z>,<rest>
//
// where the four numbers are the sensor quaternion. The bridge sends the
// Madgwick filter output, so in practice the prefix is "Mov: <t> <acc>" and
// the rest is the "<px> <py> <pz>" position estimate.
package orientation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrMalformed is wrapped by every parse failure
var ErrMalformed = errors.New("malformed orientation message")

const (
	fieldSeparator = ";"
	restSeparator  = ","
	tokenSeparator = " "
	componentCount = 4
)

// Sample is a sensor quaternion after the x and z components have been negated.
type Sample struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseSample extracts the quaternion from a message.
// The second and fourth numbers are negated on the way in.
func ParseSample(text string) (Sample, error) {
	body, _, err := splitMessage(text)
	if err != nil {
		return Sample{}, err
	}
	return parseQuaternion(body)
}

// splitMessage returns the quaternion field and whatever follows the first
// comma after it. The prefix before ';' is ignored here.
func splitMessage(text string) (body string, rest string, err error) {
	fields := strings.Split(text, fieldSeparator)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("%w: no '%s' in %q", ErrMalformed, fieldSeparator, text)
	}
	parts := strings.SplitN(fields[1], restSeparator, 2)
	body = parts[0]
	if len(parts) == 2 {
		rest = parts[1]
	}
	return body, rest, nil
}

func parseQuaternion(body string) (Sample, error) {
	tokens := strings.Split(strings.Trim(body, tokenSeparator), tokenSeparator)
	if len(tokens) != componentCount {
		return Sample{}, fmt.Errorf("%w: expected %d components, got %d in %q",
			ErrMalformed, componentCount, len(tokens), body)
	}

	var v [componentCount]float64
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: component %d: %v", ErrMalformed, i, err)
		}
		if !finite(f) {
			return Sample{}, fmt.Errorf("%w: component %d is %q", ErrMalformed, i, tok)
		}
		v[i] = f
	}

	return Sample{
		W: v[0],
		X: -v[1],
		Y: v[2],
		Z: -v[3],
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Rotation maps the sample from the sensor frame into the scene frame:
// (x, y, z, w) = (X, -Z, Y, W). The result is not normalized.
func (s Sample) Rotation() mgl64.Quat {
	return mgl64.Quat{
		W: s.W,
		V: mgl64.Vec3{s.X, -s.Z, s.Y},
	}
}

// Label renders the status text shown next to the object, one component per line.
func (s Sample) Label() string {
	return "w: " + formatComponent(s.W) +
		"\n x: " + formatComponent(s.X) +
		"\n y: " + formatComponent(s.Y) +
		"\n z:" + formatComponent(s.Z)
}

// formatComponent prints the shortest text that reads back as the same float32
func formatComponent(f float64) string {
	return strconv.FormatFloat(float64(float32(f)), 'g', -1, 32)
}
