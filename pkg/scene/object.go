// Package scene holds the object the follower rotates.
package scene

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is a point-in-time copy of an Object
type Snapshot struct {
	Name        string      `json:"name"`
	Rotation    Quaternion  `json:"rotation"`
	EulerDeg    EulerAngles `json:"euler_deg"`
	Label       string      `json:"label"`
	Updates     int64       `json:"updates"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Quaternion is the JSON shape of a rotation
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// EulerAngles in degrees, intrinsic Z-Y-X (yaw, pitch, roll)
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Object is a named rotatable object with a status label.
// Rotation is assigned wholesale, never interpolated.
type Object struct {
	name        string
	mu          sync.RWMutex
	rotation    mgl64.Quat
	label       string
	updates     int64
	lastUpdated time.Time
}

// NewObject creates an object at the identity orientation
func NewObject(name string) *Object {
	return &Object{
		name:     name,
		rotation: mgl64.QuatIdent(),
	}
}

// SetRotation snaps the object to q
func (o *Object) SetRotation(q mgl64.Quat) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.rotation = q
	o.updates++
	o.lastUpdated = time.Now()
}

// SetLabel replaces the status text
func (o *Object) SetLabel(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.label = text
}

// Rotation returns the current orientation
func (o *Object) Rotation() mgl64.Quat {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rotation
}

// Label returns the current status text
func (o *Object) Label() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.label
}

// Snapshot returns a copy of the object's state
func (o *Object) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return Snapshot{
		Name:        o.name,
		Rotation:    ToQuaternion(o.rotation),
		EulerDeg:    ToEuler(o.rotation),
		Label:       o.label,
		Updates:     o.updates,
		LastUpdated: o.lastUpdated,
	}
}

// ToQuaternion converts a mathgl quaternion to its JSON shape
func ToQuaternion(q mgl64.Quat) Quaternion {
	return Quaternion{X: q.X(), Y: q.Y(), Z: q.Z(), W: q.W}
}

// ToEuler converts q to Z-Y-X Euler angles in degrees.
// Non-unit quaternions are normalized first; the zero quaternion maps to zero angles.
func ToEuler(q mgl64.Quat) EulerAngles {
	if q.Len() == 0 {
		return EulerAngles{}
	}
	q = q.Normalize()

	// ZYX matrix order, so angles come back as yaw, pitch, roll
	m := q.Mat4()
	pitch := math.Asin(mgl64.Clamp(-m.At(2, 0), -1, 1))
	roll := math.Atan2(m.At(2, 1), m.At(2, 2))
	yaw := math.Atan2(m.At(1, 0), m.At(0, 0))

	return EulerAngles{
		Roll:  mgl64.RadToDeg(roll),
		Pitch: mgl64.RadToDeg(pitch),
		Yaw:   mgl64.RadToDeg(yaw),
	}
}
