package api

import (
	"github.com/open-teleop/follower/pkg/orientation"
	"github.com/open-teleop/follower/pkg/scene"
)

// --- Data Structures for WebSocket Messages ---

// OrientationMessage is streamed to websocket clients for every applied update
type OrientationMessage struct {
	W         float64          `json:"w"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Z         float64          `json:"z"`
	Rotation  scene.Quaternion `json:"rotation"`
	Label     string           `json:"label"`
	Seq       uint64           `json:"seq"`
	Timestamp int64            `json:"timestamp"` // Unix milliseconds
}

// NewOrientationMessage converts an applied update
func NewOrientationMessage(u *orientation.Update) OrientationMessage {
	return OrientationMessage{
		W:         u.Movement.W,
		X:         u.Movement.X,
		Y:         u.Movement.Y,
		Z:         u.Movement.Z,
		Rotation:  scene.ToQuaternion(u.Rotation),
		Label:     u.Label,
		Seq:       u.Seq,
		Timestamp: u.Time.UnixMilli(),
	}
}
