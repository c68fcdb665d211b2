package zeromq

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
	fb "github.com/open-teleop/follower/pkg/flatbuffers/follower/orientation"
	"github.com/open-teleop/follower/pkg/orientation"
)

// Smallest finished buffer: root offset plus an empty vtable and table
const minOrientationSize = 12

// EncodeOrientation serializes an applied update as an Orientation flatbuffer
func EncodeOrientation(u *orientation.Update) []byte {
	builder := flatbuffers.NewBuilder(256)
	label := builder.CreateString(u.Label)

	fb.OrientationStart(builder)
	fb.OrientationAddW(builder, u.Movement.W)
	fb.OrientationAddX(builder, u.Movement.X)
	fb.OrientationAddY(builder, u.Movement.Y)
	fb.OrientationAddZ(builder, u.Movement.Z)
	fb.OrientationAddRotX(builder, u.Rotation.X())
	fb.OrientationAddRotY(builder, u.Rotation.Y())
	fb.OrientationAddRotZ(builder, u.Rotation.Z())
	fb.OrientationAddRotW(builder, u.Rotation.W)
	if !u.Time.IsZero() {
		fb.OrientationAddTimestampNs(builder, u.Time.UnixNano())
	}
	fb.OrientationAddSequence(builder, u.Seq)
	fb.OrientationAddLabel(builder, label)
	fb.FinishOrientationBuffer(builder, fb.OrientationEnd(builder))

	return builder.FinishedBytes()
}

// DecodeOrientation reads an Orientation flatbuffer.
// Flatbuffers are not verified on access, so out-of-range offsets are
// turned into ErrInvalidMessage instead of a panic.
func DecodeOrientation(data []byte) (msg *fb.Orientation, err error) {
	if len(data) < minOrientationSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMessage, len(data))
	}

	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("%w: %v", ErrInvalidMessage, r)
		}
	}()

	msg = fb.GetRootAsOrientation(data, 0)
	_ = msg.Sequence()
	_ = msg.Label()
	return msg, nil
}
