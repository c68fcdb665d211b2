package calibration

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Method selects how the correction is derived
type Method string

const (
	// MaxMin scales each axis independently from its extremes
	MaxMin Method = "mm"
	// EllipsoidFit corrects offset, scale and axis misalignment
	EllipsoidFit Method = "e"
)

// Sensor selects the target magnitude of calibrated readings
type Sensor string

const (
	Accelerometer Sensor = "a"
	Magnetometer  Sensor = "m"
)

// Default preprocessing parameters
const (
	DefaultZThreshold = 2.5
	DefaultDivisions  = 8
)

// Multiplier is the expected magnitude of a calibrated reading: 1 g for the
// accelerometer and the local field strength in µT for the magnetometer.
func (s Sensor) Multiplier() (float64, error) {
	switch s {
	case Accelerometer:
		return 1.0, nil
	case Magnetometer:
		return 57.0572, nil
	}
	return 0, fmt.Errorf("unknown sensor %q", string(s))
}

// Calibration maps a raw reading v to Gain·(v - Offset)
type Calibration struct {
	Method     Method
	Multiplier float64
	Offset     mgl64.Vec3
	Gain       mgl64.Mat3
}

// Apply corrects one raw reading
func (c Calibration) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return c.Gain.Mul3x1(v.Sub(c.Offset))
}

// ApplyAll corrects a set of readings
func (c Calibration) ApplyAll(samples []mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(samples))
	for i, v := range samples {
		out[i] = c.Apply(v)
	}
	return out
}

// Calibrate derives a calibration with the given method
func Calibrate(samples []mgl64.Vec3, method Method, multiplier float64) (Calibration, error) {
	if len(samples) == 0 {
		return Calibration{}, ErrNoSamples
	}
	switch method {
	case MaxMin:
		return calibrateMaxMin(samples, multiplier)
	case EllipsoidFit:
		return calibrateEllipsoid(samples, multiplier)
	}
	return Calibration{}, fmt.Errorf("unknown calibration method %q", string(method))
}

func calibrateMaxMin(samples []mgl64.Vec3, multiplier float64) (Calibration, error) {
	lo, hi := samples[0], samples[0]
	for _, v := range samples[1:] {
		for axis := 0; axis < 3; axis++ {
			lo[axis] = math.Min(lo[axis], v[axis])
			hi[axis] = math.Max(hi[axis], v[axis])
		}
	}
	var scale mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		span := hi[axis] - lo[axis]
		if span == 0 {
			return Calibration{}, fmt.Errorf("%w: no spread on axis %d", ErrDegenerate, axis)
		}
		scale[axis] = 2 * multiplier / span
	}
	return Calibration{
		Method:     MaxMin,
		Multiplier: multiplier,
		Offset:     lo.Add(hi).Mul(0.5),
		Gain:       mgl64.Diag3(scale),
	}, nil
}

func calibrateEllipsoid(samples []mgl64.Vec3, multiplier float64) (Calibration, error) {
	fit, err := FitEllipsoid(samples)
	if err != nil {
		return Calibration{}, err
	}
	w := fit.Coefficients
	if w[9] == 0 {
		return Calibration{}, fmt.Errorf("%w: zero constant term", ErrDegenerate)
	}

	// Quadric rewritten as vᵀRv + 2rᵀv = 1.
	quad := mat.NewDense(3, 3, []float64{
		w[0], w[3], w[4],
		w[3], w[1], w[5],
		w[4], w[5], w[2],
	})
	quad.Scale(-1/w[9], quad)
	lin := mat.NewVecDense(3, []float64{w[6], w[7], w[8]})
	lin.ScaleVec(-1/w[9], lin)

	var inv mat.Dense
	if err := inv.Inverse(quad); err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	var offset mat.VecDense
	offset.MulVec(&inv, lin)
	offset.ScaleVec(-1, &offset)

	p := 1 - 2*mat.Dot(&offset, lin) - mat.Inner(&offset, quad, &offset)
	if p == 0 {
		return Calibration{}, fmt.Errorf("%w: zero scale", ErrDegenerate)
	}

	// Shape matrix of the ellipsoid about its center.
	var shape mat.Dense
	shape.Scale(p, &inv)

	var k [3]float64
	for i := range k {
		d := shape.At(i, i)
		if d <= 0 {
			return Calibration{}, fmt.Errorf("%w: readings do not enclose a closed surface", ErrDegenerate)
		}
		k[i] = 1 / math.Sqrt(d)
	}

	// Normalized off-diagonal terms are the cross-axis coupling.
	psi := k[0] * shape.At(0, 1) * k[1] / 2
	theta := k[0] * shape.At(0, 2) * k[2] / 2
	phi := k[1] * shape.At(1, 2) * k[2] / 2
	coupling := mat.NewDense(3, 3, []float64{
		1, psi, theta,
		psi, 1, phi,
		theta, phi, 1,
	})
	var decouple mat.Dense
	if err := decouple.Inverse(coupling); err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	scale := mat.NewDense(3, 3, []float64{
		multiplier * k[0], 0, 0,
		0, multiplier * k[1], 0,
		0, 0, multiplier * k[2],
	})
	var gain mat.Dense
	gain.Mul(&decouple, scale)

	cal := Calibration{Method: EllipsoidFit, Multiplier: multiplier}
	for i := 0; i < 3; i++ {
		cal.Offset[i] = offset.AtVec(i)
		for j := 0; j < 3; j++ {
			cal.Gain.Set(i, j, gain.At(i, j))
		}
	}
	return cal, nil
}
