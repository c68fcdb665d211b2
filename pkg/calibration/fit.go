package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when readings do not pin down a unique surface
var ErrDegenerate = errors.New("degenerate readings")

// minFitSamples is the number of unknowns in the quadric fit
const minFitSamples = 9

// Ellipsoid is a least-squares quadric fit
//
//	c0 x² + c1 y² + c2 z² + 2 c3 xy + 2 c4 xz + 2 c5 yz + 2 c6 x + 2 c7 y + 2 c8 z + c9 = 0
//
// normalized so that c0 + c1 + c2 = -3.
type Ellipsoid struct {
	Coefficients [10]float64
	Center       mgl64.Vec3
	// Radii follow the eigenvalue order of the quadratic part, ascending.
	// A negative radius marks an axis along which the surface is not closed.
	Radii mgl64.Vec3
}

// FitEllipsoid fits an arbitrarily oriented ellipsoid to samples
func FitEllipsoid(samples []mgl64.Vec3) (Ellipsoid, error) {
	n := len(samples)
	if n < minFitSamples {
		return Ellipsoid{}, fmt.Errorf("%w: %d samples, need at least %d", ErrDegenerate, n, minFitSamples)
	}

	design := mat.NewDense(9, n, nil)
	d2 := mat.NewVecDense(n, nil)
	for j, p := range samples {
		x, y, z := p[0], p[1], p[2]
		design.Set(0, j, x*x+y*y-2*z*z)
		design.Set(1, j, x*x+z*z-2*y*y)
		design.Set(2, j, 2*x*y)
		design.Set(3, j, 2*x*z)
		design.Set(4, j, 2*y*z)
		design.Set(5, j, 2*x)
		design.Set(6, j, 2*y)
		design.Set(7, j, 2*z)
		design.Set(8, j, 1)
		d2.SetVec(j, x*x+y*y+z*z)
	}

	var normal mat.Dense
	normal.Mul(design, design.T())
	var rhs mat.VecDense
	rhs.MulVec(design, d2)
	var u mat.VecDense
	if err := u.SolveVec(&normal, &rhs); err != nil {
		return Ellipsoid{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	var e Ellipsoid
	c := &e.Coefficients
	c[0] = u.AtVec(0) + u.AtVec(1) - 1
	c[1] = u.AtVec(0) - 2*u.AtVec(1) - 1
	c[2] = u.AtVec(1) - 2*u.AtVec(0) - 1
	for i := 3; i < 10; i++ {
		c[i] = u.AtVec(i - 1)
	}

	quad := mat.NewDense(3, 3, []float64{
		c[0], c[3], c[4],
		c[3], c[1], c[5],
		c[4], c[5], c[2],
	})
	lin := mat.NewVecDense(3, []float64{c[6], c[7], c[8]})

	var neg mat.Dense
	neg.Scale(-1, quad)
	var center mat.VecDense
	if err := center.SolveVec(&neg, lin); err != nil {
		return Ellipsoid{}, fmt.Errorf("%w: no unique center: %v", ErrDegenerate, err)
	}
	for i := 0; i < 3; i++ {
		e.Center[i] = center.AtVec(i)
	}

	// Constant term once the quadric is translated to its center.
	k := mat.Inner(&center, quad, &center) + 2*mat.Dot(lin, &center) + c[9]
	if k == 0 {
		return Ellipsoid{}, fmt.Errorf("%w: quadric passes through its center", ErrDegenerate)
	}

	sym := mat.NewSymDense(3, []float64{
		c[0] / -k, c[3] / -k, c[4] / -k,
		c[3] / -k, c[1] / -k, c[5] / -k,
		c[4] / -k, c[5] / -k, c[2] / -k,
	})
	var eig mat.EigenSym
	if !eig.Factorize(sym, false) {
		return Ellipsoid{}, fmt.Errorf("%w: eigendecomposition failed", ErrDegenerate)
	}
	for i, ev := range eig.Values(nil) {
		if ev == 0 {
			return Ellipsoid{}, fmt.Errorf("%w: flat axis", ErrDegenerate)
		}
		r := math.Sqrt(1 / math.Abs(ev))
		if ev < 0 {
			r = -r
		}
		e.Radii[i] = r
	}
	return e, nil
}

// SOD is the sum of deviations of a calibrated set from a sphere of radius
// multiplier. It is zero for a perfect calibration.
func SOD(calibrated []mgl64.Vec3, multiplier float64) (float64, error) {
	fit, err := FitEllipsoid(calibrated)
	if err != nil {
		return 0, err
	}
	c := fit.Coefficients
	sod := math.Abs(c[0]) - 1 + math.Abs(c[1]) - 1 + math.Abs(c[2]) - 1
	for _, v := range c[3:9] {
		sod += math.Abs(v)
	}
	sod += math.Sqrt(math.Abs(c[9])) - multiplier
	return sod, nil
}
