// Package calibration derives offset and gain corrections for raw
// accelerometer and magnetometer readings recorded from the sensor board.
package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"
)

// Header is the column layout of a raw recording
var Header = []string{"x", "y", "z"}

// ErrNoSamples is returned when a recording holds no readings
var ErrNoSamples = errors.New("no samples")

// ReadCSV reads raw x,y,z readings. The header row is required.
func ReadCSV(r io.Reader) ([]mgl64.Vec3, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSamples
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Header {
		if strings.TrimSpace(head[i]) != name {
			return nil, fmt.Errorf("unexpected header column %d: %q, want %q", i, head[i], name)
		}
	}

	var samples []mgl64.Vec3
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var v mgl64.Vec3
		for i, field := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("line %d: bad %s value %q", line, Header[i], field)
			}
			v[i] = f
		}
		samples = append(samples, v)
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return samples, nil
}

// RemoveOutliers drops every reading with a z-score of at least zThresh on
// any axis. An axis with no spread never marks a reading as an outlier.
func RemoveOutliers(samples []mgl64.Vec3, zThresh float64) (kept []mgl64.Vec3, removed int) {
	if len(samples) == 0 {
		return nil, 0
	}
	var mean, std [3]float64
	col := make([]float64, len(samples))
	for axis := 0; axis < 3; axis++ {
		for i, v := range samples {
			col[i] = v[axis]
		}
		mean[axis], std[axis] = stat.PopMeanStdDev(col, nil)
	}

	kept = make([]mgl64.Vec3, 0, len(samples))
	for _, v := range samples {
		outlier := false
		for axis := 0; axis < 3; axis++ {
			if std[axis] == 0 {
				continue
			}
			if math.Abs(v[axis]-mean[axis])/std[axis] >= zThresh {
				outlier = true
				break
			}
		}
		if outlier {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	return kept, removed
}

// Regularize evens out the angular density of a recording. Readings are
// binned by polar and azimuth angle around the bounding box center, divs
// bins per angle, and each occupied bin is replaced by its mean.
func Regularize(samples []mgl64.Vec3, divs int) []mgl64.Vec3 {
	if len(samples) == 0 || divs <= 0 {
		return nil
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples[1:] {
		for axis := 0; axis < 3; axis++ {
			lo[axis] = math.Min(lo[axis], v[axis])
			hi[axis] = math.Max(hi[axis], v[axis])
		}
	}
	center := lo.Add(hi).Mul(0.5)

	sums := make([]mgl64.Vec3, divs*divs)
	counts := make([]int, divs*divs)
	for _, v := range samples {
		d := v.Sub(center)
		r := d.Len()
		theta := 0.0
		if r > 0 {
			theta = math.Acos(mgl64.Clamp(d[2]/r, -1, 1))
		}
		phi := math.Atan2(d[1], d[0]) + math.Pi
		i := bin(theta, math.Pi, divs)
		j := bin(phi, 2*math.Pi, divs)
		sums[i*divs+j] = sums[i*divs+j].Add(v)
		counts[i*divs+j]++
	}

	out := make([]mgl64.Vec3, 0, divs*divs)
	for k, n := range counts {
		if n > 0 {
			out = append(out, sums[k].Mul(1/float64(n)))
		}
	}
	return out
}

func bin(angle, span float64, divs int) int {
	i := int(angle / span * float64(divs))
	if i >= divs {
		i = divs - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Preprocessing selects the filters run before calibrating
type Preprocessing string

const (
	NoPreprocessing Preprocessing = "-"
	Outliers        Preprocessing = "o"
	Regular         Preprocessing = "r"
	OutliersRegular Preprocessing = "or"
)

// Preprocess runs the selected filters. Outlier removal runs before
// regularization when both are selected.
func Preprocess(samples []mgl64.Vec3, p Preprocessing) (out []mgl64.Vec3, removed int, err error) {
	switch p {
	case NoPreprocessing:
		return samples, 0, nil
	case Outliers:
		out, removed = RemoveOutliers(samples, DefaultZThreshold)
		return out, removed, nil
	case Regular:
		return Regularize(samples, DefaultDivisions), 0, nil
	case OutliersRegular:
		out, removed = RemoveOutliers(samples, DefaultZThreshold)
		return Regularize(out, DefaultDivisions), removed, nil
	}
	return nil, 0, fmt.Errorf("unknown preprocessing %q", string(p))
}
