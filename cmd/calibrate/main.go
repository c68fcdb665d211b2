// Command calibrate derives offset and gain corrections from a raw
// accelerometer or magnetometer recording.
package main

import (
	"flag"
	"os"

	"github.com/open-teleop/follower/pkg/calibration"
	customlog "github.com/open-teleop/follower/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// result is the document written by -out
type result struct {
	Sensor     string        `yaml:"sensor"`
	Method     string        `yaml:"method"`
	Multiplier float64       `yaml:"multiplier"`
	Samples    int           `yaml:"samples"`
	Outliers   int           `yaml:"outliers_removed"`
	Offset     [3]float64    `yaml:"offset"`
	Gain       [3][3]float64 `yaml:"gain"`
	SOD        float64       `yaml:"sod"`
}

func main() {
	file := flag.String("file", "", "CSV recording with header "+`"x,y,z"`)
	method := flag.String("method", string(calibration.EllipsoidFit), "Calibration method: e (ellipsoid fit) or mm (max/min)")
	pre := flag.String("preprocess", string(calibration.NoPreprocessing), "Preprocessing: o (outliers), r (regularize), or, or -")
	sensor := flag.String("sensor", string(calibration.Magnetometer), "Sensor: a (accelerometer) or m (magnetometer)")
	out := flag.String("out", "", "Write the calibration as YAML to this file")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := customlog.NewLogrusLoggerWithWriter(*level, os.Stdout).WithField(customlog.ComponentField, "calibrate")

	if *file == "" {
		logger.Fatalf("-file is required")
	}
	mult, err := calibration.Sensor(*sensor).Multiplier()
	if err != nil {
		logger.Fatalf("Invalid sensor: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open recording: %v", err)
	}
	raw, err := calibration.ReadCSV(f)
	f.Close()
	if err != nil {
		logger.Fatalf("Failed to read recording %s: %v", *file, err)
	}
	logger.Infof("Read %d samples from %s", len(raw), *file)

	samples, removed, err := calibration.Preprocess(raw, calibration.Preprocessing(*pre))
	if err != nil {
		logger.Fatalf("Invalid preprocessing: %v", err)
	}
	if removed > 0 {
		logger.Infof("%d outliers removed", removed)
	}

	cal, err := calibration.Calibrate(samples, calibration.Method(*method), mult)
	if err != nil {
		logger.Fatalf("Calibration failed: %v", err)
	}
	gain := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			gain.Set(i, j, cal.Gain.At(i, j))
		}
	}
	logger.Infof("Offset: %v", cal.Offset)
	logger.Infof("Gain:\n%v", mat.Formatted(gain, mat.Squeeze()))

	sod, err := calibration.SOD(cal.ApplyAll(samples), mult)
	if err != nil {
		logger.Warnf("Failed to fit calibrated samples: %v", err)
	} else {
		logger.Infof("Coefficient SOD: %.18f", sod)
	}

	if *out == "" {
		return
	}
	doc := result{
		Sensor:     *sensor,
		Method:     string(cal.Method),
		Multiplier: cal.Multiplier,
		Samples:    len(samples),
		Outliers:   removed,
		Offset:     cal.Offset,
		SOD:        sod,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			doc.Gain[i][j] = cal.Gain.At(i, j)
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		logger.Fatalf("Failed to encode calibration: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Fatalf("Failed to write %s: %v", *out, err)
	}
	logger.Infof("Calibration written to %s", *out)
}
