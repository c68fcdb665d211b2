// Package replay streams a recorded sensor session to a follower, standing
// in for the Bluetooth bridge.
package replay

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the column layout written by the calibration recorder
var Header = []string{"t", "acc", "qw", "qx", "qy", "qz", "px", "py", "pz"}

// Row is one recorded Madgwick sample
type Row struct {
	Time         float64
	Acceleration float64
	QW, QX       float64
	QY, QZ       float64
	PX, PY, PZ   float64
}

// Line renders the row the way the bridge sends it, terminator included
func (r Row) Line() string {
	return fmt.Sprintf("Mov: %s %s; %s %s %s %s, %s %s %s#",
		num(r.Time), num(r.Acceleration),
		num(r.QW), num(r.QX), num(r.QY), num(r.QZ),
		num(r.PX), num(r.PY), num(r.PZ))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ReadCSV reads a recording. The header row is required.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("recording is empty")
		}
		return nil, fmt.Errorf("error reading recording header: %w", err)
	}
	for i, name := range Header {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("unexpected recording header %q, expected %q", strings.Join(header, ","), strings.Join(Header, ","))
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading recording: %w", err)
		}

		var v [9]float64
		for i, field := range record {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := reader.FieldPos(i)
				return nil, fmt.Errorf("line %d column %s: %w", line, Header[i], err)
			}
		}
		rows = append(rows, Row{
			Time: v[0], Acceleration: v[1],
			QW: v[2], QX: v[3], QY: v[4], QZ: v[5],
			PX: v[6], PY: v[7], PZ: v[8],
		})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("recording has no samples")
	}
	return rows, nil
}
