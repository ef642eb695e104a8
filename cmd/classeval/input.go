package main

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// readObservations parses label,score rows. A first row that does not parse
// as numbers is treated as a header. Blank lines are skipped by encoding/csv.
func readObservations(r io.Reader) (labels, scores []float64, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read input")
		}

		label, labelErr := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		score, scoreErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if labelErr != nil || scoreErr != nil {
			if row == 0 {
				continue
			}
			line, _ := cr.FieldPos(0)
			return nil, nil, errors.NewValueError("readObservations",
				"line "+strconv.Itoa(line)+": expected numeric label,score, got "+strings.Join(record, ","))
		}
		labels = append(labels, label)
		scores = append(scores, score)
	}

	if len(labels) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "read input")
	}
	return labels, scores, nil
}
