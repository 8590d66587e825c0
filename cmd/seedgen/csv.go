package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
)

// rowError is one CSV line that could not be turned into a point
type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// readPoints reads name,latitude,longitude[,secret] rows. A header row is
// skipped when its latitude column does not parse. Bad rows are returned
// separately and do not stop the read.
func readPoints(r io.Reader) ([]models.Point, []rowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []models.Point
	var bad []rowError
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}

		p, err := parseRow(rec)
		if err != nil {
			if line == 1 && len(rec) >= 3 && strings.EqualFold(strings.TrimSpace(rec[1]), "latitude") {
				continue
			}
			bad = append(bad, rowError{Line: line, Err: err})
			continue
		}
		points = append(points, p)
	}

	return points, bad, nil
}

func parseRow(rec []string) (models.Point, error) {
	if len(rec) < 3 {
		return models.Point{}, fmt.Errorf("want at least 3 columns, got %d", len(rec))
	}

	name := strings.TrimSpace(rec[0])
	if name == "" {
		return models.Point{}, errors.New("empty name")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("latitude %q: %w", rec[1], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("longitude %q: %w", rec[2], err)
	}
	if !spatial.ValidLatLng(lat, lng) {
		return models.Point{}, fmt.Errorf("(%v, %v) out of range", lat, lng)
	}

	secret := models.NoSecret
	if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
		secret = strings.TrimSpace(rec[3])
	}

	return models.Point{Name: name, Latitude: lat, Longitude: lng, Secret: secret}, nil
}
