package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jengzang/restroom-map/internal/database"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/spatial"
	"go.uber.org/zap"
)

var (
	// ErrPointNotFound is returned by GetByID when no row has the id
	ErrPointNotFound = errors.New("point not found")
	// ErrInvalidCoordinate marks a stored latitude/longitude that does not
	// parse as a valid coordinate
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

const selectPoints = `SELECT num, toiletName, latitude, longitude, pw FROM ex01`

// PointRepository handles database operations for restroom points
type PointRepository struct {
	db  *sql.DB
	log *zap.Logger

	// inserts read MAX(num) and write num+1; one writer at a time
	writeMu sync.Mutex
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *sql.DB, log *zap.Logger) *PointRepository {
	return &PointRepository{db: db, log: log}
}

type pointRow struct {
	num       int64
	name      sql.NullString
	latitude  sql.NullString
	longitude sql.NullString
	secret    sql.NullString
}

func (r pointRow) toPoint() (models.Point, error) {
	p := models.Point{
		ID:     r.num,
		Name:   r.name.String,
		Secret: r.secret.String,
	}
	if !r.secret.Valid {
		p.Secret = models.NoSecret
	}

	var errs []error
	lat, err := parseCoordinate(r.latitude)
	if err != nil {
		errs = append(errs, fmt.Errorf("latitude: %w", err))
	}
	lng, err := parseCoordinate(r.longitude)
	if err != nil {
		errs = append(errs, fmt.Errorf("longitude: %w", err))
	}
	p.Latitude, p.Longitude = lat, lng

	if len(errs) == 0 && !spatial.ValidLatLng(lat, lng) {
		errs = append(errs, fmt.Errorf("%w: (%v, %v) out of range", ErrInvalidCoordinate, lat, lng))
	}
	return p, errors.Join(errs...)
}

// parseCoordinate parses a TEXT coordinate, returning 0 on failure
func parseCoordinate(s sql.NullString) (float64, error) {
	if !s.Valid {
		return 0, fmt.Errorf("%w: missing", ErrInvalidCoordinate)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.String), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s.String)
	}
	return v, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ListAll retrieves every point with usable coordinates. Rows whose stored
// coordinates do not parse are logged and left out. No ordering guarantee.
func (r *PointRepository) ListAll(ctx context.Context) ([]models.Point, error) {
	rows, err := r.db.QueryContext(ctx, selectPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	points := []models.Point{}
	for rows.Next() {
		var row pointRow
		if err := rows.Scan(&row.num, &row.name, &row.latitude, &row.longitude, &row.secret); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		p, err := row.toPoint()
		if err != nil {
			r.log.Warn("Skipping point with invalid coordinate",
				zap.Int64("id", row.num),
				zap.String("latitude", row.latitude.String),
				zap.String("longitude", row.longitude.String),
				zap.Error(err),
			)
			continue
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points: %w", err)
	}

	return points, nil
}

// GetByID retrieves a single point. A bad stored coordinate is logged and
// reported as 0.0 so the record itself stays reachable.
func (r *PointRepository) GetByID(ctx context.Context, id int64) (*models.Point, error) {
	r.log.Debug("GetByID", zap.Int64("id", id))

	var row pointRow
	err := r.db.QueryRowContext(ctx, selectPoints+` WHERE num = ? LIMIT 1`, id).
		Scan(&row.num, &row.name, &row.latitude, &row.longitude, &row.secret)
	if err == sql.ErrNoRows {
		return nil, ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}

	p, err := row.toPoint()
	if err != nil {
		r.log.Warn("Point has invalid coordinate", zap.Int64("id", id), zap.Error(err))
	}
	return &p, nil
}

// Count returns the number of stored rows
func (r *PointRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ex01`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// Insert stores a new point with id MAX(num)+1 (1 for an empty store).
// Reading the max and inserting happen in one transaction.
func (r *PointRepository) Insert(ctx context.Context, name string, lat, lng float64, secret string) (*models.Point, error) {
	if secret == "" {
		secret = models.NoSecret
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var id int64
	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(num), 0) + 1 FROM ex01`).Scan(&id); err != nil {
			return fmt.Errorf("failed to read next id: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO ex01 (num, toiletName, latitude, longitude, pw) VALUES (?, ?, ?, ?, ?)`,
			id, name, formatCoordinate(lat), formatCoordinate(lng), secret,
		)
		if err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("Inserted point", zap.Int64("id", id), zap.String("name", name))

	return &models.Point{
		ID:        id,
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
		Secret:    secret,
	}, nil
}

// BatchInsert stores points in one transaction, assigning consecutive ids
// after the current maximum. Used to build seed snapshots.
func (r *PointRepository) BatchInsert(ctx context.Context, points []models.Point, progress func()) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	inserted := 0
	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(num), 0) + 1 FROM ex01`).Scan(&next); err != nil {
			return fmt.Errorf("failed to read next id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO ex01 (num, toiletName, latitude, longitude, pw) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			secret := p.Secret
			if secret == "" {
				secret = models.NoSecret
			}
			if _, err := stmt.ExecContext(ctx, next, p.Name, formatCoordinate(p.Latitude), formatCoordinate(p.Longitude), secret); err != nil {
				return fmt.Errorf("failed to insert point %q: %w", p.Name, err)
			}
			next++
			inserted++
			if progress != nil {
				progress()
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// ImportFrom appends every readable point of src to this store. Imported
// points get fresh ids after the current maximum.
func (r *PointRepository) ImportFrom(ctx context.Context, src *PointRepository) (int, error) {
	points, err := src.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read import source: %w", err)
	}
	if len(points) == 0 {
		return 0, nil
	}
	return r.BatchInsert(ctx, points, nil)
}
