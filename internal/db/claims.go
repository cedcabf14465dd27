package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/session"
)

// ErrNotFound is returned when a claim does not exist.
var ErrNotFound = errors.New("claim not found")

// DefaultListLimit caps ListClaims when no limit is given.
const DefaultListLimit = 100

var _ session.Uploader = (*DB)(nil)

func unixMs(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Upload stores a passed claim and its polygon in one transaction.
func (db *DB) Upload(ctx context.Context, c session.Claim) error {
	if c.ID == "" {
		return fmt.Errorf("claim has no id")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (
			claim_id, session_id, area_m2, point_count, walked_distance_m,
			started_unix_ms, completed_unix_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.Area, c.PointCount, c.WalkedDistance,
		unixMs(c.StartedAt), unixMs(c.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert claim %s: %w", c.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO claim_points (claim_id, seq, lat, lon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, p := range c.Points {
		if _, err := stmt.ExecContext(ctx, c.ID, i, p.Lat, p.Lon); err != nil {
			return fmt.Errorf("insert point %d of claim %s: %w", i, c.ID, err)
		}
	}
	return tx.Commit()
}

// GetClaim returns a stored claim with its points.
func (db *DB) GetClaim(ctx context.Context, id string) (session.Claim, error) {
	c := session.Claim{ID: id}
	var started, completed int64
	err := db.QueryRowContext(ctx,
		`SELECT session_id, area_m2, point_count, walked_distance_m, started_unix_ms, completed_unix_ms
		FROM claims WHERE claim_id = ?`, id,
	).Scan(&c.SessionID, &c.Area, &c.PointCount, &c.WalkedDistance, &started, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Claim{}, ErrNotFound
	}
	if err != nil {
		return session.Claim{}, err
	}
	c.StartedAt, c.CompletedAt = fromUnixMs(started), fromUnixMs(completed)

	rows, err := db.QueryContext(ctx, `SELECT lat, lon FROM claim_points WHERE claim_id = ? ORDER BY seq`, id)
	if err != nil {
		return session.Claim{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p geo.Point
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return session.Claim{}, err
		}
		c.Points = append(c.Points, p)
	}
	return c, rows.Err()
}

// ListClaims returns the most recently completed claims, newest first,
// without their points.
func (db *DB) ListClaims(ctx context.Context, limit int) ([]session.Claim, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.QueryContext(ctx,
		`SELECT claim_id, session_id, area_m2, point_count, walked_distance_m, started_unix_ms, completed_unix_ms
		FROM claims ORDER BY completed_unix_ms DESC, claim_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []session.Claim
	for rows.Next() {
		var c session.Claim
		var started, completed int64
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Area, &c.PointCount, &c.WalkedDistance, &started, &completed); err != nil {
			return nil, err
		}
		c.StartedAt, c.CompletedAt = fromUnixMs(started), fromUnixMs(completed)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// DeleteClaim removes a claim and, through the foreign key, its points.
func (db *DB) DeleteClaim(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM claims WHERE claim_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimStats summarises every stored claim.
type ClaimStats struct {
	Count          int     `json:"count"`
	TotalArea      float64 `json:"total_area_m2"`
	MeanArea       float64 `json:"mean_area_m2"`
	StdDevArea     float64 `json:"stddev_area_m2"`
	MedianArea     float64 `json:"median_area_m2"`
	MeanWalkedDist float64 `json:"mean_walked_distance_m"`
}

// Stats computes area and distance statistics over all claims.
func (db *DB) Stats(ctx context.Context) (ClaimStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT area_m2, walked_distance_m FROM claims ORDER BY area_m2`)
	if err != nil {
		return ClaimStats{}, err
	}
	defer rows.Close()

	var areas, walked []float64
	for rows.Next() {
		var a, w float64
		if err := rows.Scan(&a, &w); err != nil {
			return ClaimStats{}, err
		}
		areas = append(areas, a)
		walked = append(walked, w)
	}
	if err := rows.Err(); err != nil {
		return ClaimStats{}, err
	}

	s := ClaimStats{Count: len(areas)}
	if s.Count == 0 {
		return s, nil
	}
	s.TotalArea = floats.Sum(areas)
	s.MeanArea = stat.Mean(areas, nil)
	if s.Count > 1 {
		s.StdDevArea = stat.StdDev(areas, nil)
	}
	// areas are sorted by the query
	s.MedianArea = stat.Quantile(0.5, stat.Empirical, areas, nil)
	s.MeanWalkedDist = stat.Mean(walked, nil)
	return s, nil
}
