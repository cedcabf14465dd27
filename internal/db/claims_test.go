package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/session"
)

var t0 = time.Date(2026, 4, 18, 7, 30, 0, 0, time.UTC)

func testClaim(n int, area float64) session.Claim {
	origin := geo.Point{Lat: 37.7749, Lon: -122.4194}
	pts := []geo.Point{
		origin,
		geo.Offset(origin, 0, 40),
		geo.Offset(origin, 40, 40),
		geo.Offset(origin, 40, 0),
	}
	return session.Claim{
		ID:             fmt.Sprintf("claim-%d", n),
		SessionID:      fmt.Sprintf("session-%d", n),
		Points:         pts,
		Area:           area,
		PointCount:     len(pts),
		WalkedDistance: 160,
		StartedAt:      t0.Add(time.Duration(n) * time.Hour),
		CompletedAt:    t0.Add(time.Duration(n)*time.Hour + 3*time.Minute + 250*time.Millisecond),
	}
}

func TestUploadAndGetClaim(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	want := testClaim(1, 1600)

	require.NoError(t, db.Upload(ctx, want))

	got, err := db.GetClaim(ctx, want.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetClaim() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpload_Errors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.Error(t, db.Upload(ctx, session.Claim{}), "claim without id")

	c := testClaim(1, 1600)
	require.NoError(t, db.Upload(ctx, c))
	assert.Error(t, db.Upload(ctx, c), "duplicate id")

	// the failed duplicate must not leave extra points behind
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM claim_points WHERE claim_id = ?`, c.ID).Scan(&n))
	assert.Equal(t, len(c.Points), n)
}

func TestGetClaim_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetClaim(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListClaims(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Upload(ctx, testClaim(i, float64(i)*1000)))
	}

	claims, err := db.ListClaims(ctx, 0)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, []string{"claim-3", "claim-2", "claim-1"}, []string{claims[0].ID, claims[1].ID, claims[2].ID})
	assert.Nil(t, claims[0].Points, "listing omits points")
	assert.Equal(t, testClaim(3, 0).CompletedAt, claims[0].CompletedAt)

	claims, err = db.ListClaims(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestDeleteClaim(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := testClaim(1, 1600)
	require.NoError(t, db.Upload(ctx, c))

	require.NoError(t, db.DeleteClaim(ctx, c.ID))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM claim_points`).Scan(&n))
	assert.Zero(t, n, "points cascade with their claim")

	assert.True(t, errors.Is(db.DeleteClaim(ctx, c.ID), ErrNotFound))
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimStats{}, s)

	require.NoError(t, db.Upload(ctx, testClaim(1, 300)))
	s, err = db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 300.0, s.MedianArea)
	assert.Zero(t, s.StdDevArea)

	require.NoError(t, db.Upload(ctx, testClaim(2, 100)))
	require.NoError(t, db.Upload(ctx, testClaim(3, 200)))
	s, err = db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 600, s.TotalArea, 1e-9)
	assert.InDelta(t, 200, s.MeanArea, 1e-9)
	assert.InDelta(t, 200, s.MedianArea, 1e-9)
	assert.InDelta(t, 100, s.StdDevArea, 1e-9)
	assert.InDelta(t, 160, s.MeanWalkedDist, 1e-9)
}
