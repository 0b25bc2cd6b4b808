package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAcquisitionRequest_ToCriteria(t *testing.T) {
	now := time.Date(2024, 3, 15, 17, 30, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		c, err := AcquisitionRequest{City: "Haifa"}.ToCriteria(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), c.End)
		assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), c.Start)
		assert.Equal(t, ModeSynthetic, c.Mode)
		assert.True(t, c.RoomsRange.IsOpen())
		assert.True(t, c.AllNeighborhoodsRequested())
	})

	t.Run("full", func(t *testing.T) {
		req := AcquisitionRequest{
			City:            "Beer Sheva",
			Neighborhood:    "Ramot",
			StartDate:       "2024-01-01",
			EndDate:         "2024-01-31",
			RoomsMin:        ptr(3),
			FloorMax:        ptr(10),
			AreaMin:         ptr(60),
			AreaMax:         ptr(120),
			ExcludeAbnormal: true,
			Mode:            "LIVE",
		}
		c, err := req.ToCriteria(now)
		require.NoError(t, err)
		assert.Equal(t, ModeLive, c.Mode)
		assert.Equal(t, 3.0, c.RoomsRange.Min)
		assert.True(t, math.IsInf(c.RoomsRange.Max, 1))
		assert.True(t, math.IsInf(c.FloorRange.Min, -1))
		assert.Equal(t, 10.0, c.FloorRange.Max)
		assert.Equal(t, NewRange(60, 120), c.AreaRange)
		assert.True(t, c.ExcludeAbnormal)
		require.NoError(t, c.Validate())

		back := RequestFromCriteria(c)
		back.Mode = "LIVE"
		assert.Equal(t, req, back)
	})

	t.Run("errors", func(t *testing.T) {
		for _, req := range []AcquisitionRequest{
			{City: "X", StartDate: "01/01/2024"},
			{City: "X", EndDate: "yesterday"},
			{City: "X", Mode: "scrape"},
		} {
			_, err := req.ToCriteria(now)
			assert.ErrorIs(t, err, ErrInvalidCriteria)
		}
	})
}
