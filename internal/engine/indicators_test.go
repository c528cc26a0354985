package engine

import (
	"math"
	"testing"
	"time"

	"dse-sniper-go/internal/models"
	"github.com/stretchr/testify/assert"
)

// testConfig pins the session to UTC so test clocks are easy to reason about.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session = Session{
		Location:    time.UTC,
		OpenHour:    10,
		OpenMinute:  0,
		CloseHour:   14,
		CloseMinute: 30,
	}
	return cfg
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func finalBar(n int, open, high, low, close float64, volume int64) models.Bar {
	return models.Bar{
		Date:    day(n),
		Open:    open,
		High:    high,
		Low:     low,
		Close:   close,
		Volume:  volume,
		IsFinal: true,
	}
}

func TestEnrich_FirstBarSentinels(t *testing.T) {
	cfg := testConfig()
	bars := []models.Bar{finalBar(0, 100, 105, 98, 103, 10000)}

	out := Enrich(cfg, bars, day(0))

	assert.Len(t, out, 1)
	assert.Equal(t, 103.0, out[0].SMATrend) // expanding window of one
	assert.Equal(t, 0.0, out[0].AvgVolumeRef)
	assert.Equal(t, 0.0, out[0].RelativeVolume)
	assert.Equal(t, 0.0, out[0].PriceChangePct)
	assert.Equal(t, 7.0, out[0].TrueRange) // high - low on the first bar
	assert.Equal(t, 7.0, out[0].ATR)
}

func TestEnrich_AvgVolumeRefExcludesCurrentBar(t *testing.T) {
	cfg := testConfig()
	bars := []models.Bar{
		finalBar(0, 100, 101, 99, 100, 100),
		finalBar(1, 100, 101, 99, 100, 200),
		finalBar(2, 100, 101, 99, 100, 900000),
	}

	out := Enrich(cfg, bars, day(2))

	// The spike on the last bar must not contaminate its own baseline.
	assert.Equal(t, 150.0, out[2].AvgVolumeRef)
	assert.InDelta(t, 6000.0, out[2].RelativeVolume, 1e-9)
}

func TestEnrich_AvgVolumeRefShortWindow(t *testing.T) {
	cfg := testConfig()
	cfg.RVOLWindow = 3

	bars := []models.Bar{
		finalBar(0, 100, 101, 99, 100, 10),
		finalBar(1, 100, 101, 99, 100, 20),
		finalBar(2, 100, 101, 99, 100, 30),
		finalBar(3, 100, 101, 99, 100, 40),
		finalBar(4, 100, 101, 99, 100, 50),
	}

	out := Enrich(cfg, bars, day(4))

	// Early bars silently use the shorter window...
	assert.Equal(t, 10.0, out[1].AvgVolumeRef)
	assert.Equal(t, 15.0, out[2].AvgVolumeRef)
	// ...and once enough history exists, exactly the trailing 3 prior bars.
	assert.Equal(t, 20.0, out[3].AvgVolumeRef)
	assert.Equal(t, 30.0, out[4].AvgVolumeRef)
}

func TestEnrich_RelativeVolumeNeverNaN(t *testing.T) {
	cfg := testConfig()
	bars := []models.Bar{
		finalBar(0, 100, 101, 99, 100, 0),
		finalBar(1, 100, 101, 99, 100, 0),
		finalBar(2, 100, 101, 99, 100, 500000),
	}

	out := Enrich(cfg, bars, day(2))

	for _, e := range out {
		assert.False(t, math.IsNaN(e.RelativeVolume))
		assert.False(t, math.IsInf(e.RelativeVolume, 0))
		assert.GreaterOrEqual(t, e.RelativeVolume, 0.0)
	}
	// Zero reference resolves to zero, not infinity.
	assert.Equal(t, 0.0, out[2].RelativeVolume)
}

func TestEnrich_SMATrendExpandingThenRolling(t *testing.T) {
	cfg := testConfig()
	cfg.TrendWindow = 3

	bars := []models.Bar{
		finalBar(0, 0, 11, 9, 10, 60000),
		finalBar(1, 0, 21, 19, 20, 60000),
		finalBar(2, 0, 31, 29, 30, 60000),
		finalBar(3, 0, 41, 39, 40, 60000),
	}

	out := Enrich(cfg, bars, day(3))

	assert.Equal(t, 10.0, out[0].SMATrend)
	assert.Equal(t, 15.0, out[1].SMATrend)
	assert.Equal(t, 20.0, out[2].SMATrend)
	assert.Equal(t, 30.0, out[3].SMATrend) // mean of 20, 30, 40
}

func TestEnrich_ATRWilderSmoothing(t *testing.T) {
	cfg := testConfig()

	bars := []models.Bar{
		finalBar(0, 100, 110, 100, 105, 60000), // TR = 10
		finalBar(1, 105, 112, 104, 110, 60000), // TR = max(8, 7, 1) = 8
	}

	out := Enrich(cfg, bars, day(1))

	assert.Equal(t, 10.0, out[0].ATR)
	// (13*10 + 8) / 14
	assert.InDelta(t, 9.857142857, out[1].ATR, 1e-9)
}

func TestEnrich_TrueRangeCoversGaps(t *testing.T) {
	cfg := testConfig()

	bars := []models.Bar{
		finalBar(0, 100, 101, 99, 100, 60000),
		// Gap up: high-prevClose dominates.
		finalBar(1, 110, 115, 109, 112, 60000),
	}

	out := Enrich(cfg, bars, day(1))
	assert.Equal(t, 15.0, out[1].TrueRange) // |115 - 100|
}

func TestEnrich_PriceChangePct(t *testing.T) {
	cfg := testConfig()

	bars := []models.Bar{
		finalBar(0, 100, 101, 99, 100, 60000),
		finalBar(1, 100, 106, 99, 105, 60000),
	}

	out := Enrich(cfg, bars, day(1))
	assert.InDelta(t, 5.0, out[1].PriceChangePct, 1e-9)
}

func TestEnrich_VolumeProjection(t *testing.T) {
	cfg := testConfig()

	mkSeries := func(lastFinal bool) []models.Bar {
		return []models.Bar{
			finalBar(0, 100, 101, 99, 100, 300000),
			{
				Date: day(1), Open: 100, High: 101, Low: 99, Close: 100,
				Volume: 50000, IsFinal: lastFinal,
			},
		}
	}

	t.Run("MidSessionSnapshotIsProjected", func(t *testing.T) {
		// 45 minutes into a 270-minute session.
		asOf := time.Date(2024, 1, 2, 10, 45, 0, 0, time.UTC)
		out := Enrich(cfg, mkSeries(false), asOf)

		assert.InDelta(t, 300000.0, out[1].ProjectedVolume, 1e-6)
		assert.InDelta(t, 1.0, out[1].RelativeVolume, 1e-9)
	})

	t.Run("BeforeOpenProjectsToZero", func(t *testing.T) {
		asOf := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
		out := Enrich(cfg, mkSeries(false), asOf)

		assert.Equal(t, 0.0, out[1].ProjectedVolume)
		assert.Equal(t, 0.0, out[1].RelativeVolume)
	})

	t.Run("AfterCloseUsesObservedVolume", func(t *testing.T) {
		asOf := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
		out := Enrich(cfg, mkSeries(false), asOf)

		assert.Equal(t, 50000.0, out[1].ProjectedVolume)
	})

	t.Run("FinalCandleNeverProjected", func(t *testing.T) {
		asOf := time.Date(2024, 1, 2, 10, 45, 0, 0, time.UTC)
		out := Enrich(cfg, mkSeries(true), asOf)

		assert.Equal(t, 50000.0, out[1].ProjectedVolume)
	})

	t.Run("OnlyTheLastBarIsProjected", func(t *testing.T) {
		bars := mkSeries(false)
		bars[0].IsFinal = false // stale flag on an older bar must not matter
		asOf := time.Date(2024, 1, 2, 10, 45, 0, 0, time.UTC)
		out := Enrich(cfg, bars, asOf)

		assert.Equal(t, 300000.0, out[0].ProjectedVolume)
	})

	t.Run("FirstMinuteClampsElapsedToOne", func(t *testing.T) {
		asOf := time.Date(2024, 1, 2, 10, 0, 30, 0, time.UTC)
		out := Enrich(cfg, mkSeries(false), asOf)

		// elapsed clamps to 1 minute: 50000 * 270
		assert.InDelta(t, 50000.0*270, out[1].ProjectedVolume, 1e-6)
	})
}

func TestEnrich_EmptyInput(t *testing.T) {
	assert.Nil(t, Enrich(testConfig(), nil, day(0)))
}

func TestSession_Clock(t *testing.T) {
	s := testConfig().Session

	assert.Equal(t, 270, s.Minutes())
	assert.Negative(t, s.MinutesElapsed(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 45, s.MinutesElapsed(time.Date(2024, 1, 2, 10, 45, 0, 0, time.UTC)))

	assert.False(t, s.IsOpen(time.Date(2024, 1, 2, 9, 59, 0, 0, time.UTC)))
	assert.True(t, s.IsOpen(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
	assert.True(t, s.IsOpen(time.Date(2024, 1, 2, 14, 29, 0, 0, time.UTC)))
	assert.False(t, s.IsOpen(time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)))
}
