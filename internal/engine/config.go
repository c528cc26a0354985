package engine

import "time"

// Config collects every threshold and window the engine uses. The zero
// value is not usable; start from DefaultConfig and override fields.
type Config struct {
	// Entry scoring.
	RVOLThreshold              float64 // RVOL above this adds the volume score
	RVOLWindow                 int     // trailing days for the reference volume
	TrendWindow                int     // trailing days for the long-term SMA
	QuietAccumulationThreshold float64 // |price change| fraction below this is "quiet"
	LowCapThreshold            float64 // paid-up capital (Cr) below this is "low float"

	// Survival filter.
	MinVolume int64 // absolute volume floor for the latest bar

	// Volatility.
	ATRPeriod int // Wilder smoothing period for ATR

	// Exit rules.
	StopLossPct           float64 // hard stop as a multiple of buy price
	TrailingMultiplier    float64 // ATR multiples below the peak
	ClimaxProfitThreshold float64 // profit %% gate for the climax rule
	ClimaxRVOLThreshold   float64 // RVOL gate for the climax rule
	ZombieDays            int     // holding days before a position can go zombie
	ZombieProfitThreshold float64 // profit %% under which a stale position is a zombie

	// Trading session, used for the intraday volume projection.
	Session Session
}

// DefaultConfig returns the standard DSE parameter set.
func DefaultConfig() Config {
	return Config{
		RVOLThreshold:              2.5,
		RVOLWindow:                 20,
		TrendWindow:                200,
		QuietAccumulationThreshold: 0.02,
		LowCapThreshold:            50,
		MinVolume:                  50000,
		ATRPeriod:                  14,
		StopLossPct:                0.93,
		TrailingMultiplier:         2.0,
		ClimaxProfitThreshold:      20,
		ClimaxRVOLThreshold:        5.0,
		ZombieDays:                 10,
		ZombieProfitThreshold:      2,
		Session:                    DefaultSession(),
	}
}

// DefaultSession is the DSE trading window: 10:00-14:30 Dhaka time.
func DefaultSession() Session {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		loc = time.FixedZone("BST", 6*60*60)
	}
	return Session{
		Location:    loc,
		OpenHour:    10,
		OpenMinute:  0,
		CloseHour:   14,
		CloseMinute: 30,
	}
}
