package detectors

import "tradecore/internal/core"

// PrevDayLevels is the previous session's Point of Control and Value Area,
// computed once per session boundary by the orchestrator.
type PrevDayLevels struct {
	POC float64
	VAH float64
	VAL float64
}

// PrevDayVPConfig configures the previous-day Volume Profile detector.
type PrevDayVPConfig struct {
	LevelBufferPct       float64
	ConfirmationCandles  int
	MinStrength          float64
	CooldownCandles      int
	POCMagnetDistancePct float64
}

// DefaultPrevDayVPConfig matches the upstream strategy defaults.
func DefaultPrevDayVPConfig() PrevDayVPConfig {
	return PrevDayVPConfig{
		LevelBufferPct:       0.001,
		ConfirmationCandles:  2,
		MinStrength:          0.5,
		CooldownCandles:      10,
		POCMagnetDistancePct: 0.3,
	}
}

// PrevDayVP detects opening-drive, VAH/VAL rejection, POC test, and
// VA-reclaim setups against the previous trading session's levels.
type PrevDayVP struct {
	cfg    PrevDayVPConfig
	levels *PrevDayLevels

	lastSignalCandle map[string]int
	candleCount      map[string]int
	sessionOpen      map[string]float64
	sessionStarted   map[string]bool
}

// NewPrevDayVP creates a PrevDayVP detector with the given config.
func NewPrevDayVP(cfg PrevDayVPConfig) *PrevDayVP {
	return &PrevDayVP{
		cfg:              cfg,
		lastSignalCandle: make(map[string]int),
		candleCount:      make(map[string]int),
		sessionOpen:      make(map[string]float64),
		sessionStarted:   make(map[string]bool),
	}
}

// SetPrevDayLevels sets the levels used by Detect until the next call.
func (d *PrevDayVP) SetPrevDayLevels(levels PrevDayLevels) { d.levels = &levels }

// Detect implements Detector.
func (d *PrevDayVP) Detect(coin string, candles []core.Candle) (core.Signal, bool) {
	if d.levels == nil || len(candles) < d.cfg.ConfirmationCandles+1 {
		return core.Signal{}, false
	}

	d.candleCount[coin]++
	if !d.sessionStarted[coin] {
		d.sessionOpen[coin] = candles[0].Open
		d.sessionStarted[coin] = true
	}

	if d.candleCount[coin]-d.lastSignalCandle[coin] < d.cfg.CooldownCandles {
		return core.Signal{}, false
	}

	current := candles[len(candles)-1]
	poc, vah, val := d.levels.POC, d.levels.VAH, d.levels.VAL
	vaRange := vaRangeOrOne(val, vah)
	buffer := current.Close * d.cfg.LevelBufferPct

	if d.candleCount[coin] <= 15 {
		if sig, ok := d.checkOpeningDrive(coin, candles, vah, val, buffer); ok {
			d.lastSignalCandle[coin] = d.candleCount[coin]
			return sig, true
		}
	}
	checks := []func() (core.Signal, bool){
		func() (core.Signal, bool) { return d.checkVAHRejection(coin, candles, vah, poc, val, buffer, vaRange) },
		func() (core.Signal, bool) { return d.checkVALRejection(coin, candles, vah, poc, val, buffer, vaRange) },
		func() (core.Signal, bool) { return d.checkPOCTest(coin, candles, poc, vah, val, buffer, vaRange) },
		func() (core.Signal, bool) { return d.checkVAReclaim(coin, candles, vah, val, poc, buffer, vaRange) },
	}
	for _, check := range checks {
		if sig, ok := check(); ok {
			d.lastSignalCandle[coin] = d.candleCount[coin]
			return sig, true
		}
	}
	return core.Signal{}, false
}

func (d *PrevDayVP) checkOpeningDrive(coin string, candles []core.Candle, vah, val, buffer float64) (core.Signal, bool) {
	openPrice, ok := d.sessionOpen[coin]
	if !ok {
		return core.Signal{}, false
	}
	current := candles[len(candles)-1]
	recent := lastN(candles, d.cfg.ConfirmationCandles)

	if openPrice > vah+buffer {
		allAbove := true
		for _, c := range recent {
			if c.Low <= vah {
				allAbove = false
				break
			}
		}
		trendingUp := recent[len(recent)-1].Close > recent[0].Open
		if allAbove && trendingUp {
			strength := clamp((current.Close-vah)/(vah*0.01)*0.2+0.6, 0, 1)
			if strength >= d.cfg.MinStrength {
				return core.Signal{
					Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Long,
					Strength: strength, Timestamp: current.Timestamp,
					Metadata: map[string]any{"setup": "opening_drive_bullish", "prev_day_vah": vah, "prev_day_val": val, "session_open": openPrice},
				}, true
			}
		}
	}

	if openPrice < val-buffer {
		allBelow := true
		for _, c := range recent {
			if c.High >= val {
				allBelow = false
				break
			}
		}
		trendingDown := recent[len(recent)-1].Close < recent[0].Open
		if allBelow && trendingDown {
			strength := clamp((val-current.Close)/(val*0.01)*0.2+0.6, 0, 1)
			if strength >= d.cfg.MinStrength {
				return core.Signal{
					Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Short,
					Strength: strength, Timestamp: current.Timestamp,
					Metadata: map[string]any{"setup": "opening_drive_bearish", "prev_day_vah": vah, "prev_day_val": val, "session_open": openPrice},
				}, true
			}
		}
	}
	return core.Signal{}, false
}

func (d *PrevDayVP) checkVAHRejection(coin string, candles []core.Candle, vah, poc, val, buffer, vaRange float64) (core.Signal, bool) {
	recent := lastN(candles, 5)
	current := candles[len(candles)-1]

	touched := false
	for _, c := range recent[:len(recent)-1] {
		if c.High >= vah-buffer {
			touched = true
		}
	}
	closedBelow := current.Close < vah-buffer
	bearish := current.Close < current.Open
	if !touched || !closedBelow || !bearish {
		return core.Signal{}, false
	}

	highest := recent[0].High
	for _, c := range recent {
		if c.High > highest {
			highest = c.High
		}
	}
	strength := clamp((highest-current.Close)/vaRange*2, 0, 0.85)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Short,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "vah_rejection", "prev_day_vah": vah, "prev_day_poc": poc, "prev_day_val": val, "target": poc},
	}, true
}

func (d *PrevDayVP) checkVALRejection(coin string, candles []core.Candle, vah, poc, val, buffer, vaRange float64) (core.Signal, bool) {
	recent := lastN(candles, 5)
	current := candles[len(candles)-1]

	touched := false
	for _, c := range recent[:len(recent)-1] {
		if c.Low <= val+buffer {
			touched = true
		}
	}
	closedAbove := current.Close > val+buffer
	bullish := current.Close > current.Open
	if !touched || !closedAbove || !bullish {
		return core.Signal{}, false
	}

	lowest := recent[0].Low
	for _, c := range recent {
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	strength := clamp((current.Close-lowest)/vaRange*2, 0, 0.85)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Long,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "val_rejection", "prev_day_vah": vah, "prev_day_poc": poc, "prev_day_val": val, "target": poc},
	}, true
}

func (d *PrevDayVP) checkPOCTest(coin string, candles []core.Candle, poc, vah, val, buffer, vaRange float64) (core.Signal, bool) {
	if len(candles) < 3 {
		return core.Signal{}, false
	}
	current := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	pocBuffer := buffer * 2
	touched := minFloat(prev.Low, current.Low) <= poc+pocBuffer && maxFloat(prev.High, current.High) >= poc-pocBuffer
	if !touched {
		return core.Signal{}, false
	}

	if prev.Close < poc && current.Close > poc && current.Close > prev.Close {
		strength := clamp(absF(current.Close-poc)/vaRange*3, 0, 0.75)
		if strength >= d.cfg.MinStrength {
			return core.Signal{
				Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Long,
				Strength: strength, Timestamp: current.Timestamp,
				Metadata: map[string]any{"setup": "poc_test_bullish", "prev_day_poc": poc, "prev_day_vah": vah, "prev_day_val": val, "target": vah},
			}, true
		}
	}
	if prev.Close > poc && current.Close < poc && current.Close < prev.Close {
		strength := clamp(absF(poc-current.Close)/vaRange*3, 0, 0.75)
		if strength >= d.cfg.MinStrength {
			return core.Signal{
				Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Short,
				Strength: strength, Timestamp: current.Timestamp,
				Metadata: map[string]any{"setup": "poc_test_bearish", "prev_day_poc": poc, "prev_day_vah": vah, "prev_day_val": val, "target": val},
			}, true
		}
	}
	return core.Signal{}, false
}

func (d *PrevDayVP) checkVAReclaim(coin string, candles []core.Candle, vah, val, poc, buffer, vaRange float64) (core.Signal, bool) {
	if len(candles) < d.cfg.ConfirmationCandles+2 {
		return core.Signal{}, false
	}
	current := candles[len(candles)-1]
	window := d.cfg.ConfirmationCandles + 2
	prevCandles := candles[len(candles)-window : len(candles)-1]

	wasBelow := true
	for _, c := range prevCandles {
		if c.Close >= val-buffer {
			wasBelow = false
			break
		}
	}
	nowInside := current.Close > val+buffer && current.Close < vah-buffer
	if wasBelow && nowInside {
		strength := clamp((current.Close-val)/vaRange*2, 0, 0.7)
		if strength >= d.cfg.MinStrength {
			return core.Signal{
				Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Long,
				Strength: strength, Timestamp: current.Timestamp,
				Metadata: map[string]any{"setup": "va_reclaim_bullish", "prev_day_vah": vah, "prev_day_val": val, "prev_day_poc": poc, "target": poc},
			}, true
		}
	}

	wasAbove := true
	for _, c := range prevCandles {
		if c.Close <= vah+buffer {
			wasAbove = false
			break
		}
	}
	nowInsideBear := current.Close < vah-buffer && current.Close > val+buffer
	if wasAbove && nowInsideBear {
		strength := clamp((vah-current.Close)/vaRange*2, 0, 0.7)
		if strength >= d.cfg.MinStrength {
			return core.Signal{
				Coin: coin, SignalType: core.SignalPrevDayVP, Direction: core.Short,
				Strength: strength, Timestamp: current.Timestamp,
				Metadata: map[string]any{"setup": "va_reclaim_bearish", "prev_day_vah": vah, "prev_day_val": val, "prev_day_poc": poc, "target": poc},
			}, true
		}
	}
	return core.Signal{}, false
}

// Reset clears per-coin cooldown and session-open state.
func (d *PrevDayVP) Reset(coin string) {
	delete(d.lastSignalCandle, coin)
	delete(d.candleCount, coin)
	delete(d.sessionOpen, coin)
	delete(d.sessionStarted, coin)
}

// ResetAll clears state for every coin.
func (d *PrevDayVP) ResetAll() {
	d.lastSignalCandle = make(map[string]int)
	d.candleCount = make(map[string]int)
	d.sessionOpen = make(map[string]float64)
	d.sessionStarted = make(map[string]bool)
}
