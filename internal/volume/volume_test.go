package volume

import (
	"testing"
	"time"

	"tradecore/internal/core"
)

func tick(price, size float64, side core.Side, t time.Time) core.TradeTick {
	return core.TradeTick{Timestamp: t, Coin: "BTC", Price: price, Size: size, Side: side}
}

func buildSample() Profile {
	b := NewBuilder(10, SessionRolling, "BTC")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.AddTrade(tick(50000, 5, core.SideAggressorBuy, base))
	b.AddTrade(tick(50000, 3, core.SideAggressorSell, base.Add(time.Second)))
	b.AddTrade(tick(49900, 2, core.SideAggressorBuy, base.Add(2*time.Second)))
	b.AddTrade(tick(50100, 1, core.SideAggressorSell, base.Add(3*time.Second)))
	return b.Profile()
}

func TestBuilderBucketsByTickSize(t *testing.T) {
	p := buildSample()
	if got := p.VolumeAt(50004); got != 8 {
		t.Errorf("VolumeAt(50004) = %v, want 8 (bucket 50000)", got)
	}
}

func TestPOCIsHighestVolumeBucket(t *testing.T) {
	p := buildSample()
	poc, ok := POC(p)
	if !ok {
		t.Fatal("expected ok")
	}
	if poc != 50000 {
		t.Errorf("POC = %v, want 50000", poc)
	}
}

func TestPOCTieBreaksLowestPrice(t *testing.T) {
	b := NewBuilder(10, SessionRolling, "BTC")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.AddTrade(tick(100, 5, core.SideAggressorBuy, base))
	b.AddTrade(tick(200, 5, core.SideAggressorBuy, base))
	poc, ok := POC(b.Profile())
	if !ok {
		t.Fatal("expected ok")
	}
	if poc != 100 {
		t.Errorf("POC tie-break = %v, want 100 (lowest price)", poc)
	}
}

func TestValueAreaCoversTargetPercentage(t *testing.T) {
	p := buildSample()
	low, high, ok := ValueArea(p, 0.70)
	if !ok {
		t.Fatal("expected ok")
	}
	if low > 50000 || high < 50000 {
		t.Errorf("value area [%v,%v] should contain the POC", low, high)
	}
	accumulated := 0.0
	for _, price := range p.SortedPrices() {
		if price >= low && price <= high {
			accumulated += p.Levels[price].TotalVolume
		}
	}
	if accumulated < p.TotalVolume()*0.70 {
		t.Errorf("value area volume %v below target", accumulated)
	}
}

func TestValueAreaEmptyProfile(t *testing.T) {
	p := NewBuilder(10, SessionRolling, "BTC").Profile()
	if _, _, ok := ValueArea(p, 0.70); ok {
		t.Error("expected ok=false for empty profile")
	}
}

func TestHVNReturnsHighestVolumeBuckets(t *testing.T) {
	p := buildSample()
	hvn := HVN(p, 0.5, 1)
	if len(hvn) == 0 {
		t.Fatal("expected at least one HVN level")
	}
	if hvn[0] != 50000 {
		t.Errorf("top HVN = %v, want 50000", hvn[0])
	}
}

func TestLVNReturnsLowestVolumeBuckets(t *testing.T) {
	p := buildSample()
	lvn := LVN(p, 0.5, 1)
	if len(lvn) == 0 {
		t.Fatal("expected at least one LVN level")
	}
	if lvn[0] != 50100 {
		t.Errorf("bottom LVN = %v, want 50100", lvn[0])
	}
}

func TestDailySessionResetsOnNewUTCDay(t *testing.T) {
	b := NewBuilder(10, SessionDaily, "BTC")
	day1 := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 0, 30, 0, 0, time.UTC)
	b.AddTrade(tick(100, 5, core.SideAggressorBuy, day1))
	b.AddTrade(tick(100, 5, core.SideAggressorBuy, day2))
	p := b.Profile()
	if got := p.TotalVolume(); got != 5 {
		t.Errorf("expected session reset to drop day1 volume, total = %v", got)
	}
}

func TestTotalVolumeEqualsBuyPlusSell(t *testing.T) {
	p := buildSample()
	for price, lvl := range p.Levels {
		if lvl.TotalVolume != lvl.BuyVolume+lvl.SellVolume {
			t.Errorf("bucket %v: total != buy+sell", price)
		}
	}
}
