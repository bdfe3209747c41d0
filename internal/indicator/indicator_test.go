package indicator

import (
	"math"
	"testing"

	"ChartFeed/internal/domain/models"
)

func closes(vals ...float64) []models.Candle {
	out := make([]models.Candle, len(vals))
	for i, v := range vals {
		out[i] = models.Candle{Time: int64(i * 86400), Close: v}
	}
	return out
}

func TestSMAInsufficientData(t *testing.T) {
	got := SMA(closes(1, 2, 3), 20)
	if len(got) != 0 {
		t.Fatalf("expected empty series, got %d points", len(got))
	}
}

func TestSMAExactWindow(t *testing.T) {
	data := make([]float64, 20)
	sum := 0.0
	for i := range data {
		data[i] = float64(i + 1)
		sum += data[i]
	}
	got := SMA(closes(data...), 20)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 point, got %d", len(got))
	}
	if got[0].Value != sum/20 {
		t.Fatalf("wrong mean: %f", got[0].Value)
	}
	if got[0].Time != 19*86400 {
		t.Fatalf("point must align to the window's last candle, got %d", got[0].Time)
	}
}

func TestSMARolling(t *testing.T) {
	got := SMA(closes(1, 2, 3, 4, 5), 3)
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Value != w {
			t.Fatalf("point %d: got %f want %f", i, got[i].Value, w)
		}
	}
}

func TestEMASeed(t *testing.T) {
	got := EMA(closes(10, 11, 12), 3)
	if len(got) != 3 {
		t.Fatalf("EMA must emit one point per candle, got %d", len(got))
	}
	// Seeded with close[0], so the first value equals close[0].
	if got[0].Value != 10 {
		t.Fatalf("first EMA must equal first close, got %f", got[0].Value)
	}
	k := 2.0 / 4.0
	want := 11*k + 10*(1-k)
	if math.Abs(got[1].Value-want) > 1e-12 {
		t.Fatalf("second EMA: got %f want %f", got[1].Value, want)
	}
}

func TestEMAEmpty(t *testing.T) {
	if got := EMA(nil, 10); len(got) != 0 {
		t.Fatalf("expected empty series")
	}
}

func TestBollingerSymmetry(t *testing.T) {
	b := BollingerBands(closes(1, 3, 2, 5, 4, 6, 8, 7, 9, 10), 5, 2)
	if len(b.Upper) != len(b.Middle) || len(b.Lower) != len(b.Middle) {
		t.Fatalf("bands misaligned")
	}
	if len(b.Middle) != 6 {
		t.Fatalf("expected 6 points, got %d", len(b.Middle))
	}
	for i := range b.Middle {
		up := b.Upper[i].Value - b.Middle[i].Value
		down := b.Middle[i].Value - b.Lower[i].Value
		if math.Abs(up-down) > 1e-9 {
			t.Fatalf("asymmetric bands at %d: %f vs %f", i, up, down)
		}
		if b.Upper[i].Time != b.Middle[i].Time || b.Lower[i].Time != b.Middle[i].Time {
			t.Fatalf("band times misaligned at %d", i)
		}
	}
}

func TestBollingerPopulationStdDev(t *testing.T) {
	// Window 2,4,4,4,5,5,7,9: mean 5, population variance 4, stddev 2.
	b := BollingerBands(closes(2, 4, 4, 4, 5, 5, 7, 9), 8, 2)
	if len(b.Middle) != 1 {
		t.Fatalf("expected 1 point, got %d", len(b.Middle))
	}
	if b.Middle[0].Value != 5 {
		t.Fatalf("wrong middle: %f", b.Middle[0].Value)
	}
	if math.Abs(b.Upper[0].Value-9) > 1e-9 || math.Abs(b.Lower[0].Value-1) > 1e-9 {
		t.Fatalf("wrong bands: %f / %f", b.Upper[0].Value, b.Lower[0].Value)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	if got := RSI(closes(1, 2, 3), 14); len(got) != 0 {
		t.Fatalf("expected empty series")
	}
	// length == period is still not enough: need strictly more candles.
	if got := RSI(closes(1, 2, 3, 4, 5), 5); len(got) != 0 {
		t.Fatalf("expected empty series at boundary")
	}
}

func TestRSIFirstPointIndex(t *testing.T) {
	data := closes(1, 2, 3, 4, 5, 6, 7)
	got := RSI(data, 5)
	// First point lands at index period+1, not period.
	if len(got) != 1 {
		t.Fatalf("expected 1 point, got %d", len(got))
	}
	if got[0].Time != data[6].Time {
		t.Fatalf("first point must align to index period+1, got time %d", got[0].Time)
	}
}

func TestRSIZeroLoss(t *testing.T) {
	got := RSI(closes(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 5)
	if len(got) == 0 {
		t.Fatalf("expected output")
	}
	for i, p := range got {
		if p.Value != 100 {
			t.Fatalf("strictly rising closes must give RSI 100, point %d is %f", i, p.Value)
		}
	}
}

func TestRSIWilderRecurrence(t *testing.T) {
	// period 2 over closes 1,2,3,2: seed avgGain=1, avgLoss=0 over
	// indices 1..2; at index 3 change=-1, so avgGain=0.5, avgLoss=0.5.
	got := RSI(closes(1, 2, 3, 2), 2)
	if len(got) != 1 {
		t.Fatalf("expected 1 point, got %d", len(got))
	}
	if math.Abs(got[0].Value-50) > 1e-9 {
		t.Fatalf("expected RSI 50, got %f", got[0].Value)
	}
}
