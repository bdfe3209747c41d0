package series

import (
	"math"
	"testing"

	"ChartFeed/internal/domain/models"
)

func TestReconcileFreshNoOp(t *testing.T) {
	in := []models.Candle{{Time: 1000000, Open: 90, High: 110, Low: 85, Close: 100, Volume: 5}}
	got := Reconcile(in, 1000000+172800, nil)
	if len(got) != 1 || got[0] != in[0] {
		t.Fatalf("fresh series must pass through unchanged: %+v", got)
	}
	if &got[0] != &in[0] {
		t.Fatalf("fresh series must be the same slice, not a copy")
	}
}

func TestReconcileEmpty(t *testing.T) {
	got := Reconcile(nil, 1000, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty output")
	}
}

func TestReconcileShiftOnly(t *testing.T) {
	in := []models.Candle{{Time: 1000000, Open: 95, High: 105, Low: 90, Close: 100, Volume: 7}}
	got := Reconcile(in, 1200000, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 candle")
	}
	if got[0].Time != 1200000 {
		t.Fatalf("expected time shifted to 1200000, got %d", got[0].Time)
	}
	if got[0].Close != 100 || got[0].Open != 95 || got[0].Volume != 7 {
		t.Fatalf("prices must be untouched without a quote: %+v", got[0])
	}
	if in[0].Time != 1000000 {
		t.Fatalf("input mutated")
	}
}

func TestReconcilePreservesSpacing(t *testing.T) {
	in := []models.Candle{
		{Time: 1000000, Close: 1},
		{Time: 1086400, Close: 2},
	}
	got := Reconcile(in, 2000000, nil)
	if got[1].Time-got[0].Time != 86400 {
		t.Fatalf("spacing not preserved: %d", got[1].Time-got[0].Time)
	}
	if got[1].Time != 2000000 {
		t.Fatalf("last candle must land on now, got %d", got[1].Time)
	}
}

func TestReconcilePriceNormalization(t *testing.T) {
	in := []models.Candle{{Time: 1000000, Open: 100, High: 100, Low: 100, Close: 100, Volume: 3}}
	got := Reconcile(in, 1200000, &models.Quote{Price: 110, Time: 1})
	if math.Abs(got[0].Close-110) > 1e-9 {
		t.Fatalf("expected close scaled to 110, got %f", got[0].Close)
	}
	if math.Abs(got[0].Open-110) > 1e-9 {
		t.Fatalf("expected open scaled by 1.10, got %f", got[0].Open)
	}
	if got[0].Volume != 3 {
		t.Fatalf("volume must not be scaled")
	}
}

func TestReconcileWithinToleranceSkipsScaling(t *testing.T) {
	in := []models.Candle{{Time: 1000000, Open: 100, High: 100, Low: 100, Close: 100}}
	got := Reconcile(in, 1200000, &models.Quote{Price: 100.3}) // 0.3% < 0.5%
	if got[0].Close != 100 {
		t.Fatalf("deviation inside tolerance must not rescale, got %f", got[0].Close)
	}
	if got[0].Time != 1200000 {
		t.Fatalf("time shift must still apply")
	}
}

func TestReconcileBadQuoteSkipsScaling(t *testing.T) {
	in := []models.Candle{{Time: 1000000, Close: 100}}
	got := Reconcile(in, 1200000, &models.Quote{Price: 0})
	if got[0].Close != 100 {
		t.Fatalf("non-positive quote price must not rescale")
	}
}
