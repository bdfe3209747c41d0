package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	icache "ChartFeed/internal/service/cache"
)

type stubProvider struct {
	history      []models.Chunk
	intraday     []models.Chunk
	quote        *models.Quote
	quoteErr     error
	historyCalls int
}

func (s *stubProvider) FetchHistory(ctx context.Context, symbol string) ([]models.Chunk, error) {
	s.historyCalls++
	return s.history, nil
}

func (s *stubProvider) FetchIntraday(ctx context.Context, symbol string) ([]models.Chunk, error) {
	return s.intraday, nil
}

func (s *stubProvider) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return s.quote, nil
}

func dailyRecord(date string, close float64) models.RawRecord {
	return models.RawRecord{
		"mtimestamp":       date,
		"chOpeningPrice":   close - 1,
		"chClosingPrice":   close,
		"chTradeHighPrice": close + 1,
		"chTradeLowPrice":  close - 2,
		"chTotTradedQty":   100.0,
	}
}

func newTestChartUseCase(p *stubProvider, now time.Time) *ChartUseCase {
	uc := NewChartUseCase(p, p, icache.NewTTLCache(), nil, nil, time.Minute, 0)
	uc.now = func() time.Time { return now }
	return uc
}

func TestGetChartDailyMergesChunksLastWins(t *testing.T) {
	p := &stubProvider{
		history: []models.Chunk{
			{Data: []models.RawRecord{
				dailyRecord("25-Aug-2026", 100),
				dailyRecord("26-Aug-2026", 101),
				dailyRecord("27-Aug-2026", 102),
			}},
			{Data: []models.RawRecord{
				dailyRecord("27-Aug-2026", 202),
				dailyRecord("28-Aug-2026", 203),
			}},
		},
	}
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	uc := newTestChartUseCase(p, now)

	res, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "RELIANCE", Resolution: domrepo.Res1D})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 4 {
		t.Fatalf("expected 4 candles, got %d", res.Count)
	}
	third := res.Candles[2]
	if third.Close != 202 {
		t.Fatalf("expected later chunk to win on 27-Aug, got close %v", third.Close)
	}
	for i := 1; i < len(res.Candles); i++ {
		if res.Candles[i].Time <= res.Candles[i-1].Time {
			t.Fatalf("candles not strictly ascending at %d", i)
		}
	}
}

func TestGetChartDailyCachesBaseSeries(t *testing.T) {
	p := &stubProvider{
		history: []models.Chunk{
			{Data: []models.RawRecord{dailyRecord("28-Aug-2026", 100)}},
		},
	}
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	uc := newTestChartUseCase(p, now)

	ctx := context.Background()
	if _, err := uc.GetChart(ctx, GetChartParams{Symbol: "TCS", Resolution: domrepo.Res1D}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := uc.GetChart(ctx, GetChartParams{Symbol: "TCS", Resolution: domrepo.Res1W}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if p.historyCalls != 1 {
		t.Fatalf("expected 1 provider fetch, got %d", p.historyCalls)
	}
}

func TestGetChartStaleSeriesShiftedAndScaled(t *testing.T) {
	p := &stubProvider{
		history: []models.Chunk{
			{Data: []models.RawRecord{dailyRecord("01-Jan-2026", 100)}},
		},
		quote: &models.Quote{Symbol: "INFY", Price: 110},
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	uc := newTestChartUseCase(p, now)

	res, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "INFY", Resolution: domrepo.Res1D})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := res.Candles[len(res.Candles)-1]
	if last.Time != now.Unix() {
		t.Fatalf("expected last candle shifted to now, got %d want %d", last.Time, now.Unix())
	}
	if math.Abs(last.Close-110) > 1e-9 {
		t.Fatalf("expected close rescaled to quote, got %v", last.Close)
	}
	if last.Volume != 100 {
		t.Fatalf("volume must not be rescaled, got %v", last.Volume)
	}
}

func TestGetChartQuoteFailureDegradesToShiftOnly(t *testing.T) {
	p := &stubProvider{
		history: []models.Chunk{
			{Data: []models.RawRecord{dailyRecord("01-Jan-2026", 100)}},
		},
		quoteErr: errors.New("quote down"),
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	uc := newTestChartUseCase(p, now)

	res, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "INFY", Resolution: domrepo.Res1D})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := res.Candles[len(res.Candles)-1]
	if last.Time != now.Unix() {
		t.Fatalf("expected shift despite quote failure, got %d", last.Time)
	}
	if last.Close != 100 {
		t.Fatalf("expected prices untouched without quote, got %v", last.Close)
	}
}

func TestGetChartIntradayResamples(t *testing.T) {
	rec := func(ts string, close float64) models.RawRecord {
		return models.RawRecord{"mtimestamp": ts, "open": close - 1, "high": close + 1, "low": close - 2, "close": close, "volume": 10.0}
	}
	p := &stubProvider{
		intraday: []models.Chunk{
			{Data: []models.RawRecord{
				rec("28-Aug-2026 09:15:00", 100),
				rec("28-Aug-2026 09:16:00", 101),
				rec("28-Aug-2026 09:17:00", 102),
				rec("28-Aug-2026 09:20:00", 103),
			}},
		},
	}
	uc := newTestChartUseCase(p, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))

	res, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "HDFCBANK", Resolution: domrepo.Res5m})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 five-minute buckets, got %d", res.Count)
	}
	first := res.Candles[0]
	if first.Close != 102 {
		t.Fatalf("bucket close should be last member, got %v", first.Close)
	}
	if first.Volume != 30 {
		t.Fatalf("bucket volume should sum, got %v", first.Volume)
	}
}

func TestGetChartRejectsUnknownResolution(t *testing.T) {
	uc := newTestChartUseCase(&stubProvider{}, time.Now())
	if _, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "X", Resolution: "3h"}); err == nil {
		t.Fatalf("expected error for unknown resolution")
	}
}

func TestGetChartTrimsToMaxCandles(t *testing.T) {
	p := &stubProvider{
		history: []models.Chunk{
			{Data: []models.RawRecord{
				dailyRecord("24-Aug-2026", 100),
				dailyRecord("25-Aug-2026", 101),
				dailyRecord("26-Aug-2026", 102),
				dailyRecord("27-Aug-2026", 103),
				dailyRecord("28-Aug-2026", 104),
			}},
		},
	}
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	uc := NewChartUseCase(p, p, nil, nil, nil, time.Minute, 2)
	uc.now = func() time.Time { return now }

	res, err := uc.GetChart(context.Background(), GetChartParams{Symbol: "ICICIBANK", Resolution: domrepo.Res1D})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected trim to 2 candles, got %d", res.Count)
	}
	if res.Candles[1].Close != 104 {
		t.Fatalf("trim must keep the newest candles, got close %v", res.Candles[1].Close)
	}
}

func TestGetLiveHistoryResamplesArchivedCandles(t *testing.T) {
	base := int64(1700000100) // on the 5-minute grid
	arch := &stubArchive{candles: []models.Candle{
		{Time: base, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{Time: base + 60, Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 20},
		{Time: base + 300, Open: 101, High: 103, Low: 101, Close: 102, Volume: 5},
	}}
	uc := newTestChartUseCase(&stubProvider{}, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	uc.SetArchive(arch)

	res, err := uc.GetLiveHistory(context.Background(), GetLiveHistoryParams{
		Symbol:     "RELIANCE",
		Resolution: domrepo.Res5m,
		From:       time.Unix(base, 0),
		To:         time.Unix(base+600, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 buckets, got %d", res.Count)
	}
	first := res.Candles[0]
	if first.Time != base || first.Close != 101 || first.High != 102 || first.Volume != 30 {
		t.Fatalf("bad first bucket: %+v", first)
	}
}

func TestGetLiveHistoryErrors(t *testing.T) {
	uc := newTestChartUseCase(&stubProvider{}, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	if _, err := uc.GetLiveHistory(context.Background(), GetLiveHistoryParams{Symbol: "TCS", Resolution: domrepo.Res1m}); err == nil {
		t.Fatalf("expected error without archive")
	}

	uc.SetArchive(&stubArchive{candlesErr: errors.New("clickhouse down")})
	if _, err := uc.GetLiveHistory(context.Background(), GetLiveHistoryParams{Symbol: "TCS", Resolution: domrepo.Res1m}); err == nil {
		t.Fatalf("expected archive error to propagate")
	}
	if _, err := uc.GetLiveHistory(context.Background(), GetLiveHistoryParams{Symbol: "TCS", Resolution: domrepo.Res1D}); err == nil {
		t.Fatalf("expected error for calendar resolution")
	}
}

func TestGetIndicatorSMA(t *testing.T) {
	recs := make([]models.RawRecord, 0, 4)
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	for i, close := range []float64{1, 2, 3, 4} {
		recs = append(recs, dailyRecord(day.AddDate(0, 0, i).Format("02-Jan-2006"), close))
	}
	p := &stubProvider{history: []models.Chunk{{Data: recs}}}
	uc := newTestChartUseCase(p, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	ind := NewIndicatorUseCase(uc)

	res, err := ind.GetIndicator(context.Background(), GetIndicatorParams{
		Symbol: "RELIANCE", Resolution: domrepo.Res1D, Kind: "sma", Period: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != 2 {
		t.Fatalf("expected 2 sma points, got %d", len(res.Points))
	}
	if res.Points[0].Value != 2 || res.Points[1].Value != 3 {
		t.Fatalf("unexpected sma values: %+v", res.Points)
	}
}

func TestGetIndicatorUnknownKind(t *testing.T) {
	p := &stubProvider{history: []models.Chunk{{Data: []models.RawRecord{dailyRecord("28-Aug-2026", 1)}}}}
	uc := newTestChartUseCase(p, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	ind := NewIndicatorUseCase(uc)

	if _, err := ind.GetIndicator(context.Background(), GetIndicatorParams{
		Symbol: "RELIANCE", Resolution: domrepo.Res1D, Kind: "macd",
	}); err == nil {
		t.Fatalf("expected error for unknown indicator kind")
	}
}
