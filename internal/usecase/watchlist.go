package usecase

import (
	"context"
	"sort"
	"sync"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
)

// WatchlistUseCase fans quote fetches out over the watchlist symbols.
type WatchlistUseCase struct {
	quotes   domrepo.QuoteProvider
	metrics  domrepo.Metrics
	defaults []string
}

func NewWatchlistUseCase(quotes domrepo.QuoteProvider, metrics domrepo.Metrics, defaults []string) *WatchlistUseCase {
	return &WatchlistUseCase{quotes: quotes, metrics: metrics, defaults: defaults}
}

// Defaults returns the configured default symbol list.
func (uc *WatchlistUseCase) Defaults() []string { return uc.defaults }

// GetQuotes fetches quotes for the given symbols concurrently. Failed
// symbols are filtered out rather than failing the whole list; callers
// see the degradation as a shorter result. Output order follows the
// requested symbol order.
func (uc *WatchlistUseCase) GetQuotes(ctx context.Context, symbols []string) []*models.Quote {
	if len(symbols) == 0 {
		symbols = uc.defaults
	}

	results := make([]*models.Quote, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			q, err := uc.quotes.FetchQuote(ctx, symbol)
			if err != nil {
				if uc.metrics != nil {
					uc.metrics.RecordError("watchlist_quote")
				}
				return
			}
			results[i] = q
			if uc.metrics != nil {
				uc.metrics.RecordLastPrice(symbol, q.Price)
			}
		}(i, symbol)
	}
	wg.Wait()

	out := make([]*models.Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			out = append(out, q)
		}
	}
	return out
}

// Symbols returns the sorted union of the default list and extras.
func (uc *WatchlistUseCase) Symbols(extra []string) []string {
	seen := make(map[string]bool, len(uc.defaults)+len(extra))
	out := make([]string, 0, len(uc.defaults)+len(extra))
	for _, lists := range [][]string{uc.defaults, extra} {
		for _, s := range lists {
			if s != "" && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
