package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	pkgch "ChartFeed/pkg/clickhouse"
	applogger "ChartFeed/pkg/logger"
)

// ClickHouseArchive implements Archive backed by ClickHouse.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseArchive creates a ClickHouse archive over the given table.
func NewClickHouseArchive(ch *pkgch.Client, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (a *ClickHouseArchive) SetLogger(l *applogger.Logger) { a.l = l }

func (a *ClickHouseArchive) Store(ctx context.Context, u *models.LiveUpdate) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, volume, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", a.table)
	_, err := a.db.ExecContext(ctx, q,
		time.Unix(u.Candle.Time, 0),
		u.Symbol,
		u.Candle.Open,
		u.Candle.High,
		u.Candle.Low,
		u.Candle.Close,
		u.Candle.Volume,
		"nse",
	)
	return err
}

func (a *ClickHouseArchive) StoreBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(updates); start += chunkSize {
		end := start + chunkSize
		if end > len(updates) {
			end = len(updates)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, u := range updates[start:end] {
			if u == nil || u.Symbol == "" || u.Candle.Time == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(u.Candle.Time, 0),
				u.Symbol,
				u.Candle.Open,
				u.Candle.High,
				u.Candle.Low,
				u.Candle.Close,
				u.Candle.Volume,
				"nse",
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, volume, source) VALUES %s", a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// Candles returns archived candles for a symbol in ascending time order.
func (a *ClickHouseArchive) Candles(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Candle, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, a.table)
	rows, err := a.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		if a.l != nil {
			a.l.Error("clickhouse candles query error",
				applogger.String("table", a.table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, limit)
	for rows.Next() {
		var c models.Candle
		var ts time.Time
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			if a.l != nil {
				a.l.Error("clickhouse candles scan error",
					applogger.String("table", a.table),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Time = ts.Unix()
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if a.l != nil {
		a.l.Info("clickhouse candles ok",
			applogger.String("table", a.table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // Managed by pkg
}

var _ domrepo.Archive = (*ClickHouseArchive)(nil)
