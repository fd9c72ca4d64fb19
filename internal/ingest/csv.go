package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/schema"
)

// SourceID marks ticks loaded from CSV files.
const SourceID = "csv_ingest"

// defaultVenue is used when the CSV has no venue column.
const defaultVenue = "CSV"

// CSV reads tick rows from path and publishes them to market.tick.v1 in
// file order. Required columns: ts_ms, symbol, price_ticks, size. Optional:
// seq_no, venue, recv_ts_ms (recv_ts_ms falls back to ts_ms). Returns the
// number of ticks published.
func CSV(b bus.Bus, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open tick csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"ts_ms", "symbol", "price_ticks", "size"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("csv %s: missing column %q", path, required)
		}
	}

	count := 0
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("csv %s line %d: %w", path, line, err)
		}

		tick, err := tickFromRow(col, row)
		if err != nil {
			return count, fmt.Errorf("csv %s line %d: %w", path, line, err)
		}
		if err := b.Publish(schema.TopicTick, tick); err != nil {
			return count, fmt.Errorf("publish tick line %d: %w", line, err)
		}
		count++
	}
	return count, nil
}

func tickFromRow(col map[string]int, row []string) (schema.Tick, error) {
	intField := func(name string) (int64, error) {
		v, err := strconv.ParseInt(row[col[name]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return v, nil
	}

	tsMS, err := intField("ts_ms")
	if err != nil {
		return schema.Tick{}, err
	}
	price, err := intField("price_ticks")
	if err != nil {
		return schema.Tick{}, err
	}
	size, err := intField("size")
	if err != nil {
		return schema.Tick{}, err
	}

	tick := schema.Tick{
		SourceID:   SourceID,
		Symbol:     row[col["symbol"]],
		TSMS:       tsMS,
		RecvTSMS:   tsMS,
		PriceTicks: price,
		Size:       size,
		Venue:      defaultVenue,
	}

	if idx, ok := col["seq_no"]; ok && row[idx] != "" {
		seq, err := strconv.ParseInt(row[idx], 10, 64)
		if err != nil {
			return schema.Tick{}, fmt.Errorf("column %q: %w", "seq_no", err)
		}
		tick.Seq = &seq
	}
	if idx, ok := col["recv_ts_ms"]; ok && row[idx] != "" {
		recv, err := strconv.ParseInt(row[idx], 10, 64)
		if err != nil {
			return schema.Tick{}, fmt.Errorf("column %q: %w", "recv_ts_ms", err)
		}
		tick.RecvTSMS = recv
	}
	if idx, ok := col["venue"]; ok && row[idx] != "" {
		tick.Venue = row[idx]
	}
	return tick, nil
}
