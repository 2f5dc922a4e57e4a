// Package data loads daily price history for the analytics engine. The only
// concrete provider reads CSV files; Provider exists so callers can swap in
// other sources in tests.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfarm/seasonal-edge/pkg/types"
)

// Provider loads a daily price series for a symbol.
type Provider interface {
	Load(symbol, source string) ([]types.PricePoint, error)
	Name() string
}

// ColumnMapping describes where each field lives in a CSV row.
type ColumnMapping struct {
	DateCol    int
	OpenCol    int
	HighCol    int
	LowCol     int
	CloseCol   int
	VolumeCol  int // -1 when the file has no volume column
	DateFormat string
	MinColumns int
	HasHeader  bool
}

// DefaultFormat matches the usual date,open,high,low,close,volume layout.
var DefaultFormat = ColumnMapping{
	DateCol:    0,
	OpenCol:    1,
	HighCol:    2,
	LowCol:     3,
	CloseCol:   4,
	VolumeCol:  5,
	DateFormat: "2006-01-02",
	MinColumns: 6,
	HasHeader:  true,
}

// CloseOnlyFormat handles two-column date,close exports.
var CloseOnlyFormat = ColumnMapping{
	DateCol:    0,
	OpenCol:    -1,
	HighCol:    -1,
	LowCol:     -1,
	CloseCol:   1,
	VolumeCol:  -1,
	DateFormat: "2006-01-02",
	MinColumns: 2,
	HasHeader:  true,
}

// CSVProvider reads daily OHLCV rows from a file. Malformed rows are logged
// and skipped; a file that yields no valid rows is an error, never silently
// substituted data.
type CSVProvider struct {
	format ColumnMapping
	log    zerolog.Logger
}

// NewCSVProvider uses the default column layout.
func NewCSVProvider(log zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: DefaultFormat, log: log}
}

// NewCSVProviderWithFormat uses a custom column layout.
func NewCSVProviderWithFormat(format ColumnMapping, log zerolog.Logger) *CSVProvider {
	return &CSVProvider{format: format, log: log}
}

func (p *CSVProvider) Name() string { return "csv" }

// Load reads and validates the series at source. Rows come back sorted by
// date ascending regardless of file order.
func (p *CSVProvider) Load(symbol, source string) ([]types.PricePoint, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open data file for %s: %w", symbol, err)
	}
	defer file.Close()

	prices, err := p.parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no valid rows in %s", source)
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].Date.Before(prices[j].Date) })

	if err := types.ValidateSeries(prices); err != nil {
		return nil, fmt.Errorf("series %s: %w", symbol, err)
	}

	p.log.Debug().Str("symbol", symbol).Str("source", source).
		Int("rows", len(prices)).Msg("loaded price series")
	return prices, nil
}

func (p *CSVProvider) parse(r io.Reader) ([]types.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	line := 0
	if p.format.HasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line++
	}

	var prices []types.PricePoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		if len(record) < p.format.MinColumns {
			p.log.Warn().Int("line", line).Int("columns", len(record)).Msg("row too short, skipping")
			continue
		}

		point, err := p.parseRow(record)
		if err != nil {
			p.log.Warn().Int("line", line).Err(err).Msg("bad row, skipping")
			continue
		}
		prices = append(prices, point)
	}
	return prices, nil
}

func (p *CSVProvider) parseRow(record []string) (types.PricePoint, error) {
	date, err := time.Parse(p.format.DateFormat, record[p.format.DateCol])
	if err != nil {
		return types.PricePoint{}, fmt.Errorf("date %q: %w", record[p.format.DateCol], err)
	}

	closePx, err := strconv.ParseFloat(record[p.format.CloseCol], 64)
	if err != nil {
		return types.PricePoint{}, fmt.Errorf("close %q: %w", record[p.format.CloseCol], err)
	}

	point := types.PricePoint{
		Date:  date,
		Open:  closePx,
		High:  closePx,
		Low:   closePx,
		Close: closePx,
	}

	if p.format.OpenCol >= 0 {
		if point.Open, err = strconv.ParseFloat(record[p.format.OpenCol], 64); err != nil {
			return types.PricePoint{}, fmt.Errorf("open %q: %w", record[p.format.OpenCol], err)
		}
	}
	if p.format.HighCol >= 0 {
		if point.High, err = strconv.ParseFloat(record[p.format.HighCol], 64); err != nil {
			return types.PricePoint{}, fmt.Errorf("high %q: %w", record[p.format.HighCol], err)
		}
	}
	if p.format.LowCol >= 0 {
		if point.Low, err = strconv.ParseFloat(record[p.format.LowCol], 64); err != nil {
			return types.PricePoint{}, fmt.Errorf("low %q: %w", record[p.format.LowCol], err)
		}
	}
	if p.format.VolumeCol >= 0 && p.format.VolumeCol < len(record) {
		if point.Volume, err = strconv.ParseFloat(record[p.format.VolumeCol], 64); err != nil {
			return types.PricePoint{}, fmt.Errorf("volume %q: %w", record[p.format.VolumeCol], err)
		}
	}

	return point, nil
}
