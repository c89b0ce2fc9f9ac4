package datasource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moznion/go-optional"

	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

// pointRecord is one bar of the analytics payload: a flat record with
// nullable indicator columns. Absent and null both mean "no sample".
type pointRecord struct {
	Time    string   `json:"time"`
	Open    float64  `json:"open"`
	High    float64  `json:"high"`
	Low     float64  `json:"low"`
	Close   float64  `json:"close"`
	Volume  int64    `json:"volume"`
	MA5     *float64 `json:"ma5,omitempty"`
	MA10    *float64 `json:"ma10,omitempty"`
	MA20    *float64 `json:"ma20,omitempty"`
	BBI     *float64 `json:"bbi,omitempty"`
	KDJK    *float64 `json:"kdj_k,omitempty"`
	KDJD    *float64 `json:"kdj_d,omitempty"`
	KDJJ    *float64 `json:"kdj_j,omitempty"`
	MACDDIF *float64 `json:"macd_dif,omitempty"`
	MACDDEA *float64 `json:"macd_dea,omitempty"`
	MACD    *float64 `json:"macd,omitempty"`
	Buy     bool     `json:"buy,omitempty"`
	Sell    bool     `json:"sell,omitempty"`
}

func (r pointRecord) toPoint() types.ChartPoint {
	indicators := map[types.IndicatorType]optional.Option[float64]{}

	put := func(name types.IndicatorType, v *float64) {
		if v != nil {
			indicators[name] = optional.Some(*v)
		}
	}

	put(types.IndicatorTypeMA5, r.MA5)
	put(types.IndicatorTypeMA10, r.MA10)
	put(types.IndicatorTypeMA20, r.MA20)
	put(types.IndicatorTypeBBI, r.BBI)
	put(types.IndicatorTypeKDJK, r.KDJK)
	put(types.IndicatorTypeKDJD, r.KDJD)
	put(types.IndicatorTypeKDJJ, r.KDJJ)
	put(types.IndicatorTypeMACDDIF, r.MACDDIF)
	put(types.IndicatorTypeMACDDEA, r.MACDDEA)
	put(types.IndicatorTypeMACD, r.MACD)

	return types.ChartPoint{
		Time:       r.Time,
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		Indicators: indicators,
		Buy:        r.Buy,
		Sell:       r.Sell,
	}
}

// JSONDir reads history from a directory of per-instrument JSON exports,
// one `<code>.json` array of point records each.
type JSONDir struct {
	dir         string
	log         *logger.Logger
	instruments []Instrument
}

// NewJSONDir creates a JSON directory source. The instrument list supplies
// display names; when empty, the directory listing defines the instruments.
func NewJSONDir(dir string, instruments []Instrument, log *logger.Logger) (*JSONDir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot open data directory", err)
	}

	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s is not a directory", dir)
	}

	return &JSONDir{
		dir:         dir,
		log:         log,
		instruments: instruments,
	}, nil
}

// Instruments implements DataSource.
func (s *JSONDir) Instruments() ([]Instrument, error) {
	if len(s.instruments) > 0 {
		out := make([]Instrument, len(s.instruments))
		copy(out, s.instruments)

		return out, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot list data directory", err)
	}

	var out []Instrument

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		out = append(out, Instrument{Code: strings.TrimSuffix(e.Name(), ".json")})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out, nil
}

// History implements DataSource.
func (s *JSONDir) History(code string) ([]types.ChartPoint, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, code+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "no history for %s", code)
		}

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot read history file", err)
	}

	var records []pointRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMalformedPayload, err, "malformed history payload for %s", code)
	}

	points := make([]types.ChartPoint, len(records))
	for i, r := range records {
		points[i] = r.toPoint()
	}

	if err := types.ValidatePoints(points); err != nil {
		return nil, err
	}

	return points, nil
}

// Close implements DataSource.
func (s *JSONDir) Close() error {
	return nil
}
