package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

// codePattern restricts instrument codes to what may appear inside view
// names and file paths. Codes are exchange prefix plus digits.
var codePattern = regexp.MustCompile(`^[a-z]{2}[0-9]{6}$`)

// DuckDB reads history from a directory of indicator-enriched CSV exports,
// one `<code>.csv` per instrument, queried through read_csv_auto views on an
// in-memory database. The CSV stays the source of truth; the view is just
// the typed window onto it.
type DuckDB struct {
	db     *sql.DB
	dir    string
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	views  map[string]bool
}

// NewDuckDB creates a DuckDB-backed source over the given CSV directory.
func NewDuckDB(dir string, log *logger.Logger) (*DuckDB, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot open data directory", err)
	}

	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s is not a directory", dir)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot open duckdb", err)
	}

	return &DuckDB{
		db:     db,
		dir:    dir,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		views:  map[string]bool{},
	}, nil
}

// Instruments implements DataSource.
func (d *DuckDB) Instruments() ([]Instrument, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "cannot list data directory", err)
	}

	var out []Instrument

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}

		out = append(out, Instrument{Code: strings.TrimSuffix(e.Name(), ".csv")})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out, nil
}

// ensureView creates the read_csv_auto view for one instrument once per
// source lifetime. Raw SQL: squirrel does not build CREATE VIEW, and the
// code is validated against codePattern before interpolation.
func (d *DuckDB) ensureView(code string) (string, error) {
	if !codePattern.MatchString(code) {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid instrument code %q", code)
	}

	view := "hist_" + code
	if d.views[code] {
		return view, nil
	}

	path := filepath.Join(d.dir, code+".csv")
	if _, err := os.Stat(path); err != nil {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "no history for %s", code)
	}

	d.logger.Debug("creating history view", zap.String("code", code), zap.String("path", path))

	query := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto('%s');`, view, path)

	if _, err := d.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "cannot create history view", err)
	}

	d.views[code] = true

	return view, nil
}

// History implements DataSource.
func (d *DuckDB) History(code string) ([]types.ChartPoint, error) {
	view, err := d.ensureView(code)
	if err != nil {
		return nil, err
	}

	query, args, err := d.sq.
		Select("time", "open", "high", "low", "close", "volume",
			"ma5", "ma10", "ma20", "bbi",
			"kdj_k", "kdj_d", "kdj_j",
			"macd_dif", "macd_dea", "macd",
			"buy", "sell").
		From(view).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "cannot build history query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "cannot query history", err)
	}
	defer rows.Close()

	var points []types.ChartPoint

	for rows.Next() {
		var (
			p          types.ChartPoint
			indicators [10]sql.NullFloat64
			buy, sell  sql.NullBool
		)

		dest := []any{&p.Time, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume}
		for i := range indicators {
			dest = append(dest, &indicators[i])
		}

		dest = append(dest, &buy, &sell)

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedPayload, "cannot scan history row", err)
		}

		p.Indicators = map[types.IndicatorType]optional.Option[float64]{}

		for i, name := range types.KnownIndicators() {
			if indicators[i].Valid {
				p.Indicators[name] = optional.Some(indicators[i].Float64)
			}
		}

		p.Buy = buy.Valid && buy.Bool
		p.Sell = sell.Valid && sell.Bool

		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "history scan aborted", err)
	}

	if err := types.ValidatePoints(points); err != nil {
		return nil, err
	}

	return points, nil
}

// Close implements DataSource.
func (d *DuckDB) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	return err
}
