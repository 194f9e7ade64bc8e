// Command inventory-import bulk-loads stocktake exports into the
// inventory_snapshots table. Warehouse terminals export one gzipped CSV per
// counting session with lines of the form
//
//	department_code,product_code,quantity[,captured_at]
//
// Exports overlap between sessions, so lines already seen in this run are
// skipped with a bloom filter. Files are processed concurrently and rows are
// written in batches.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tradegate/orderdesk/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.000001
	batchSize     = 1000
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
		workers     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing stocktake-*.csv.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "number of files processed concurrently")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, workers); err != nil {
		slog.Error("inventory import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("inventory import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, workers int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "stocktake-*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list stocktake files")
	}
	if len(files) == 0 {
		return errors.Errorf("no stocktake-*.csv.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	departments, products, err := loadCodeMaps(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "load code maps")
	}

	slog.Info("importing stocktake files",
		slog.Int("files", len(files)),
		slog.Int("workers", workers),
	)

	imp := &importer{
		pool:        pool,
		departments: departments,
		products:    products,
		seen:        bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(imp.importFile(ctx, f))
	}
	return g.Wait()
}

// loadCodeMaps resolves human-facing codes from the exports to row IDs.
func loadCodeMaps(ctx context.Context, pool *pgxpool.Pool) (departments, products map[string]string, err error) {
	departments, err = loadCodeMap(ctx, pool, `SELECT code, id FROM departments`)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load departments")
	}
	products, err = loadCodeMap(ctx, pool, `SELECT code, id FROM products`)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load products")
	}
	return departments, products, nil
}

func loadCodeMap(ctx context.Context, pool *pgxpool.Pool, query string) (map[string]string, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var code, id string
		if err := rows.Scan(&code, &id); err != nil {
			return nil, err
		}
		m[code] = id
	}
	return m, rows.Err()
}

type snapshotRow struct {
	departmentID string
	productID    string
	quantity     decimal.Decimal
	capturedAt   time.Time
}

type importer struct {
	pool        *pgxpool.Pool
	departments map[string]string
	products    map[string]string

	// seen dedupes lines across all files in this run. The filter is shared
	// between file workers, so access goes through seenLine.
	seenMu sync.Mutex
	seen   *bloom.BloomFilter
}

func (imp *importer) seenLine(line string) bool {
	imp.seenMu.Lock()
	defer imp.seenMu.Unlock()
	return imp.seen.TestAndAddString(line)
}

func (imp *importer) importFile(ctx context.Context, path string) func() error {
	return func() error {
		name := filepath.Base(path)
		slog.Info("importing file", slog.String("file", name))

		var (
			batch    []snapshotRow
			total    uint64
			skipped  uint64
			inserted uint64
		)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := imp.insertBatch(ctx, batch); err != nil {
				return err
			}
			inserted += uint64(len(batch))
			batch = batch[:0]
			return nil
		}

		err := streamGzFile(ctx, path, func(line string) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("import progress",
					slog.String("file", name),
					slog.Uint64("lines", total),
				)
			}

			row, ok, err := imp.parseLine(line)
			if err != nil {
				return errors.Wrapf(err, "line %d", total)
			}
			if !ok {
				skipped++
				return nil
			}

			batch = append(batch, row)
			if len(batch) >= batchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "import %s", name)
		}
		if err := flush(); err != nil {
			return errors.Wrapf(err, "import %s", name)
		}

		slog.Info("file imported",
			slog.String("file", name),
			slog.Uint64("lines", total),
			slog.Uint64("inserted", inserted),
			slog.Uint64("skipped", skipped),
		)
		return nil
	}
}

// parseLine converts one CSV line to a snapshot row. Lines with unknown
// codes, bad quantities, or already-seen content are skipped (ok=false).
// Only a malformed timestamp is a hard error: it suggests the wrong file
// format rather than a stray bad record.
func (imp *importer) parseLine(line string) (snapshotRow, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return snapshotRow{}, false, nil
	}
	if imp.seenLine(line) {
		return snapshotRow{}, false, nil
	}

	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return snapshotRow{}, false, nil
	}

	departmentID, ok := imp.departments[fields[0]]
	if !ok {
		return snapshotRow{}, false, nil
	}
	productID, ok := imp.products[fields[1]]
	if !ok {
		return snapshotRow{}, false, nil
	}
	quantity, err := decimal.NewFromString(fields[2])
	if err != nil || quantity.IsNegative() {
		return snapshotRow{}, false, nil
	}

	capturedAt := time.Now().UTC()
	if len(fields) >= 4 && fields[3] != "" {
		capturedAt, err = time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return snapshotRow{}, false, errors.Wrap(err, "parse captured_at")
		}
	}

	return snapshotRow{
		departmentID: departmentID,
		productID:    productID,
		quantity:     quantity,
		capturedAt:   capturedAt,
	}, true, nil
}

const insertSnapshotSQL = `
	INSERT INTO inventory_snapshots (id, department_id, product_id, quantity, captured_at)
	VALUES ($1, $2, $3, $4, $5)`

func (imp *importer) insertBatch(ctx context.Context, rows []snapshotRow) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(insertSnapshotSQL,
			uuid.NewString(), r.departmentID, r.productID, r.quantity, r.capturedAt,
		)
	}
	return imp.pool.SendBatch(ctx, b).Close()
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
