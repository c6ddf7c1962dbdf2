// Command catalog-ingest imports gzipped CSV product feeds into the catalog.
//
// Feeds are passed in priority order: when the same product ID appears in
// several feeds, the earliest feed wins. Feeds can run to tens of millions of
// rows, so cross-feed duplicates are detected with per-feed bloom filters
// instead of an exact ID set. A false positive skips an upsert from a
// lower-priority feed; the tool is idempotent and re-runnable, so that is an
// acceptable trade for bounded memory.
//
// CSV columns: id,name,description,price,stock,category_id,image_url.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gyshop/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	feedColumns   = 7
)

type feedRow struct {
	id          string
	name        string
	description string
	price       decimal.Decimal
	stock       int
	categoryID  string
	imageURL    string
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one feed file is required: catalog-ingest [flags] feed1.csv.gz [feed2.csv.gz ...]")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, files []string, databaseURL string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter per feed, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("feeds", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: stream feeds in priority order and upsert rows not already
	// claimed by a higher-priority feed.
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	for i, f := range files {
		if err := ingestFeed(ctx, pool, i, f, filters); err != nil {
			return errors.Wrapf(err, "ingest feed %s", f)
		}
	}

	return nil
}

func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamFeed(ctx, path, func(row feedRow) error {
			filter.AddString(row.id)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress", slog.Int("feed", idx+1), slog.Uint64("rows", count))
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete", slog.Int("feed", idx+1), slog.Uint64("total_rows", count))

		filters[idx] = filter
		return nil
	}
}

const upsertProductSQL = `
INSERT INTO products (id, name, description, price, stock_quantity, category_id, is_active, image_url)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), TRUE, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity,
    category_id = EXCLUDED.category_id,
    image_url = EXCLUDED.image_url`

func ingestFeed(ctx context.Context, pool *pgxpool.Pool, idx int, path string, filters []*bloom.BloomFilter) error {
	var written, skipped uint64

	if err := streamFeed(ctx, path, func(row feedRow) error {
		// Skip rows claimed by a higher-priority feed.
		for j := range idx {
			if filters[j].TestString(row.id) {
				skipped++
				return nil
			}
		}

		if _, err := pool.Exec(ctx, upsertProductSQL,
			row.id, row.name, row.description, row.price, row.stock, row.categoryID, row.imageURL,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", row.id)
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("pass 2 progress", slog.Int("feed", idx+1), slog.Uint64("written", written))
		}
		return nil
	}); err != nil {
		return err
	}

	slog.Info("pass 2 complete",
		slog.Int("feed", idx+1),
		slog.Uint64("written", written),
		slog.Uint64("skipped", skipped),
	)

	return nil
}

// streamFeed opens a gzipped CSV feed and calls fn for each parsed row.
// Malformed rows abort the ingest so a broken feed is noticed, not silently
// half-imported.
func streamFeed(ctx context.Context, path string, fn func(row feedRow) error) error {
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

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = feedColumns
	reader.ReuseRecord = true

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s line %d", path, line)
		}

		row, err := parseRow(record)
		if err != nil {
			return errors.Wrapf(err, "parse %s line %d", path, line)
		}

		if err := fn(row); err != nil {
			return err
		}
	}
}

func parseRow(record []string) (feedRow, error) {
	price, err := decimal.NewFromString(record[3])
	if err != nil {
		return feedRow{}, errors.Wrap(err, "parse price")
	}
	if price.IsNegative() {
		return feedRow{}, errors.New("negative price")
	}

	stock, err := strconv.Atoi(record[4])
	if err != nil {
		return feedRow{}, errors.Wrap(err, "parse stock")
	}
	if stock < 0 {
		return feedRow{}, errors.New("negative stock")
	}

	if record[0] == "" {
		return feedRow{}, errors.New("empty product ID")
	}
	if record[1] == "" {
		return feedRow{}, errors.New("empty product name")
	}

	return feedRow{
		id:          record[0],
		name:        record[1],
		description: record[2],
		price:       price,
		stock:       stock,
		categoryID:  record[5],
		imageURL:    record[6],
	}, nil
}
