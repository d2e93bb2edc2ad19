package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wearly/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	batchSize     = 1000
)

// feedProduct is one line of a supplier feed: gzip-compressed JSONL with one
// product per line.
type feedProduct struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	Stock    int
	ImageURL string
}

// feedResult holds the products parsed from a single feed file.
type feedResult struct {
	products []feedProduct
}

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "feeds", "directory containing supplier *.jsonl.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(feedDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz feed files in %s", feedDir)
	}
	// Deterministic precedence: earlier files win on duplicate product ids.
	sort.Strings(files)

	slog.Info("parsing supplier feeds", slog.Int("files", len(files)))

	results, err := parseFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	products := dedupe(results)
	slog.Info("products after dedupe", slog.Int("count", len(products)))

	if len(products) == 0 {
		slog.Info("no products to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeProducts(ctx, pool, products); err != nil {
		return errors.Wrap(err, "write products to database")
	}

	return nil
}

// parseFeeds streams every feed file concurrently. Within a file duplicate
// ids are filtered with a bloom filter so oversized feeds do not blow memory
// on an exact seen-set.
func parseFeeds(ctx context.Context, files []string) ([]feedResult, error) {
	results := make([]feedResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFeedFile(ctx, i, f, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseFeedFile(ctx context.Context, idx int, path string, results []feedResult) func() error {
	return func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var (
			products []feedProduct
			count    uint64
			skipped  uint64
		)

		if err := streamGzLines(ctx, path, func(line []byte) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", count),
				)
			}

			p, err := decodeFeedLine(line)
			if err != nil {
				return errors.Wrapf(err, "line %d", count)
			}
			if p.ID == "" || p.Name == "" {
				skipped++
				return nil
			}
			if seen.TestString(p.ID) {
				skipped++
				return nil
			}
			seen.AddString(p.ID)
			products = append(products, p)
			return nil
		}); err != nil {
			return errors.Wrapf(err, "parse feed %s", path)
		}

		slog.Info("feed parsed",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("lines", count),
			slog.Int("products", len(products)),
			slog.Uint64("skipped", skipped),
		)

		results[idx] = feedResult{products: products}
		return nil
	}
}

// decodeFeedLine decodes one JSONL product record.
func decodeFeedLine(line []byte) (feedProduct, error) {
	var p feedProduct
	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			p.ID = v
			return err
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "category":
			v, err := d.Str()
			p.Category = v
			return err
		case "price":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			p.Price, err = decimal.NewFromString(unquote(raw))
			return err
		case "stock":
			v, err := d.Int()
			p.Stock = v
			return err
		case "imageUrl":
			v, err := d.Str()
			p.ImageURL = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return feedProduct{}, err
	}
	return p, nil
}

// unquote strips surrounding quotes so feeds may send price as either a JSON
// number or a string.
func unquote(raw jx.Raw) string {
	s := string(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// dedupe merges per-file results preserving file order precedence.
func dedupe(results []feedResult) []feedProduct {
	var merged []feedProduct
	taken := make(map[string]struct{})
	for _, r := range results {
		for _, p := range r.products {
			if _, ok := taken[p.ID]; ok {
				continue
			}
			taken[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
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
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeProducts upserts products in batches.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, products []feedProduct) error {
	slog.Info("writing products to database", slog.Int("count", len(products)))

	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))

		batch := &pgx.Batch{}
		for _, p := range products[start:end] {
			batch.Queue(`
				INSERT INTO products (id, name, category, price, stock, image_url)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					category = EXCLUDED.category,
					price = EXCLUDED.price,
					stock = EXCLUDED.stock,
					image_url = EXCLUDED.image_url`,
				p.ID, p.Name, p.Category, p.Price, p.Stock, p.ImageURL,
			)
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "upsert batch at %d", start)
		}

		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(products)))
	}

	return nil
}
