package main

import (
	"bufio"
	"cmp"
	"context"
	"log/slog"
	"math/bits"
	"os"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/foodhub/internal/domain/offer"
)

const (
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 4
	maxCodeLen    = 32
	maxFiles      = bits.UintSize
)

type importConfig struct {
	// MinSources is how many lists must contain a code for it to be accepted.
	MinSources    int
	ExpectedCodes uint
	DefaultAmount decimal.Decimal
	BatchSize     int
}

// entry is one parsed "CODE[,AMOUNT]" line.
type entry struct {
	code   string
	amount decimal.Decimal
	// hasAmount is false when the line omits the amount.
	hasAmount bool
}

// parseLine reports ok=false for blank, comment, malformed or out of range
// lines.
func parseLine(line string) (entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return entry{}, false
	}

	rawCode, rawAmount, hasAmount := strings.Cut(line, ",")
	code := offer.NormalizeCode(rawCode)
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return entry{}, false
	}

	e := entry{code: code}
	if hasAmount {
		amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
		if err != nil || amount.IsNegative() {
			return entry{}, false
		}
		e.amount, e.hasAmount = amount.Round(2), true
	}
	return e, true
}

// fileResult holds the codes of one list that may reach MinSources.
type fileResult struct {
	masks   map[string]uint
	amounts map[string]decimal.Decimal
}

// collectCoupons returns the codes present in at least cfg.MinSources of the
// given gzip lists, sorted by code.
func collectCoupons(ctx context.Context, files []string, cfg importConfig) ([]offer.Coupon, error) {
	if len(files) > maxFiles {
		return nil, errors.Errorf("at most %d lists are supported, got %d", maxFiles, len(files))
	}
	if cfg.MinSources < 1 || cfg.MinSources > len(files) {
		return nil, errors.Errorf("min sources must be within [1, %d], got %d", len(files), cfg.MinSources)
	}

	// Pass 1: Build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files, cfg.ExpectedCodes)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: Keep codes that the other filters may also contain.
	slog.Info("pass 2: finding candidate codes")

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := findCandidates(gctx, i, f, filters, cfg.MinSources)
			if err != nil {
				return errors.Wrapf(err, "scan file %d for candidates", i+1)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "find candidates")
	}

	return mergeResults(results, cfg), nil
}

// mergeResults confirms candidates exactly. Bloom false positives never
// survive because every list reports the codes it really contains.
func mergeResults(results []fileResult, cfg importConfig) []offer.Coupon {
	masks := make(map[string]uint)
	amounts := make(map[string]decimal.Decimal)
	for _, r := range results {
		for code, mask := range r.masks {
			masks[code] |= mask
		}
		for code, amount := range r.amounts {
			if prev, ok := amounts[code]; !ok || amount.GreaterThan(prev) {
				amounts[code] = amount
			}
		}
	}

	var coupons []offer.Coupon
	for code, mask := range masks {
		if bits.OnesCount(mask) < cfg.MinSources {
			continue
		}
		amount, ok := amounts[code]
		if !ok {
			amount = cfg.DefaultAmount
		}
		coupons = append(coupons, offer.Coupon{Code: code, Amount: amount})
	}
	slices.SortFunc(coupons, func(a, b offer.Coupon) int { return cmp.Compare(a.Code, b.Code) })
	return coupons
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string, expected uint) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(expected, bloomFPR)
			var count uint64

			if err := streamGzFile(ctx, f, func(e entry) {
				filter.AddString(e.code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "build filter for file %d", i+1)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func findCandidates(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter, minSources int) (fileResult, error) {
	res := fileResult{
		masks:   make(map[string]uint),
		amounts: make(map[string]decimal.Decimal),
	}
	fileBit := uint(1) << uint(idx)
	var count uint64

	err := streamGzFile(ctx, path, func(e entry) {
		count++
		if count%progressEvery == 0 {
			slog.Info("pass 2 progress", slog.Int("file", idx+1), slog.Uint64("codes", count))
		}

		others := 0
		for j, f := range filters {
			if j != idx && f.TestString(e.code) {
				others++
			}
		}
		if others+1 < minSources {
			return
		}

		res.masks[e.code] |= fileBit
		if e.hasAmount {
			if prev, ok := res.amounts[e.code]; !ok || e.amount.GreaterThan(prev) {
				res.amounts[e.code] = e.amount
			}
		}
	})
	if err != nil {
		return fileResult{}, err
	}

	slog.Info("pass 2 complete",
		slog.Int("file", idx+1),
		slog.Uint64("total_codes", count),
		slog.Int("candidates", len(res.masks)),
	)
	return res, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each valid line.
func streamGzFile(ctx context.Context, path string, fn func(e entry)) error {
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
		if e, ok := parseLine(scanner.Text()); ok {
			fn(e)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeBatches hands coupons to upsert in chunks of at most size.
func writeBatches(ctx context.Context, coupons []offer.Coupon, size int, upsert func(context.Context, []offer.Coupon) error) error {
	if size < 1 {
		size = len(coupons)
	}
	slog.Info("writing coupons to database", slog.Int("count", len(coupons)))

	written := 0
	for batch := range slices.Chunk(coupons, size) {
		if err := upsert(ctx, batch); err != nil {
			return errors.Wrapf(err, "upsert batch at %d", written)
		}
		written += len(batch)
		slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(coupons)))
	}
	return nil
}
