// Package blocklist screens payment instruments against known-bad lists
// before they reach a payment provider.
//
// Lists are gzip-compressed text files with one instrument per line. Blank
// lines and lines starting with '#' are ignored. Membership is tracked in a
// bloom filter, so a small fraction of clean instruments may be reported as
// blocked; the rate is set by Options.FalsePositiveRate.
package blocklist

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options sizes the underlying bloom filter.
type Options struct {
	Capacity          uint
	FalsePositiveRate float64
}

func (o *Options) setDefaults() {
	if o.Capacity == 0 {
		o.Capacity = 1_000_000
	}
	if o.FalsePositiveRate <= 0 {
		o.FalsePositiveRate = 0.001
	}
}

// Blocklist is a set of blocked instruments. It is safe for concurrent use.
type Blocklist struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// New returns an empty Blocklist.
func New(opts Options) *Blocklist {
	opts.setDefaults()
	return &Blocklist{filter: bloom.NewWithEstimates(opts.Capacity, opts.FalsePositiveRate)}
}

// Load reads every file concurrently into a new Blocklist.
func Load(ctx context.Context, opts Options, paths ...string) (*Blocklist, error) {
	opts.setDefaults()
	filters := make([]*bloom.BloomFilter, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f := bloom.NewWithEstimates(opts.Capacity, opts.FalsePositiveRate)
			n, err := streamGzFile(ctx, path, func(instrument string) {
				f.AddString(instrument)
			})
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			zctx.From(ctx).Info("Blocklist file loaded",
				zap.String("path", path),
				zap.Int("instruments", n),
			)
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bl := New(opts)
	for i, f := range filters {
		if err := bl.filter.Merge(f); err != nil {
			return nil, errors.Wrapf(err, "merge %s", paths[i])
		}
	}
	return bl, nil
}

// Add blocks instrument.
func (b *Blocklist) Add(instrument string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.AddString(normalize(instrument))
}

// Contains reports whether instrument is (probably) blocked.
func (b *Blocklist) Contains(instrument string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter.TestString(normalize(instrument))
}

func normalize(instrument string) string {
	return strings.TrimSpace(instrument)
}

// streamGzFile calls fn for every instrument line in a gzip file and returns
// the number of instruments read.
func streamGzFile(ctx context.Context, path string, fn func(instrument string)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var count int
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		line := normalize(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(line)
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, errors.Wrap(err, "scan")
	}

	return count, nil
}
