// Package batch decodes many documents concurrently with a bounded worker
// pool. Results keep the order of the input paths.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"fiscal/internal/fiscal"
	"fiscal/internal/logger"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning" // decoded, but totals are inconsistent
	StatusError   = "error"
)

// DefaultWorkers is used when a non-positive worker count is given.
const DefaultWorkers = 8

// Result is the outcome for one file.
type Result struct {
	Index  int
	Path   string
	Raw    []byte
	Result *fiscal.Result
	Err    error
	Status string
}

// Filename returns the base name of the source path.
func (r Result) Filename() string {
	return filepath.Base(r.Path)
}

// Counts tallies results by status.
type Counts struct {
	Success int
	Warning int
	Error   int
}

// Count tallies results by status.
func Count(results []Result) Counts {
	var c Counts
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			c.Success++
		case StatusWarning:
			c.Warning++
		default:
			c.Error++
		}
	}
	return c
}

// ProgressFunc is called once per finished file, serialized.
type ProgressFunc func(done, total int, r Result)

// Processor runs a DocumentDecoder over a set of files.
type Processor struct {
	decoder  fiscal.DocumentDecoder
	workers  int
	progress ProgressFunc
}

// NewProcessor creates a processor using at most workers goroutines.
func NewProcessor(decoder fiscal.DocumentDecoder, workers int) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{decoder: decoder, workers: workers}
}

// OnProgress registers a progress callback.
func (p *Processor) OnProgress(fn ProgressFunc) *Processor {
	p.progress = fn
	return p
}

// Run decodes every path. Per-file failures are reported in the result, never
// as an error; the returned error is only the context's.
func (p *Processor) Run(ctx context.Context, paths []string) ([]Result, error) {
	log := logger.WithComponent("batch")
	results := make([]Result, len(paths))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			log.Debug().
				Int("index", i+1).
				Str("file", path).
				Msg("Processing document")

			result := p.processOne(gctx, path)
			result.Index = i
			results[i] = result

			mu.Lock()
			done++
			if p.progress != nil {
				p.progress(done, len(paths), result)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

func (p *Processor) processOne(ctx context.Context, path string) Result {
	result := Result{Path: path, Status: StatusError}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read file: %w", err)
		return result
	}
	result.Raw = raw

	decoded, err := p.decoder.Process(ctx, bytes.NewReader(raw))
	if err != nil {
		result.Err = err
		return result
	}

	result.Result = decoded
	result.Status = StatusSuccess
	if !decoded.Consistent() {
		result.Status = StatusWarning
	}
	return result
}

// FindXMLFiles returns every .xml file below root, sorted by path. root may
// also be a single file.
func FindXMLFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
