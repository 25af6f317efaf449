package deadscan

import (
	"context"
	"fmt"
	"sync"
)

// scanItem is one file queued for a reference worker. index is the file's
// position in the walk order and decides where its tally is merged.
type scanItem struct {
	index int
	file  SourceFile
}

type scanResult struct {
	item  scanItem
	tally Tally
	err   error
}

// scanParallel runs the reference pass with a worker pool:
//
//	Phase A: queue every file.
//	Phase B: workers scan files into independent per-file tallies.
//	Phase C: a single goroutine collects tallies and merges them in walk
//	         order, so counts and reference order match the serial scan.
func (a *Analyzer) scanParallel(ctx context.Context, files []SourceFile, names NameSet) (Tally, error) {
	// ---- Phase A: queue ----
	numWorkers := min(a.workers, len(files))

	workCh := make(chan scanItem, len(files))
	for i, f := range files {
		workCh <- scanItem{index: i, file: f}
	}
	close(workCh)

	// ---- Phase B: parallel scan ----
	resultCh := make(chan scanResult, len(files))
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- scanResult{item: item, err: err}
					continue
				}
				t, err := a.scanner.Scan(ctx, item.file, names, a.collectRefs, a.warn)
				resultCh <- scanResult{item: item, tally: t, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: ordered merge ----
	tallies := make([]Tally, len(files))
	var errs []error
	done := 0
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("deadscan: scan %s: %w", res.item.file.Path, res.err))
			continue
		}
		tallies[res.item.index] = res.tally
		a.fileScanned(done, len(files), res.item.file)
		done++
	}

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	if len(errs) > 0 {
		return Tally{}, fmt.Errorf("parallel scan had %d error(s): %w", len(errs), errs[0])
	}

	total := Tally{Counts: make(Counts)}
	for _, t := range tallies {
		total.Merge(t)
	}
	return total, nil
}
