//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package count

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

// CountFetch fetches, for each feature, the alignments overlapping its span
// and counts the ones kept by Keep. Features are distributed over the
// workers; each worker opens its own Fetcher with open and is the only
// writer of the counts of the features it receives.
func (c *Counter) CountFetch(ctx context.Context, features []feature.Feature, open func() (esam.Fetcher, error)) (*Result, error) {
	res := newResult(len(features))
	stats := make([]Stats, c.opts.NumWorker)

	g, gctx := errgroup.WithContext(ctx)
	chFeat := make(chan int, c.opts.NumWorker*chanFactor)

	// Dispatch features
	g.Go(func() error {
		defer close(chFeat)
		timeLog := time.Now()
		for i := range features {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chFeat <- i:
			}
			if c.opts.VerboseLevel > 0 && time.Since(timeLog).Minutes() > 1. {
				c.logf("%s transcripts", AddCommas(strconv.Itoa(i)))
				timeLog = time.Now()
			}
		}
		return nil
	})

	// Workers
	for iw := 0; iw < c.opts.NumWorker; iw++ {
		ws := &stats[iw]
		g.Go(func() error {
			f, err := open()
			if err != nil {
				return err
			}
			defer f.Close()
			for i := range chFeat {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, err := c.countFeature(f, &features[i], ws, res)
				if err != nil {
					return err
				}
				res.Counts[i] = n
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, s := range stats {
		res.Stats.Add(s)
	}
	c.logf("Counted %s align. on %s transcripts", AddCommas(strconv.FormatUint(res.Stats.Counted, 10)), AddCommas(strconv.Itoa(len(features))))
	return res, nil
}

func (c *Counter) countFeature(f esam.Fetcher, feat *feature.Feature, stats *Stats, res *Result) (n uint64, err error) {
	it, err := f.Fetch(feat.Chrom, feat.Span.Start, feat.Span.End)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for it.Next() {
		r := it.Record()
		keep, err := c.Keep(feat, r, stats)
		if err != nil {
			return n, err
		}
		if keep {
			n++
			res.Reads.Add(r.Name)
		}
	}
	return n, it.Error()
}
