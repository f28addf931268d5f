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
	"io"
	"strconv"
	"time"

	"github.com/biogo/hts/sam"

	"golang.org/x/sync/errgroup"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

type partial struct {
	counts []uint64
	stats  Stats
}

// CountStream reads all the records of rr once. Each mapped record is matched
// to the features whose span it overlaps and counted like in CountFetch.
// Records don't need to be sorted.
func (c *Counter) CountStream(ctx context.Context, rr sam.RecordReader, features []feature.Feature) (*Result, error) {
	trees, err := feature.BuildFeatTrees(features)
	if err != nil {
		return nil, err
	}
	res := newResult(len(features))

	g, gctx := errgroup.WithContext(ctx)
	chAln := make(chan []*sam.Record, c.opts.NumWorker*chanFactor)
	chFinal := make(chan *partial, c.opts.NumWorker)

	// Read alignments
	g.Go(func() error {
		defer close(chAln)
		timeLog := time.Now()
		var nAlign uint64
		batch := make([]*sam.Record, 0, batchLength)
		for {
			r, err := rr.Read()
			if err == io.EOF {
				break
			} else if err != nil {
				return err
			}
			nAlign++
			if !esam.IsMapped(r) {
				continue
			}
			batch = append(batch, r)
			if len(batch) == batchLength {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case chAln <- batch:
				}
				batch = make([]*sam.Record, 0, batchLength)
			}
			if c.opts.VerboseLevel > 0 && time.Since(timeLog).Minutes() > 1. {
				c.logf("%s align.", AddCommas(strconv.FormatUint(nAlign, 10)))
				timeLog = time.Now()
			}
		}
		// Send last batch
		if len(batch) > 0 {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chAln <- batch:
			}
		}
		return nil
	})

	// Workers
	wg, wgctx := errgroup.WithContext(gctx)
	for iw := 0; iw < c.opts.NumWorker; iw++ {
		wg.Go(func() error {
			p := &partial{counts: make([]uint64, len(features))}
			for batch := range chAln {
				if err := wgctx.Err(); err != nil {
					return err
				}
				for _, r := range batch {
					for _, id := range trees.Overlap(r.Ref.Name(), r.Start(), r.End()) {
						keep, err := c.Keep(&features[id], r, &p.stats)
						if err != nil {
							return err
						}
						if keep {
							p.counts[id]++
							res.Reads.Add(r.Name)
						}
					}
				}
			}
			select {
			case <-wgctx.Done():
				return wgctx.Err()
			case chFinal <- p:
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(chFinal)
		return wg.Wait()
	})

	// Combine data from workers
	for p := range chFinal {
		for i, n := range p.counts {
			res.Counts[i] += n
		}
		res.Stats.Add(p.stats)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logf("Counted %s align. on %s transcripts", AddCommas(strconv.FormatUint(res.Stats.Counted, 10)), AddCommas(strconv.Itoa(len(features))))
	return res, nil
}
