//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/count"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

const (
	modeFetch  = "fetch"
	modeStream = "stream"
)

// CountOnFeatures counts the alignments of all inputs on features. Counts of
// successive inputs are added.
func CountOnFeatures(ctx context.Context, counter *count.Counter, pathSAMs []esam.PathSAM, SAMCmdIn []string, features []feature.Feature, countMode string, nWorker int, timeStart time.Time, verboseLevel int) (*count.Result, error) {
	total := &count.Result{Counts: make([]uint64, len(features)), Reads: set.New(set.ThreadSafe)}
	for _, pathSAM := range pathSAMs {
		if verboseLevel > 0 {
			fmt.Printf("%.1fmin - Counting %s (%s)\n", time.Since(timeStart).Minutes(), pathSAM.Path, countMode)
		}
		res, err := countInput(ctx, counter, pathSAM, SAMCmdIn, features, countMode, nWorker, timeStart, verboseLevel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pathSAM.Path, err)
		}
		for i, n := range res.Counts {
			total.Counts[i] += n
		}
		total.Stats.Add(res.Stats)
		total.Reads.Merge(res.Reads)
	}
	return total, nil
}

func countInput(ctx context.Context, counter *count.Counter, pathSAM esam.PathSAM, SAMCmdIn []string, features []feature.Feature, countMode string, nWorker int, timeStart time.Time, verboseLevel int) (*count.Result, error) {
	// Indexed BAM: each worker gets its own reader
	if pathSAM.Binary && countMode == modeFetch {
		indexPath, built, err := esam.EnsureIndex(pathSAM.Path)
		if err != nil {
			return nil, err
		}
		if built && verboseLevel > 0 {
			fmt.Printf("%.1fmin - Built index %s\n", time.Since(timeStart).Minutes(), indexPath)
		}
		return counter.CountFetch(ctx, features, func() (esam.Fetcher, error) {
			return esam.OpenIndexedBAM(pathSAM.Path, indexPath)
		})
	}

	rr, _, closer, err := esam.OpenSAM(pathSAM, SAMCmdIn, nWorker)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	if countMode == modeStream {
		return counter.CountStream(ctx, rr, features)
	}
	// Text SAM: loaded in memory and shared by workers
	rs, err := esam.ReadRecordSet(rr)
	if err != nil {
		return nil, err
	}
	return counter.CountFetch(ctx, features, func() (esam.Fetcher, error) { return rs, nil })
}
