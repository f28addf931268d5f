//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package count counts, per transcript, the alignments whose block structure
// is consistent with the transcript exons.
package count

import (
	"fmt"
	"time"

	"github.com/biogo/hts/sam"

	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

const (
	batchLength = 100
	chanFactor  = 10
)

type Options struct {
	// Minimum mapping quality (inclusive)
	MinMappingQuality byte
	Classifier        exon.Classifier
	NumWorker         int
	VerboseLevel      int
	TimeStart         time.Time
}

// Stats counts the alignment/transcript pairs examined.
type Stats struct {
	Alignments   uint64 `json:"align_examined"`
	Inconsistent uint64 `json:"align_inconsistent"`
	LowQuality   uint64 `json:"align_low_quality"`
	Counted      uint64 `json:"align_counted"`
}

func (s *Stats) Add(o Stats) {
	s.Alignments += o.Alignments
	s.Inconsistent += o.Inconsistent
	s.LowQuality += o.LowQuality
	s.Counted += o.Counted
}

type Result struct {
	// Counts per feature ID
	Counts []uint64
	Stats  Stats
	// Names of the counted reads
	Reads set.Interface
}

func newResult(nFeature int) *Result {
	return &Result{Counts: make([]uint64, nFeature), Reads: set.New(set.ThreadSafe)}
}

type Counter struct {
	opts Options
}

func NewCounter(opts Options) *Counter {
	if opts.NumWorker < 1 {
		opts.NumWorker = 1
	}
	if opts.TimeStart.IsZero() {
		opts.TimeStart = time.Now()
	}
	return &Counter{opts: opts}
}

// Keep returns true if the record is consistent with the feature exons and
// passes the mapping quality threshold. Stats are updated accordingly.
func (c *Counter) Keep(feat *feature.Feature, r *sam.Record, stats *Stats) (bool, error) {
	stats.Alignments++
	blocks := esam.Blocks(r)
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return false, fmt.Errorf("Alignment %s: %w", r.Name, err)
		}
	}
	if !c.opts.Classifier.Consistent(feat.Coords, blocks) {
		stats.Inconsistent++
		return false, nil
	}
	if r.MapQ < c.opts.MinMappingQuality {
		stats.LowQuality++
		return false, nil
	}
	stats.Counted++
	return true, nil
}

func (c *Counter) logf(format string, a ...interface{}) {
	if c.opts.VerboseLevel > 0 {
		fmt.Printf("%.1fmin - "+format+"\n", append([]interface{}{time.Since(c.opts.TimeStart).Minutes()}, a...)...)
	}
}

// AddCommas adds commas after every 3 characters.
func AddCommas(s string) string {
	if len(s) <= 3 {
		return s
	} else {
		return AddCommas(s[0:len(s)-3]) + "," + s[len(s)-3:]
	}
}
