//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package exon

import (
	"fmt"
	"strings"
)

type JunctionMode int

const (
	// JunctionAny accepts a block gap matching any pair of consecutive exons.
	JunctionAny JunctionMode = iota
	// JunctionIndexed requires the gap to start at an exon containing the
	// block and to end at the next exon.
	JunctionIndexed
)

func (m JunctionMode) String() string {
	switch m {
	case JunctionAny:
		return "any"
	case JunctionIndexed:
		return "indexed"
	}
	return fmt.Sprintf("JunctionMode(%d)", int(m))
}

// ParseJunctionMode parses "any" or "indexed".
func ParseJunctionMode(raw string) (JunctionMode, error) {
	switch strings.ToLower(raw) {
	case "", "any":
		return JunctionAny, nil
	case "indexed":
		return JunctionIndexed, nil
	}
	return JunctionAny, fmt.Errorf("Unknown junction mode %q", raw)
}

// Classifier decides if the block structure of an alignment is compatible
// with the exon structure of a transcript.
type Classifier struct {
	Tolerance int
	Mode      JunctionMode
}

// NewClassifier returns a Classifier with the default tolerance and junction mode.
func NewClassifier() Classifier {
	return Classifier{Tolerance: DefaultTolerance, Mode: JunctionAny}
}

// Consistent classifies blocks against exons using the classifier settings.
func (c Classifier) Consistent(exons, blocks []Interval) bool {
	if c.Mode == JunctionIndexed {
		return ConsistentIndexed(exons, blocks, c.Tolerance)
	}
	return Consistent(exons, blocks, c.Tolerance)
}

// Consistent returns true if every block is contained in an exon and every
// gap between consecutive blocks matches a pair of consecutive exons.
// Blocks and exons are both in left-to-right order. An empty block list is
// consistent.
func Consistent(exons, blocks []Interval, tolerance int) bool {
	for i, b := range blocks {
		if !contained(exons, b, tolerance) {
			return false
		}
		if i+1 < len(blocks) && !junction(exons, b, blocks[i+1], tolerance) {
			return false
		}
	}
	return true
}

// ConsistentIndexed is Consistent where the gap after block i must start at
// the end of an exon containing block i and end at the start of the exon
// immediately following it.
func ConsistentIndexed(exons, blocks []Interval, tolerance int) bool {
	for i, b := range blocks {
		found := false
		for j, e := range exons {
			if !Contains(e, b, tolerance) {
				continue
			}
			found = true
			if i+1 == len(blocks) {
				break
			}
			if j+1 < len(exons) && junctionAt(exons[j], exons[j+1], b, blocks[i+1], tolerance) {
				break
			}
			found = false
		}
		if !found {
			return false
		}
	}
	return true
}

func contained(exons []Interval, b Interval, tolerance int) bool {
	for _, e := range exons {
		if Contains(e, b, tolerance) {
			return true
		}
	}
	return false
}

func junction(exons []Interval, b, bNext Interval, tolerance int) bool {
	for j := 0; j+1 < len(exons); j++ {
		if junctionAt(exons[j], exons[j+1], b, bNext, tolerance) {
			return true
		}
	}
	return false
}

func junctionAt(e, eNext, b, bNext Interval, tolerance int) bool {
	return Within(b.End, Interval{e.End, e.End}, tolerance) && Within(bNext.Start, Interval{eNext.Start, eNext.Start}, tolerance)
}
