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
)

// DefaultTolerance is the coordinate slack applied at every boundary comparison.
const DefaultTolerance = 1

// Interval is a genomic interval on one reference sequence (0-based [Start,End)).
type Interval struct {
	Start, End int
}

// Length returns the number of positions covered by the interval.
func (iv Interval) Length() int {
	return iv.End - iv.Start
}

// Validate checks the interval is well-formed.
func (iv Interval) Validate() error {
	if iv.Start < 0 || iv.End < 0 {
		return fmt.Errorf("Negative coordinate in interval %s", iv)
	}
	if iv.Start > iv.End {
		return fmt.Errorf("Start after end in interval %s", iv)
	}
	return nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.End)
}

// Within returns true if point is inside iv padded by tolerance on both sides.
func Within(point int, iv Interval, tolerance int) bool {
	return iv.Start-tolerance <= point && point <= iv.End+tolerance
}

// Contains returns true if b is inside iv padded by tolerance on both sides.
func Contains(iv Interval, b Interval, tolerance int) bool {
	return b.Start >= iv.Start-tolerance && b.End <= iv.End+tolerance
}
