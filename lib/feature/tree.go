//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"sort"

	"github.com/biogo/store/interval"
)

// Trees indexes feature spans per chromosome.
type Trees map[string]*interval.IntTree

// BuildFeatTrees builds a tree of features: the span of each feature is added to the tree of its chromosome.
// Empty spans can't overlap anything and are left out.
func BuildFeatTrees(features []Feature) (trees Trees, err error) {
	trees = make(Trees)
	for _, feat := range features {
		if feat.Span.Length() == 0 {
			continue
		}
		// New tree for unseen chromosome
		tree, ok := trees[feat.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			trees[feat.Chrom] = tree
		}
		// Inserting interval
		iv := IntInterval{Start: feat.Span.Start, End: feat.Span.End, UID: uintptr(feat.ID), FeatureID: feat.ID}
		if err = tree.Insert(iv, true); err != nil {
			return
		}
	}
	for _, tree := range trees {
		tree.AdjustRanges()
	}
	return
}

// Overlap returns the IDs of the features overlapping [start,end) on chrom, in ascending order.
func (trees Trees) Overlap(chrom string, start, end int) []uint32 {
	tree, ok := trees[chrom]
	if !ok || start >= end {
		return nil
	}
	hits := tree.Get(IntInterval{Start: start, End: end})
	ids := make([]uint32, len(hits))
	for i, h := range hits {
		ids[i] = h.(IntInterval).FeatureID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
