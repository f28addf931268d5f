//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package exon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinBoundaries(t *testing.T) {
	iv := Interval{10, 20}
	for _, tol := range []int{0, 1, 5} {
		for p := iv.Start; p <= iv.End; p++ {
			assert.True(t, Within(p, iv, tol), "p=%d t=%d", p, tol)
		}
		assert.True(t, Within(iv.Start-tol, iv, tol))
		assert.True(t, Within(iv.End+tol, iv, tol))
		assert.False(t, Within(iv.Start-tol-1, iv, tol))
		assert.False(t, Within(iv.End+tol+1, iv, tol))
	}
}

func TestIntervalValidate(t *testing.T) {
	assert.NoError(t, Interval{0, 0}.Validate())
	assert.NoError(t, Interval{5, 10}.Validate())
	assert.Error(t, Interval{10, 5}.Validate())
	assert.Error(t, Interval{-1, 5}.Validate())
	assert.Equal(t, 5, Interval{5, 10}.Length())
	assert.Equal(t, "[5,10)", Interval{5, 10}.String())
}

var twoExons = []Interval{{100, 200}, {300, 500}}

func TestConsistent(t *testing.T) {
	tests := []struct {
		name   string
		exons  []Interval
		blocks []Interval
		want   bool
	}{
		{"single block inside first exon", twoExons, []Interval{{105, 195}}, true},
		{"single block inside second exon", twoExons, []Interval{{350, 420}}, true},
		{"single block inside exon far from others", []Interval{{100, 200}, {10000, 10100}}, []Interval{{120, 180}}, true},
		{"single block outside exons", twoExons, []Interval{{210, 290}}, false},
		{"single block spanning intron", twoExons, []Interval{{150, 350}}, false},
		{"single block within tolerance", twoExons, []Interval{{99, 201}}, true},
		{"single block beyond tolerance", twoExons, []Interval{{98, 200}}, false},
		{"exact junction", twoExons, []Interval{{100, 200}, {300, 500}}, true},
		{"partial exons exact junction", twoExons, []Interval{{150, 200}, {300, 340}}, true},
		{"junction within tolerance", twoExons, []Interval{{150, 201}, {299, 340}}, true},
		{"junction beyond tolerance", twoExons, []Interval{{150, 197}, {303, 340}}, false},
		{"deletion inside exon", twoExons, []Interval{{110, 150}, {160, 200}}, false},
		{"single exon spliced", []Interval{{100, 500}}, []Interval{{100, 200}, {300, 500}}, false},
		{"no blocks", twoExons, nil, true},
		{"no exons", nil, []Interval{{100, 200}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Consistent(tt.exons, tt.blocks, DefaultTolerance))
		})
	}
}

func TestConsistentToleranceOverride(t *testing.T) {
	blocks := []Interval{{150, 197}, {303, 340}}
	assert.False(t, Consistent(twoExons, blocks, 1))
	assert.True(t, Consistent(twoExons, blocks, 3))
	assert.False(t, Consistent(twoExons, []Interval{{100, 200}, {301, 500}}, 0))
}

func TestJunctionModes(t *testing.T) {
	blocks := []Interval{{150, 200}, {500, 550}}

	// Block 1 is contained in exons 0 and 2; only the (2,3) pair has the
	// 200/500 junction, and it starts at a containing exon.
	exons := []Interval{{100, 200}, {300, 400}, {150, 200}, {500, 600}}
	assert.True(t, Consistent(exons, blocks, 0))
	assert.True(t, ConsistentIndexed(exons, blocks, 0))

	// Block 1 is contained in exon 0 only; the 200/500 junction exists only
	// as the pair (3,4), which does not start at a containing exon.
	exons = []Interval{{140, 200}, {400, 450}, {600, 700}, {190, 200}, {500, 600}}
	assert.True(t, Consistent(exons, blocks, 0))
	assert.False(t, ConsistentIndexed(exons, blocks, 0))

	// Both modes agree on ordinary transcripts.
	for _, b := range [][]Interval{
		{{100, 200}, {300, 500}},
		{{120, 200}},
		{{150, 197}, {303, 340}},
		{{100, 500}},
	} {
		assert.Equal(t, Consistent(twoExons, b, 1), ConsistentIndexed(twoExons, b, 1), "%v", b)
	}
	assert.True(t, ConsistentIndexed(twoExons, nil, 1))
	assert.False(t, ConsistentIndexed([]Interval{{100, 500}}, []Interval{{100, 200}, {300, 500}}, 1))
}

func TestClassifier(t *testing.T) {
	c := NewClassifier()
	assert.Equal(t, DefaultTolerance, c.Tolerance)
	assert.Equal(t, JunctionAny, c.Mode)
	assert.True(t, c.Consistent(twoExons, []Interval{{100, 200}, {300, 500}}))

	exons := []Interval{{140, 200}, {400, 450}, {600, 700}, {190, 200}, {500, 600}}
	blocks := []Interval{{150, 200}, {500, 550}}
	c.Tolerance = 0
	assert.True(t, c.Consistent(exons, blocks))
	c.Mode = JunctionIndexed
	assert.False(t, c.Consistent(exons, blocks))
	assert.True(t, c.Consistent(twoExons, []Interval{{100, 200}, {300, 500}}))
}

func TestParseJunctionMode(t *testing.T) {
	m, err := ParseJunctionMode("indexed")
	require.NoError(t, err)
	assert.Equal(t, JunctionIndexed, m)
	m, err = ParseJunctionMode("")
	require.NoError(t, err)
	assert.Equal(t, JunctionAny, m)
	assert.Equal(t, "any", m.String())
	_, err = ParseJunctionMode("strict")
	assert.Error(t, err)
}
