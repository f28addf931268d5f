//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
)

// Feature is a transcript: a span on a chromosome and its exons in file order.
type Feature struct {
	ID     uint32
	Name   string
	Chrom  string
	Strand int8
	Span   exon.Interval
	Coords []exon.Interval
}

// Length returns the length of feature
func (feat Feature) Length() (length int) {
	for _, coord := range feat.Coords {
		length += coord.Length()
	}
	return
}

// Builder accumulates transcripts and exons, and returns them as a list of
// Feature ordered by first appearance. Each Feature ID is its index in the list.
type Builder struct {
	features []Feature
	index    map[string]int
}

func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddTranscript registers a new transcript.
func (b *Builder) AddTranscript(name, chrom string, strand int8, span exon.Interval) error {
	if name == "" {
		return fmt.Errorf("Transcript without name on %s", chrom)
	}
	if _, ok := b.index[name]; ok {
		return fmt.Errorf("Duplicate transcript %s", name)
	}
	if err := span.Validate(); err != nil {
		return fmt.Errorf("Transcript %s: %w", name, err)
	}
	b.index[name] = len(b.features)
	b.features = append(b.features, Feature{ID: uint32(len(b.features)), Name: name, Chrom: chrom, Strand: strand, Span: span})
	return nil
}

// AddExon appends an exon to an already registered transcript.
func (b *Builder) AddExon(name, chrom string, coord exon.Interval) error {
	i, ok := b.index[name]
	if !ok {
		return fmt.Errorf("Exon %s of unknown transcript %s", coord, name)
	}
	if b.features[i].Chrom != chrom {
		return fmt.Errorf("Exon %s of transcript %s on %s instead of %s", coord, name, chrom, b.features[i].Chrom)
	}
	if err := coord.Validate(); err != nil {
		return fmt.Errorf("Transcript %s: %w", name, err)
	}
	b.features[i].Coords = append(b.features[i].Coords, coord)
	return nil
}

// Len returns the number of transcripts added so far.
func (b *Builder) Len() int {
	return len(b.features)
}

// Features returns the list of features. The builder is reset and must not
// be used to complete the returned features.
func (b *Builder) Features() []Feature {
	features := b.features
	b.features = nil
	b.index = make(map[string]int)
	return features
}

// openInput opens a file for reading, decompressing it if its name ends with ".gz".
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.f.Close(); err == nil {
		err = ferr
	}
	return err
}

// OpenFON parses a "Feature Object Notation" string and returns a list of Feature
func OpenFON(jpath, fonName, fonChrom, fonStrand, fonCoords string) (features []Feature, err error) {
	jfos, err := openInput(jpath)
	if err != nil {
		return
	}
	defer jfos.Close()
	return ReadFON(jfos, fonName, fonChrom, fonStrand, fonCoords)
}

// ReadFON reads FON features. The span of each feature goes from its first
// to its last coordinate.
func ReadFON(r io.Reader, fonName, fonChrom, fonStrand, fonCoords string) (features []Feature, err error) {
	d := json.NewDecoder(r)
	d.UseNumber()
	var rawFON interface{}
	if err = d.Decode(&rawFON); err != nil {
		err = fmt.Errorf("Error while parsing JSON feature file: %w", err)
		return
	}

	// FON
	fon, ok := rawFON.(map[string]interface{})
	if !ok {
		err = fmt.Errorf("FON root is not an object")
		return
	}

	// FON version
	var version int64
	rawVersion, _ := fon["fon_version"].(json.Number)
	if version, err = rawVersion.Int64(); err != nil {
		err = fmt.Errorf("Missing FON version: %w", err)
		return
	} else if version != 1 {
		err = fmt.Errorf("Unknown FON version %d", version)
		return
	}

	// Get features
	rawFeatures, _ := fon["features"].([]interface{})
	b := NewBuilder()
	for i, rf := range rawFeatures {
		mf, ok := rf.(map[string]interface{})
		if !ok {
			err = fmt.Errorf("FON feature %d is not an object", i)
			return
		}
		name, _ := mf[fonName].(string)
		chrom, _ := mf[fonChrom].(string)
		// Strand
		var istrand int8
		strand, _ := mf[fonStrand].(string)
		if strand == "+" {
			istrand = 1
		} else if strand == "-" {
			istrand = -1
		}
		// Coordinates
		rawCoords, _ := mf[fonCoords].([]interface{})
		coords := make([]exon.Interval, len(rawCoords))
		for j, cj := range rawCoords {
			pair, _ := cj.([]interface{})
			if len(pair) != 2 {
				err = fmt.Errorf("Feature %s: coordinate %d is not a pair", name, j)
				return
			}
			var n [2]int64
			for k, ck := range pair {
				num, _ := ck.(json.Number)
				if n[k], err = num.Int64(); err != nil {
					err = fmt.Errorf("Feature %s: %w", name, err)
					return
				}
			}
			coords[j] = exon.Interval{Start: int(n[0]), End: int(n[1])}
		}
		span := spanOf(coords)
		if err = b.AddTranscript(name, chrom, istrand, span); err != nil {
			return
		}
		for _, c := range coords {
			if err = b.AddExon(name, chrom, c); err != nil {
				return
			}
		}
	}
	features = b.Features()
	return
}

func spanOf(coords []exon.Interval) (span exon.Interval) {
	for i, c := range coords {
		if i == 0 || c.Start < span.Start {
			span.Start = c.Start
		}
		if i == 0 || c.End > span.End {
			span.End = c.End
		}
	}
	return
}
