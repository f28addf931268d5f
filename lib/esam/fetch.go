//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
)

// Iterator iterates over the records returned by a Fetch.
type Iterator interface {
	Next() bool
	Record() *sam.Record
	Error() error
	Close() error
}

// Fetcher gives random access to the mapped records overlapping a region.
// A Fetcher is not safe for concurrent use unless stated otherwise.
type Fetcher interface {
	// Fetch returns the mapped records whose reference span overlaps
	// [start,end) on chrom, in file order. An unknown chrom yields no record.
	Fetch(chrom string, start, end int) (Iterator, error)
	Close() error
}

type emptyIterator struct{}

func (emptyIterator) Next() bool          { return false }
func (emptyIterator) Record() *sam.Record { return nil }
func (emptyIterator) Error() error        { return nil }
func (emptyIterator) Close() error        { return nil }

// IndexedBAM fetches records from a coordinate-sorted BAM file with its BAI index.
type IndexedBAM struct {
	f      *os.File
	reader *bam.Reader
	index  *bam.Index
	refs   map[string]*sam.Reference
}

// OpenIndexedBAM opens a BAM file and its index. If indexPath is empty, path + ".bai" is used.
func OpenIndexedBAM(path, indexPath string) (*IndexedBAM, error) {
	if indexPath == "" {
		indexPath = path + ".bai"
	}
	fi, err := os.Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer fi.Close()
	idx, err := bam.ReadIndex(fi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b := &IndexedBAM{f: f, reader: br, index: idx, refs: make(map[string]*sam.Reference)}
	for _, ref := range br.Header().Refs() {
		b.refs[ref.Name()] = ref
	}
	return b, nil
}

func (b *IndexedBAM) Header() *sam.Header {
	return b.reader.Header()
}

func (b *IndexedBAM) Fetch(chrom string, start, end int) (Iterator, error) {
	ref, ok := b.refs[chrom]
	if !ok || start >= end {
		return emptyIterator{}, nil
	}
	chunks, err := b.index.Chunks(ref, start, end)
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		// No reads for this interval
		return emptyIterator{}, nil
	} else if err != nil {
		return nil, err
	}
	it, err := bam.NewIterator(b.reader, chunks)
	if err != nil {
		return nil, err
	}
	return &bamIterator{it: it, refID: ref.ID(), start: start, end: end}, nil
}

func (b *IndexedBAM) Close() error {
	err := b.reader.Close()
	if ferr := b.f.Close(); err == nil {
		err = ferr
	}
	return err
}

type bamIterator struct {
	it         *bam.Iterator
	refID      int
	start, end int
	done       bool
}

func (i *bamIterator) Next() bool {
	if i.done {
		return false
	}
	for i.it.Next() {
		r := i.it.Record()
		if r.Ref == nil || r.Ref.ID() != i.refID {
			continue
		}
		// Sorted by position: nothing after can overlap
		if r.Pos >= i.end {
			break
		}
		if IsMapped(r) && Overlap(r, i.start, i.end) {
			return true
		}
	}
	i.done = true
	return false
}

func (i *bamIterator) Record() *sam.Record {
	return i.it.Record()
}

func (i *bamIterator) Error() error {
	err := i.it.Error()
	if err == io.EOF {
		return nil
	}
	return err
}

func (i *bamIterator) Close() error {
	err := i.Error()
	i.it.Close()
	return err
}

// RecordSet is an in-memory Fetcher. It is safe for concurrent use.
type RecordSet struct {
	byRef map[string][]*sam.Record
}

// NewRecordSet indexes the mapped records by reference name and position.
func NewRecordSet(records []*sam.Record) *RecordSet {
	rs := &RecordSet{byRef: make(map[string][]*sam.Record)}
	for _, r := range records {
		if !IsMapped(r) {
			continue
		}
		rs.byRef[r.Ref.Name()] = append(rs.byRef[r.Ref.Name()], r)
	}
	for _, recs := range rs.byRef {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Pos < recs[j].Pos })
	}
	return rs
}

// ReadRecordSet loads all the records of rr.
func ReadRecordSet(rr sam.RecordReader) (*RecordSet, error) {
	var records []*sam.Record
	for {
		r, err := rr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return NewRecordSet(records), nil
}

func (rs *RecordSet) Fetch(chrom string, start, end int) (Iterator, error) {
	var hits []*sam.Record
	for _, r := range rs.byRef[chrom] {
		if r.Pos >= end {
			break
		}
		if Overlap(r, start, end) {
			hits = append(hits, r)
		}
	}
	return &sliceIterator{records: hits, i: -1}, nil
}

func (rs *RecordSet) Close() error {
	return nil
}

type sliceIterator struct {
	records []*sam.Record
	i       int
}

func (s *sliceIterator) Next() bool {
	s.i++
	return s.i < len(s.records)
}

func (s *sliceIterator) Record() *sam.Record {
	return s.records[s.i]
}

func (s *sliceIterator) Error() error { return nil }
func (s *sliceIterator) Close() error { return nil }
