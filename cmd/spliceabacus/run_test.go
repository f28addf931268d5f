//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/count"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

const testGTF = `#!genome-build test
chr1	test	transcript	101	500	.	+	.	gene_id "G1"; transcript_id "T1";
chr1	test	exon	101	200	.	+	.	gene_id "G1"; transcript_id "T1";
chr1	test	exon	301	500	.	+	.	gene_id "G1"; transcript_id "T1";
`

func testHeader(t *testing.T) (*sam.Header, []*sam.Record) {
	chr1, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	require.NoError(t, err)
	h, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	require.NoError(t, err)
	h.SortOrder = sam.Coordinate
	var records []*sam.Record
	for _, a := range []struct {
		name  string
		pos   int
		mapQ  byte
		cigar string
	}{
		{"A", 100, 40, "100M100N200M"},
		{"B", 105, 20, "90M"},
	} {
		cigar, err := sam.ParseCigar([]byte(a.cigar))
		require.NoError(t, err)
		_, qlen := cigar.Lengths()
		r, err := sam.NewRecord(a.name, chr1, nil, a.pos, -1, 0, a.mapQ, cigar, bytes.Repeat([]byte{'A'}, qlen), bytes.Repeat([]byte{30}, qlen), nil)
		require.NoError(t, err)
		records = append(records, r)
	}
	return h, records
}

func writeInputs(t *testing.T, dir string) (features []feature.Feature, pathSAM, pathBAM esam.PathSAM) {
	gpath := filepath.Join(dir, "annot.gtf")
	require.NoError(t, os.WriteFile(gpath, []byte(testGTF), 0o644))
	features, err := feature.OpenGTF(gpath)
	require.NoError(t, err)

	pathSAM = esam.PathSAM{Path: filepath.Join(dir, "aln.sam")}
	h, records := testHeader(t)
	f, err := os.Create(pathSAM.Path)
	require.NoError(t, err)
	sw, err := sam.NewWriter(f, h, sam.FlagDecimal)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, sw.Write(r))
	}
	require.NoError(t, f.Close())

	pathBAM = esam.PathSAM{Path: filepath.Join(dir, "aln.bam"), Binary: true}
	h, records = testHeader(t)
	f, err = os.Create(pathBAM.Path)
	require.NoError(t, err)
	bw, err := bam.NewWriter(f, h, 1)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, bw.Write(r))
	}
	require.NoError(t, bw.Close())
	require.NoError(t, f.Close())
	return
}

func TestCountOnFeatures(t *testing.T) {
	features, pathSAM, pathBAM := writeInputs(t, t.TempDir())
	require.Len(t, features, 1)

	for _, mode := range []string{modeFetch, modeStream} {
		for _, p := range []esam.PathSAM{pathSAM, pathBAM} {
			counter := count.NewCounter(count.Options{MinMappingQuality: 30, Classifier: exon.NewClassifier(), NumWorker: 2})
			res, err := CountOnFeatures(context.Background(), counter, []esam.PathSAM{p}, nil, features, mode, 2, time.Now(), 0)
			require.NoError(t, err, "%s %s", mode, p.Path)
			assert.Equal(t, []uint64{1}, res.Counts, "%s %s", mode, p.Path)
			assert.Equal(t, count.Stats{Alignments: 2, LowQuality: 1, Counted: 1}, res.Stats, "%s %s", mode, p.Path)
		}
	}
	_, err := os.Stat(pathBAM.Path + ".bai")
	assert.NoError(t, err)

	// Counts of several inputs are added
	counter := count.NewCounter(count.Options{Classifier: exon.NewClassifier()})
	res, err := CountOnFeatures(context.Background(), counter, []esam.PathSAM{pathSAM, pathBAM}, nil, features, modeFetch, 1, time.Now(), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, res.Counts)
	assert.Equal(t, 2, res.Reads.Size())

	_, err = CountOnFeatures(context.Background(), counter, []esam.PathSAM{{Path: "missing.sam"}}, nil, features, modeStream, 1, time.Now(), 0)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	features, pathSAM, _ := writeInputs(t, t.TempDir())
	counter := count.NewCounter(count.Options{MinMappingQuality: 30, Classifier: exon.NewClassifier()})
	res, err := CountOnFeatures(context.Background(), counter, []esam.PathSAM{pathSAM}, nil, features, modeStream, 1, time.Now(), 0)
	require.NoError(t, err)

	rpath := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteReport(rpath, len(features), res))
	raw, err := os.ReadFile(rpath)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]int{
		"transcripts":        1,
		"align_examined":     2,
		"align_inconsistent": 0,
		"align_low_quality":  1,
		"align_counted":      1,
		"reads_counted":      1,
	}, got)
}
