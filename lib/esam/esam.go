//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"io"
	"os"
	"os/exec"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
)

// PathSAM stores Path to SAM (Binary=false) or BAM (Binary=true) file.
type PathSAM struct {
	Path   string
	Binary bool
}

// Blocks returns the aligned blocks of the SAM record in reference order.
// Blocks are separated by deletions and skipped regions (introns). Insertions
// and clipping don't interrupt a block.
func Blocks(r *sam.Record) (blocks []exon.Interval) {
	pos := r.Pos
	for _, co := range r.Cigar {
		con := co.Type().Consumes()
		lr := co.Len() * con.Reference
		if con.Query == 1 && con.Reference == 1 {
			// Segments touching across an insertion are merged (pysam get_blocks keeps them apart)
			if n := len(blocks); n > 0 && blocks[n-1].End == pos {
				blocks[n-1].End += lr
			} else {
				blocks = append(blocks, exon.Interval{Start: pos, End: pos + lr})
			}
		}
		pos += lr
	}
	return
}

// IsMapped returns true if the record is mapped with at least one aligned block.
func IsMapped(r *sam.Record) bool {
	if r.Flags&sam.Unmapped != 0 || r.Ref == nil || r.Pos < 0 {
		return false
	}
	for _, co := range r.Cigar {
		con := co.Type().Consumes()
		if con.Query == 1 && con.Reference == 1 && co.Len() > 0 {
			return true
		}
	}
	return false
}

// Overlap returns true if the reference span of the record overlaps [start,end).
func Overlap(r *sam.Record, start, end int) bool {
	return r.Pos < end && r.End() > start
}

type multiCloser []io.Closer

func (mc multiCloser) Close() (err error) {
	for i := len(mc) - 1; i >= 0; i-- {
		if cerr := mc[i].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}

type cmdCloser struct {
	cmd *exec.Cmd
	out io.ReadCloser
}

func (c cmdCloser) Close() error {
	c.out.Close()
	return c.cmd.Wait()
}

// OpenSAM opens a SAM or BAM file for sequential reading. If cmd is not
// empty, the SAM is read from the standard output of cmd executed with the
// path as last argument.
func OpenSAM(pathSAM PathSAM, cmd []string, nWorker int) (rr sam.RecordReader, header *sam.Header, c io.Closer, err error) {
	if pathSAM.Binary {
		var f *os.File
		if f, err = os.Open(pathSAM.Path); err != nil {
			return
		}
		var br *bam.Reader
		if br, err = bam.NewReader(f, nWorker); err != nil {
			f.Close()
			return
		}
		return br, br.Header(), multiCloser{f, br}, nil
	}
	if len(cmd) == 0 {
		var f *os.File
		if f, err = os.Open(pathSAM.Path); err != nil {
			return
		}
		var sr *sam.Reader
		if sr, err = sam.NewReader(f); err != nil {
			f.Close()
			return
		}
		return sr, sr.Header(), f, nil
	}
	args := append(append([]string{}, cmd[1:]...), pathSAM.Path)
	p := exec.Command(cmd[0], args...)
	var pp io.ReadCloser
	if pp, err = p.StdoutPipe(); err != nil {
		return
	}
	if err = p.Start(); err != nil {
		return
	}
	var sr *sam.Reader
	if sr, err = sam.NewReader(pp); err != nil {
		pp.Close()
		p.Wait()
		return
	}
	return sr, sr.Header(), cmdCloser{cmd: p, out: pp}, nil
}
