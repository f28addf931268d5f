//
// Copyright (C) 2015-2023 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/io/featio/gff"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
)

const (
	gtfTranscript = "transcript"
	gtfExon       = "exon"
	gtfIDTag      = "transcript_id"
)

// OpenGTF parses a GTF file (gzip compressed if path ends with ".gz") and returns a list of Feature
func OpenGTF(gpath string) (features []Feature, err error) {
	gfos, err := openInput(gpath)
	if err != nil {
		return
	}
	defer gfos.Close()
	features, err = ReadGTF(gfos)
	if err != nil {
		err = fmt.Errorf("%s: %w", gpath, err)
	}
	return
}

// ReadGTF reads "transcript" and "exon" records. Other records are ignored.
// Coordinates are converted to 0-based half-open intervals. Exons are kept
// in file order and must follow their transcript.
func ReadGTF(r io.Reader) ([]Feature, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(skipComments(pw, r))
	}()
	defer pr.Close()

	b := NewBuilder()
	gr := gff.NewReader(pr)
	for {
		f, err := gr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		gf := f.(*gff.Feature)
		if gf.Feature != gtfTranscript && gf.Feature != gtfExon {
			continue
		}
		name := strings.Trim(gf.FeatAttributes.Get(gtfIDTag), `"`)
		if name == "" {
			return nil, fmt.Errorf("No %s in %s record on %s:%d-%d", gtfIDTag, gf.Feature, gf.SeqName, gf.FeatStart+1, gf.FeatEnd)
		}
		coord := exon.Interval{Start: gf.FeatStart, End: gf.FeatEnd}
		if gf.Feature == gtfTranscript {
			err = b.AddTranscript(name, gf.SeqName, int8(gf.FeatStrand), coord)
		} else {
			err = b.AddExon(name, gf.SeqName, coord)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Features(), nil
}

// skipComments copies r to w without the lines starting with '#'.
func skipComments(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 && line[0] != '#' && len(bytes.TrimSpace(line)) > 0 {
			if _, werr := bw.Write(line); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
	}
	return bw.Flush()
}
