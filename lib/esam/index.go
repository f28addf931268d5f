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

	"github.com/biogo/hts/bam"
)

// BuildIndex writes the BAI index of a coordinate-sorted BAM file to indexPath.
func BuildIndex(path, indexPath string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	br, err := bam.NewReader(f, 1)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer br.Close()

	var idx bam.Index
	for {
		r, err := br.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err = idx.Add(r, br.LastChunk()); err != nil {
			return fmt.Errorf("Indexing %s (is it sorted by coordinate?): %w", path, err)
		}
	}

	out, err := os.Create(indexPath)
	if err != nil {
		return err
	}
	if err = bam.WriteIndex(out, &idx); err != nil {
		out.Close()
		os.Remove(indexPath)
		return err
	}
	return out.Close()
}

// EnsureIndex returns the index path of a BAM file (path + ".bai"), building
// the index first if it doesn't exist. built is true if the index was created.
func EnsureIndex(path string) (indexPath string, built bool, err error) {
	indexPath = path + ".bai"
	if _, err = os.Stat(indexPath); err == nil {
		return indexPath, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, err
	}
	if err = BuildIndex(path, indexPath); err != nil {
		return "", false, err
	}
	return indexPath, true, nil
}
