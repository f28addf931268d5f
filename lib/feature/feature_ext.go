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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pierrec/lz4"
)

type FeatureExt struct {
	*Feature
	Count uint64
}

// ExtendFeatures attaches counts to features. Counts are in feature ID order.
func ExtendFeatures(features []Feature, counts []uint64) ([]*FeatureExt, error) {
	if len(counts) != len(features) {
		return nil, fmt.Errorf("Got %d counts for %d features", len(counts), len(features))
	}
	featureExts := make([]*FeatureExt, len(features))
	for ifeat := 0; ifeat < len(features); ifeat++ {
		fe := FeatureExt{Feature: &features[ifeat], Count: counts[ifeat]}
		if fe.ID != uint32(ifeat) {
			return featureExts, fmt.Errorf("Wrong feature ID")
		}
		featureExts[ifeat] = &fe
	}
	return featureExts, nil
}

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// WriteCounts writes a two-column table (name, count) in feature order to
// countPath ("-" for stdout). countFormat is "csv" or "tsv", optionally
// followed by "+lz4" or "+lz4hc" for compression.
func WriteCounts(featureExts []*FeatureExt, featuresMapping map[string]string, countPath string, countFormat string, appendOutput bool) (err error) {
	var countZip string
	if strings.Contains(countFormat, "+") {
		doubleFormat := strings.Split(countFormat, "+")
		countFormat, countZip = doubleFormat[0], doubleFormat[1]
	}
	var sep, quote string
	switch countFormat {
	case "csv":
		sep, quote = ",", "\""
	case "tsv":
		sep, quote = "\t", ""
	default:
		return fmt.Errorf("Unknown count format %s", countFormat)
	}

	var out GenericWriter
	if countPath == "-" {
		out = nopCloser{os.Stdout}
	} else {
		// Append or Create flag
		var fg int
		if appendOutput {
			fg = os.O_APPEND | os.O_CREATE | os.O_WRONLY
		} else {
			fg = os.O_RDWR | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(countPath, fg, 0666)
		if err != nil {
			return err
		}
		out = f
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	var writer GenericWriter
	switch countZip {
	case "lz4":
		writer = lz4.NewWriter(out)
	case "lz4hc":
		lzWriter := lz4.NewWriter(out)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		writer = lzWriter
	case "":
		writer = nopCloser{out}
	default:
		return fmt.Errorf("Unknown compression %s", countZip)
	}
	bw := bufio.NewWriter(writer)

	// Header
	fmt.Fprintf(bw, "%sname%s%s%scount%s\n", quote, quote, sep, quote, quote)
	// Counts
	for _, feat := range featureExts {
		bw.WriteString(quote + MapName(feat.Name, featuresMapping) + quote + sep)
		bw.WriteString(strconv.FormatUint(feat.Count, 10))
		bw.WriteString("\n")
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	return writer.Close()
}
