//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/count"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/esam"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/exon"
	"git.sr.ht/~vejnar/SpliceAbacus/lib/feature"
)

var version = "DEV"

func main() {
	// Arguments: General
	var pathReport string
	var nWorker, verboseLevel int
	var appendOutput, verbose, printVersion bool
	flag.StringVar(&pathReport, "path_report", "", "Write report to path (stdout with -)")
	flag.IntVar(&nWorker, "num_worker", 1, "Number of worker(s)")
	flag.IntVar(&verboseLevel, "verbose_level", 0, "Verbose level")
	flag.BoolVar(&appendOutput, "append", false, "Append to output count (default create)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose")
	flag.BoolVar(&printVersion, "version", false, "Print version and quit")
	// Arguments: Input
	var pathSAMsRaw, pathBAMsRaw, rawSAMCmdIn, pathFeatures, formatFeatures, fonName, fonChrom, fonStrand, fonCoords string
	flag.StringVar(&pathSAMsRaw, "path_sam", "", "Path to SAM file(s) (comma separated)")
	flag.StringVar(&pathBAMsRaw, "path_bam", "", "Path to BAM file(s) (comma separated)")
	flag.StringVar(&rawSAMCmdIn, "sam_command_in", "", "Command line to execute for opening each of the SAM file (comma separated)")
	flag.StringVar(&pathFeatures, "path_features", "", "Path to features file")
	flag.StringVar(&formatFeatures, "format_features", "GTF", "Format of features file: 'GTF' or 'FON'")
	flag.StringVar(&fonName, "fon_name", "transcript_stable_id", "FON key for feature name")
	flag.StringVar(&fonChrom, "fon_chrom", "chrom", "FON key for chromosome or locus")
	flag.StringVar(&fonStrand, "fon_strand", "strand", "FON key for strand")
	flag.StringVar(&fonCoords, "fon_coords", "exons", "FON key for coordinates (exons for example)")
	// Arguments: Read selection
	var minMappingQualityRaw, tolerance int
	var junctionModeRaw string
	flag.IntVar(&minMappingQualityRaw, "read_min_mapping_quality", 0, "Minimum read mapping quality")
	flag.IntVar(&tolerance, "tolerance", exon.DefaultTolerance, "Tolerance (in nucleotide) on exon boundaries")
	flag.StringVar(&junctionModeRaw, "junction_mode", "any", "Junction matching: 'any' pair of consecutive exons or 'indexed' from the exon containing the block")
	// Arguments: Counting
	var countPath, countFormat, countMode string
	flag.StringVar(&countPath, "count_path", "counts.csv", "Path to counts output (stdout with -)")
	flag.StringVar(&countFormat, "count_format", "csv", "Format of counts output: 'csv' or 'tsv' optionally compressed with '+lz4' or '+lz4hc'")
	flag.StringVar(&countMode, "count_mode", "fetch", "Counting mode: 'fetch' alignments per transcript or 'stream' all alignments once")
	// Arguments: Output
	var pathMapping string
	flag.StringVar(&pathMapping, "path_mapping", "", "Path to feature name(s) mapping (tabulated file)")
	// Arguments: Parse
	flag.Parse()

	// Version
	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Verbose
	if verbose && verboseLevel == 0 {
		verboseLevel = 1
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)

	// Time start
	timeStart := time.Now()

	// Check arguments
	if len(pathFeatures) == 0 {
		log.Fatal("No Feature input")
	} else if _, err := os.Stat(pathFeatures); os.IsNotExist(err) {
		log.Fatalln(pathFeatures, "not found")
	}
	if minMappingQualityRaw < 0 || minMappingQualityRaw > 255 {
		log.Fatalf("Minimum mapping quality %d not in 0..255", minMappingQualityRaw)
	}
	if tolerance < 0 {
		log.Fatalf("Negative tolerance %d", tolerance)
	}
	if nWorker < 1 {
		log.Fatalf("Number of worker must be positive (%d)", nWorker)
	}
	if countMode != modeFetch && countMode != modeStream {
		log.Fatalf("Unknown counting mode %q", countMode)
	}
	junctionMode, err := exon.ParseJunctionMode(junctionModeRaw)
	if err != nil {
		log.Fatal(err)
	}

	// Parse raw arguments
	// pathSAMs
	var pathSAMs []esam.PathSAM
	var SAMCmdIn []string
	if len(pathSAMsRaw) > 0 {
		for _, p := range strings.Split(pathSAMsRaw, ",") {
			if _, err := os.Stat(p); os.IsNotExist(err) {
				log.Fatalln(p, "not found")
			} else {
				pathSAMs = append(pathSAMs, esam.PathSAM{Path: p, Binary: false})
			}
		}
		if len(rawSAMCmdIn) > 0 {
			SAMCmdIn = strings.Split(rawSAMCmdIn, " ")
		}
	}
	if len(pathBAMsRaw) > 0 {
		for _, p := range strings.Split(pathBAMsRaw, ",") {
			if _, err := os.Stat(p); os.IsNotExist(err) {
				log.Fatalln(p, "not found")
			} else {
				pathSAMs = append(pathSAMs, esam.PathSAM{Path: p, Binary: true})
			}
		}
	}
	if len(pathSAMs) == 0 {
		log.Fatal("No SAM/BAM input")
	}

	// Open features
	var features []feature.Feature
	switch strings.ToLower(formatFeatures) {
	case "gtf":
		features, err = feature.OpenGTF(pathFeatures)
	case "fon":
		features, err = feature.OpenFON(pathFeatures, fonName, fonChrom, fonStrand, fonCoords)
	default:
		err = fmt.Errorf("Unknown feature format %q", formatFeatures)
	}
	if err != nil {
		log.Fatal(err)
	}
	if verboseLevel > 0 {
		fmt.Printf("%.1fmin - Loaded %s transcripts\n", time.Since(timeStart).Minutes(), count.AddCommas(fmt.Sprint(len(features))))
	}

	// Open feature mapping
	var featuresMapping map[string]string
	if pathMapping != "" {
		if featuresMapping, err = feature.OpenMapping(pathMapping); err != nil {
			log.Fatal(err)
		}
	}

	// Count alignments on Features
	counter := count.NewCounter(count.Options{
		MinMappingQuality: byte(minMappingQualityRaw),
		Classifier:        exon.Classifier{Tolerance: tolerance, Mode: junctionMode},
		NumWorker:         nWorker,
		VerboseLevel:      verboseLevel,
		TimeStart:         timeStart,
	})
	res, err := CountOnFeatures(context.Background(), counter, pathSAMs, SAMCmdIn, features, countMode, nWorker, timeStart, verboseLevel)
	if err != nil {
		log.Fatal(err)
	}

	// Write counts
	featureExts, err := feature.ExtendFeatures(features, res.Counts)
	if err != nil {
		log.Fatal(err)
	}
	if err := feature.WriteCounts(featureExts, featuresMapping, countPath, countFormat, appendOutput); err != nil {
		log.Fatal(err)
	}

	// Report
	if pathReport != "" {
		if err := WriteReport(pathReport, len(features), res); err != nil {
			log.Fatal(err)
		}
	}

	// Verbose
	if verboseLevel > 0 {
		fmt.Printf("%.1fmin - Done %d align.\n", time.Since(timeStart).Minutes(), res.Stats.Alignments)
	}
}
