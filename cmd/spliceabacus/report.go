//
// Copyright (C) 2015-2021 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"git.sr.ht/~vejnar/SpliceAbacus/lib/count"
)

type report struct {
	Transcripts int `json:"transcripts"`
	count.Stats
	ReadsCounted int `json:"reads_counted"`
}

// WriteReport writes the run statistics as JSON.
func WriteReport(pathReport string, nFeature int, res *count.Result) (err error) {
	rep := report{Transcripts: nFeature, Stats: res.Stats}
	if res.Reads != nil {
		rep.ReadsCounted = res.Reads.Size()
	}
	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if pathReport != "-" {
		f, err := os.Create(pathReport)
		if err != nil {
			return err
		}
		if _, err = f.Write(raw); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	fmt.Println(string(raw))
	return nil
}
