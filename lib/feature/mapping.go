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
	"strings"
)

// OpenMapping reads a two-column tabulated file: transcript name and display name.
func OpenMapping(mpath string) (map[string]string, error) {
	mfos, err := os.Open(mpath)
	if err != nil {
		return nil, err
	}
	defer mfos.Close()
	return ReadMapping(mfos)
}

func ReadMapping(r io.Reader) (map[string]string, error) {
	m := make(map[string]string)
	tscanner := bufio.NewScanner(r)
	var nline int
	for tscanner.Scan() {
		nline++
		if len(tscanner.Text()) == 0 {
			continue
		}
		fields := strings.Split(tscanner.Text(), "\t")
		if len(fields) < 2 {
			return m, fmt.Errorf("Missing column in mapping line %d", nline)
		}
		m[fields[0]] = fields[1]
	}
	if err := tscanner.Err(); err != nil {
		return m, err
	}
	return m, nil
}

func MapName(name string, m map[string]string) string {
	if nn, ok := m[name]; ok {
		return nn
	}
	return name
}
