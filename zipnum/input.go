// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package zipnum builds ZipNum sharded index files from sorted
// CDX/CDXJ streams.

package zipnum

import (
	"compress/gzip"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// OpenInput opens the conversion source. "-" reads stdin, a .gz suffix
// is decoded transparently. The returned closer owns the underlying
// file handle.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input %s", path)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gzr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to read gzip input %s", path)
	}

	return &gzipReadCloser{gzr: gzr, file: f}, nil
}

type gzipReadCloser struct {
	gzr  *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	if err := g.gzr.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}
