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
	"bytes"
	"compress/gzip"

	"github.com/pkg/errors"
)

// compressChunk concatenates the lines of one chunk and compresses
// them as a single complete gzip member. Each chunk is compressed in
// full before it is handed to the shard writer, which is what lets a
// reader decompress any chunk from its byte range alone.
func compressChunk(lines [][]byte, level int) ([]byte, error) {
	buf := &bytes.Buffer{}
	gzw, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chunk compressor")
	}

	for _, line := range lines {
		if _, err := gzw.Write(line); err != nil {
			return nil, errors.Wrap(err, "failed compressing chunk")
		}
	}

	if err := gzw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish chunk gzip member")
	}

	return buf.Bytes(), nil
}
