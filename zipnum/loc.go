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
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// shardName strips the shard extension from a shard file basename.
func shardName(basename string) string {
	return strings.TrimSuffix(basename, "."+shardExt)
}

// writeLocFile maps shard names to shard file basenames, one line per
// shard in sequence order. It needs the final shard list, including
// the possible single-shard rename, so unlike the idx file it cannot
// be streamed and is written once after processing completes.
func writeLocFile(path string, shardPaths []string) error {
	buf := &bytes.Buffer{}
	for _, p := range shardPaths {
		basename := filepath.Base(p)
		fmt.Fprintf(buf, "%s\t%s\n", shardName(basename), basename)
	}

	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed writing loc file %s", path)
	}
	return nil
}
