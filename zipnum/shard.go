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
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// shardWriter owns the currently open shard file and its running
// offset. At most one shard handle is open at any moment; crossing the
// size threshold closes the current file and opens the next numbered
// one.
type shardWriter struct {
	dir       string
	base      string
	threshold int64

	num    int   // 0-based number of the open shard
	offset int64 // bytes written to the open shard
	file   *os.File
	paths  []string // every shard path created, in sequence order
}

// newShardWriter opens the first shard eagerly, so a zero-line input
// still produces one (empty) shard file.
func newShardWriter(dir, base string, threshold int64) (*shardWriter, error) {
	sw := &shardWriter{
		dir:       dir,
		base:      base,
		threshold: threshold,
	}
	if err := sw.openNext(); err != nil {
		return nil, err
	}
	return sw, nil
}

// shardPath returns the numbered path for a 0-based shard number. The
// displayed number is 1-based and zero-padded to two digits.
func (sw *shardWriter) shardPath(num int) string {
	return filepath.Join(sw.dir, fmt.Sprintf("%s-%02d.%s", sw.base, num+1, shardExt))
}

// singlePath is the unnumbered name a sole shard is renamed to.
func (sw *shardWriter) singlePath() string {
	return filepath.Join(sw.dir, fmt.Sprintf("%s.%s", sw.base, shardExt))
}

func (sw *shardWriter) openNext() error {
	path := sw.shardPath(sw.num)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create shard %s", path)
	}

	sw.file = f
	sw.offset = 0
	sw.paths = append(sw.paths, path)
	shardsOpened.Inc()
	glog.V(2).Infof("opened shard %s", path)
	return nil
}

// append writes one compressed chunk to the open shard and reports
// where it landed. The rollover check runs after the write, so the
// closing chunk of a shard may push it past the threshold.
func (sw *shardWriter) append(compressed []byte) (start, length int64, shardNum int, err error) {
	start = sw.offset
	shardNum = sw.num

	n, err := sw.file.Write(compressed)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "failed writing to shard %s", sw.paths[shardNum])
	}
	sw.offset += int64(n)
	compressedBytes.Add(float64(n))

	if sw.offset >= sw.threshold {
		if err := sw.rotate(); err != nil {
			return 0, 0, 0, err
		}
	}

	return start, int64(n), shardNum, nil
}

func (sw *shardWriter) rotate() error {
	if err := sw.file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close shard %s", sw.paths[sw.num])
	}
	sw.file = nil
	sw.num++
	return sw.openNext()
}

// shardName returns the idx/loc name, the shard file basename without
// its extension, for a 0-based shard number.
func (sw *shardWriter) shardName(num int) string {
	return shardName(filepath.Base(sw.paths[num]))
}

// finalize closes the open shard and, if exactly one shard was ever
// created, renames it to the unnumbered form. Shards are created under
// numbered names first since more shards may follow; only here is the
// final count known.
func (sw *shardWriter) finalize() error {
	if sw.file != nil {
		if err := sw.file.Close(); err != nil {
			return errors.Wrapf(err, "failed to close shard %s", sw.paths[sw.num])
		}
		sw.file = nil
	}

	if len(sw.paths) == 1 && sw.paths[0] != sw.singlePath() {
		if err := os.Rename(sw.paths[0], sw.singlePath()); err != nil {
			return errors.Wrapf(err, "failed to rename single shard %s", sw.paths[0])
		}
		glog.V(2).Infof("renamed single shard %s to %s", sw.paths[0], sw.singlePath())
		sw.paths[0] = sw.singlePath()
	}

	return nil
}

// close releases the shard handle without finalizing, for error paths.
func (sw *shardWriter) close() {
	if sw.file != nil {
		sw.file.Close()
		sw.file = nil
	}
}
