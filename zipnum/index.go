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
	"strings"

	"github.com/pkg/errors"
)

// indexBatchSize is how many idx records are joined into one write.
const indexBatchSize = 100

// indexEmitter streams idx records to a single file opened once for
// the whole run. Records are batched to cut write calls but are never
// reordered, and finalize flushes whatever remains.
type indexEmitter struct {
	file  *os.File
	path  string
	batch []string
}

func newIndexEmitter(path string) (*indexEmitter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create idx file %s", path)
	}
	return &indexEmitter{
		file:  f,
		path:  path,
		batch: make([]string, 0, indexBatchSize),
	}, nil
}

// emit queues one record: key, shard name, compressed start offset,
// compressed length and 1-based shard number, tab separated.
func (ie *indexEmitter) emit(key, shardName string, start, length int64, shardNum int) error {
	ie.batch = append(ie.batch,
		fmt.Sprintf("%s\t%s\t%d\t%d\t%d\n", key, shardName, start, length, shardNum+1))
	if len(ie.batch) >= indexBatchSize {
		return ie.flush()
	}
	return nil
}

func (ie *indexEmitter) flush() error {
	if len(ie.batch) == 0 {
		return nil
	}
	if _, err := ie.file.WriteString(strings.Join(ie.batch, "")); err != nil {
		return errors.Wrapf(err, "failed writing idx records to %s", ie.path)
	}
	ie.batch = ie.batch[:0]
	return nil
}

func (ie *indexEmitter) finalize() error {
	if err := ie.flush(); err != nil {
		ie.file.Close()
		return err
	}
	if err := ie.file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close idx file %s", ie.path)
	}
	return nil
}

// close releases the idx handle without flushing, for error paths.
func (ie *indexEmitter) close() {
	ie.file.Close()
}
