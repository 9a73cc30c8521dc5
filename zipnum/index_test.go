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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) == 0 {
		return 0
	}
	return strings.Count(string(bs), "\n")
}

func TestIndexEmitterBatching(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-idx")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.idx")
	ie, err := newIndexEmitter(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < indexBatchSize+50; i++ {
		if err := ie.emit(fmt.Sprintf("key-%04d", i), "test-01", int64(i*10), 10, 0); err != nil {
			t.Fatal(err)
		}
	}

	// one full batch flushed, the remainder still buffered
	if got := countLines(t, path); got != indexBatchSize {
		t.Errorf("pre-finalize idx has %d records, want %d", got, indexBatchSize)
	}

	if err := ie.finalize(); err != nil {
		t.Fatal(err)
	}

	if got := countLines(t, path); got != indexBatchSize+50 {
		t.Errorf("idx has %d records, want %d", got, indexBatchSize+50)
	}

	recs, err := ReadIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range recs {
		want := fmt.Sprintf("key-%04d", i)
		if r.Key != want {
			t.Fatalf("record %d has key %q, want %q (order lost)", i, r.Key, want)
		}
		if r.ShardNum != 1 {
			t.Errorf("record %d has shard number %d, want 1", i, r.ShardNum)
		}
	}
}

func TestIndexEmitterRecordFormat(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-idx")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.idx")
	ie, err := newIndexEmitter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ie.emit("com,example)/ 20200101", "test-02", 1234, 567, 1); err != nil {
		t.Fatal(err)
	}
	if err := ie.finalize(); err != nil {
		t.Fatal(err)
	}

	bs, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "com,example)/ 20200101\ttest-02\t1234\t567\t2\n"
	if string(bs) != want {
		t.Errorf("idx record %q, want %q", bs, want)
	}
}
