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
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sortedInput(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "com,example)/page%04d 20200101%06d {\"url\": \"http://example.com/page%04d\"}\n", i, i, i)
	}
	return b.String()
}

func TestWriteAllSevenLinesSingleShard(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	input := sortedInput(7)

	w, err := New(dir, WithBase("seven"), WithChunkSize(3))
	if err != nil {
		t.Fatal(err)
	}

	res, err := w.WriteAll(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if res.Lines != 7 || res.Chunks != 3 {
		t.Errorf("got %d lines in %d chunks, want 7 lines in 3 chunks", res.Lines, res.Chunks)
	}
	if len(res.ShardPaths) != 1 {
		t.Fatalf("got %d shards, want 1", len(res.ShardPaths))
	}
	if got := filepath.Base(res.ShardPaths[0]); got != "seven.cdx.gz" {
		t.Errorf("single shard named %q, want %q", got, "seven.cdx.gz")
	}

	recs, err := ReadIndex(res.IdxPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("idx has %d records, want 3", len(recs))
	}

	// offsets are contiguous and exact
	var next int64
	for i, r := range recs {
		if r.Offset != next {
			t.Errorf("record %d has offset %d, want %d", i, r.Offset, next)
		}
		if r.ShardNum != 1 {
			t.Errorf("record %d has shard number %d, want 1", i, r.ShardNum)
		}
		if r.Key == "" || strings.Contains(r.Key, "{") {
			t.Errorf("record %d has bad key %q", i, r.Key)
		}
		next += r.Length
	}
	fi, err := os.Stat(res.ShardPaths[0])
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != next {
		t.Errorf("shard is %d bytes, idx accounts for %d", fi.Size(), next)
	}

	// each chunk decompresses independently from its own byte range
	var rebuilt bytes.Buffer
	for i, r := range recs {
		data, err := ReadChunkAt(res.ShardPaths[0], r.Offset, r.Length)
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		rebuilt.Write(data)
	}
	if rebuilt.String() != input {
		t.Errorf("concatenated chunks do not reproduce the input")
	}

	// the whole shard also reads as one multi-member gzip stream
	f, err := os.Open(res.ShardPaths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gzr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	all, err := ioutil.ReadAll(gzr)
	if err != nil {
		t.Fatal(err)
	}
	if string(all) != input {
		t.Errorf("full-shard decompression does not reproduce the input")
	}

	locs, err := ReadLoc(res.LocPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 {
		t.Fatalf("loc has %d records, want 1", len(locs))
	}
	if locs[0].ShardName != "seven" || locs[0].Filename != "seven.cdx.gz" {
		t.Errorf("loc record = %+v, want seven -> seven.cdx.gz", locs[0])
	}
}

func TestWriteAllEmptyInput(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New(dir, WithBase("empty"))
	if err != nil {
		t.Fatal(err)
	}

	res, err := w.WriteAll(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}

	if res.Chunks != 0 || res.Lines != 0 {
		t.Errorf("got %d chunks, %d lines, want 0, 0", res.Chunks, res.Lines)
	}

	// the eagerly opened shard still exists, empty and renamed
	fi, err := os.Stat(filepath.Join(dir, "empty.cdx.gz"))
	if err != nil {
		t.Fatalf("missing empty shard, %v", err)
	}
	if fi.Size() != 0 {
		t.Errorf("empty shard is %d bytes, want 0", fi.Size())
	}

	recs, err := ReadIndex(res.IdxPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("idx has %d records, want 0", len(recs))
	}

	locs, err := ReadLoc(res.LocPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 || locs[0].Filename != "empty.cdx.gz" {
		t.Errorf("loc records = %+v, want one record for empty.cdx.gz", locs)
	}
}

func TestWriteAllRollover(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New(dir, WithBase("roll"), WithChunkSize(2))
	if err != nil {
		t.Fatal(err)
	}
	// force a rollover after every chunk
	w.shardSize = 1

	input := sortedInput(6)
	res, err := w.WriteAll(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if res.Chunks != 3 {
		t.Fatalf("got %d chunks, want 3", res.Chunks)
	}

	recs, err := ReadIndex(res.IdxPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("idx has %d records, want 3", len(recs))
	}
	for i, r := range recs {
		// each chunk starts a fresh shard at offset zero
		if r.Offset != 0 {
			t.Errorf("record %d has offset %d, want 0", i, r.Offset)
		}
		if r.ShardNum != i+1 {
			t.Errorf("record %d has shard number %d, want %d", i, r.ShardNum, i+1)
		}
		want := fmt.Sprintf("roll-%02d", i+1)
		if r.ShardName != want {
			t.Errorf("record %d names shard %q, want %q", i, r.ShardName, want)
		}
	}

	// rollover opens the next shard eagerly, so one trailing empty
	// shard follows the last full one
	if len(res.ShardPaths) != 4 {
		t.Fatalf("created %d shards, want 4", len(res.ShardPaths))
	}
	for i, p := range res.ShardPaths[:3] {
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() < w.shardSize {
			t.Errorf("non-final shard %d is %d bytes, want >= %d", i, fi.Size(), w.shardSize)
		}
	}

	// multi-shard runs keep numbered names
	if got := filepath.Base(res.ShardPaths[0]); got != "roll-01.cdx.gz" {
		t.Errorf("shard 0 named %q, want %q", got, "roll-01.cdx.gz")
	}

	locs, err := ReadLoc(res.LocPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 4 {
		t.Fatalf("loc has %d records, want 4", len(locs))
	}

	// chunks written after rollover still reproduce their content
	var rebuilt bytes.Buffer
	for i, r := range recs {
		data, err := ReadChunkAt(res.ShardPaths[i], r.Offset, r.Length)
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		rebuilt.Write(data)
	}
	if rebuilt.String() != input {
		t.Errorf("concatenated chunks do not reproduce the input")
	}
}

func TestWriteAllSingleShardOption(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New(dir, WithBase("one"), WithChunkSize(1), WithSingleShard())
	if err != nil {
		t.Fatal(err)
	}
	// the threshold is effectively infinite, shardSize is ignored
	w.shardSize = 1

	res, err := w.WriteAll(context.Background(), strings.NewReader(sortedInput(5)))
	if err != nil {
		t.Fatal(err)
	}

	if len(res.ShardPaths) != 1 {
		t.Fatalf("got %d shards, want 1", len(res.ShardPaths))
	}
	if got := filepath.Base(res.ShardPaths[0]); got != "one.cdx.gz" {
		t.Errorf("shard named %q, want %q", got, "one.cdx.gz")
	}
}

func TestWriteAllCancelled(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := New(dir, WithBase("cancel"), WithChunkSize(1))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.WriteAll(ctx, strings.NewReader(sortedInput(3))); err != context.Canceled {
		t.Errorf("got err %v, want context.Canceled", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	tests := []struct {
		name string
		opts []Opt
	}{
		{"zero chunk size", []Opt{WithChunkSize(0)}},
		{"negative chunk size", []Opt{WithChunkSize(-5)}},
		{"level too low", []Opt{WithCompressionLevel(0)}},
		{"level too high", []Opt{WithCompressionLevel(10)}},
		{"zero shard size", []Opt{WithShardSize(0)}},
	}

	for _, tt := range tests {
		if _, err := New(dir, tt.opts...); err == nil {
			t.Errorf("%s: New succeeded, want error", tt.name)
		}
	}
}

func TestNewDefaultNames(t *testing.T) {
	dir, err := ioutil.TempDir("", "zipnum-e2e")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	outDir := filepath.Join(dir, "mycoll")
	w, err := New(outDir)
	if err != nil {
		t.Fatal(err)
	}

	res, err := w.WriteAll(context.Background(), strings.NewReader(sortedInput(1)))
	if err != nil {
		t.Fatal(err)
	}

	if got := filepath.Base(res.IdxPath); got != "mycoll.idx" {
		t.Errorf("idx named %q, want %q", got, "mycoll.idx")
	}
	if got := filepath.Base(res.LocPath); got != "mycoll.loc" {
		t.Errorf("loc named %q, want %q", got, "mycoll.loc")
	}
	if got := filepath.Base(res.ShardPaths[0]); got != "mycoll.cdx.gz" {
		t.Errorf("shard named %q, want %q", got, "mycoll.cdx.gz")
	}
}
