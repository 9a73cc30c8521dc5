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
	"context"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
)

// shardExt is the extension shard files are written with.
const shardExt = "cdx.gz"

// Defaults match the sizes commonly used for web-archive data, a
// 100MB shard holds roughly the same as one WARC file.
const (
	DefaultChunkSize        = 3000
	DefaultShardSizeMB      = 100
	DefaultCompressionLevel = 6
)

// Writer converts one sorted CDX/CDXJ stream into gzip shard files of
// independently decompressible chunks, plus an idx file locating every
// chunk and a loc file naming every shard.
type Writer struct {
	outputDir string
	base      string
	idxName   string
	locName   string

	chunkSize     int
	shardSize     int64
	singleShard   bool
	compressLevel int

	id string
}

// Opt defines a Writer option function.
type Opt func(w *Writer) error

// New creates a Writer targeting outputDir, creating the directory if
// needed. Configuration errors are reported here, before any output
// file is opened.
func New(outputDir string, opts ...Opt) (*Writer, error) {
	t := time.Now()
	entropy := rand.New(rand.NewSource(t.UnixNano()))
	id := ulid.MustNew(ulid.Timestamp(t), entropy).String()

	w := &Writer{
		outputDir:     outputDir,
		chunkSize:     DefaultChunkSize,
		shardSize:     DefaultShardSizeMB * 1024 * 1024,
		compressLevel: DefaultCompressionLevel,
		id:            id,
	}

	for _, o := range opts {
		if err := o(w); err != nil {
			return nil, err
		}
	}

	if w.chunkSize <= 0 {
		return nil, errors.Errorf("chunk size must be positive, got %d", w.chunkSize)
	}
	if w.compressLevel < gzip.BestSpeed || w.compressLevel > gzip.BestCompression {
		return nil, errors.Errorf("compression level must be in 1..9, got %d", w.compressLevel)
	}
	if w.shardSize <= 0 {
		return nil, errors.Errorf("shard size must be positive, got %d", w.shardSize)
	}

	if err := os.MkdirAll(outputDir, 0777); err != nil {
		return nil, errors.Wrapf(err, "failed to create output dir %s", outputDir)
	}

	if w.base == "" {
		abs, err := filepath.Abs(outputDir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve output dir %s", outputDir)
		}
		w.base = filepath.Base(abs)
		if w.base == "." || w.base == string(filepath.Separator) {
			w.base = "zipnum-output"
		}
	}
	if w.idxName == "" {
		w.idxName = w.base + ".idx"
	}
	if w.locName == "" {
		w.locName = w.base + ".loc"
	}

	return w, nil
}

// WithBase sets the base name used for shard, idx and loc files. The
// default is the basename of the output directory.
func WithBase(base string) Opt {
	return func(w *Writer) error {
		w.base = base
		return nil
	}
}

// WithChunkSize sets how many lines each chunk holds.
func WithChunkSize(n int) Opt {
	return func(w *Writer) error {
		w.chunkSize = n
		return nil
	}
}

// WithShardSize sets the target shard size in megabytes. A shard is
// closed once it reaches this size; the chunk that crosses the
// threshold is kept whole, so shards may run somewhat over.
func WithShardSize(mb int) Opt {
	return func(w *Writer) error {
		w.shardSize = int64(mb) * 1024 * 1024
		return nil
	}
}

// WithSingleShard forces everything into one shard regardless of size.
func WithSingleShard() Opt {
	return func(w *Writer) error {
		w.singleShard = true
		return nil
	}
}

// WithCompressionLevel sets the gzip level used for chunk members,
// 1 (fastest) to 9 (smallest).
func WithCompressionLevel(level int) Opt {
	return func(w *Writer) error {
		w.compressLevel = level
		return nil
	}
}

// WithIdxName overrides the idx filename inside the output directory.
func WithIdxName(name string) Opt {
	return func(w *Writer) error {
		w.idxName = name
		return nil
	}
}

// WithLocName overrides the loc filename inside the output directory.
func WithLocName(name string) Opt {
	return func(w *Writer) error {
		w.locName = name
		return nil
	}
}

// Result describes a finished conversion.
type Result struct {
	ShardPaths []string
	IdxPath    string
	LocPath    string
	Lines      int
	Chunks     int
}

// WriteAll consumes the whole of r in one pass and writes shards, idx
// and loc files. Input lines must already be sorted; their order is
// preserved across chunk and shard boundaries. On error the run is
// aborted and any partial output must be treated as unusable.
func (w *Writer) WriteAll(ctx context.Context, r io.Reader) (*Result, error) {
	threshold := w.shardSize
	if w.singleShard {
		threshold = math.MaxInt64
	}

	sw, err := newShardWriter(w.outputDir, w.base, threshold)
	if err != nil {
		return nil, err
	}

	idxPath := filepath.Join(w.outputDir, w.idxName)
	ie, err := newIndexEmitter(idxPath)
	if err != nil {
		sw.close()
		return nil, err
	}

	glog.V(1).Infof("run %s: writing to %s, chunk size %d, shard threshold %d bytes",
		w.id, w.outputDir, w.chunkSize, threshold)

	res := &Result{
		IdxPath: idxPath,
		LocPath: filepath.Join(w.outputDir, w.locName),
	}

	chunker := NewChunker(r, w.chunkSize)
	for chunker.Next() {
		select {
		case <-ctx.Done():
			sw.close()
			ie.close()
			return nil, ctx.Err()
		default:
		}

		lines := chunker.Chunk()
		key := ChunkKey(lines[0])

		compressed, err := compressChunk(lines, w.compressLevel)
		if err != nil {
			sw.close()
			ie.close()
			return nil, err
		}

		start, length, shardNum, err := sw.append(compressed)
		if err != nil {
			sw.close()
			ie.close()
			return nil, err
		}

		if err := ie.emit(key, sw.shardName(shardNum), start, length, shardNum); err != nil {
			sw.close()
			ie.close()
			return nil, err
		}

		res.Chunks++
		res.Lines += len(lines)
		linesRead.Add(float64(len(lines)))
		chunksWritten.Inc()

		if glog.V(3) {
			glog.Infof("chunk %d: %d lines, %d bytes at %s:%d",
				res.Chunks, len(lines), length, sw.shardName(shardNum), start)
		}
	}
	if err := chunker.Err(); err != nil {
		sw.close()
		ie.close()
		return nil, errors.Wrap(err, "failed reading input")
	}

	if err := ie.finalize(); err != nil {
		sw.close()
		return nil, err
	}
	if err := sw.finalize(); err != nil {
		return nil, err
	}

	res.ShardPaths = append(res.ShardPaths, sw.paths...)

	if err := writeLocFile(res.LocPath, sw.paths); err != nil {
		return nil, err
	}

	glog.V(1).Infof("run %s: wrote %d lines as %d chunks to %d shards",
		w.id, res.Lines, res.Chunks, len(res.ShardPaths))

	return res, nil
}
