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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	linesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zipnum_lines_read_total",
		Help: "Counter of input lines consumed since process start.",
	})
	chunksWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zipnum_chunks_written_total",
		Help: "Counter of compressed chunks written since process start.",
	})
	shardsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zipnum_shards_opened_total",
		Help: "Counter of shard files opened since process start.",
	})
	compressedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zipnum_compressed_bytes_total",
		Help: "Counter of compressed bytes written to shards since process start.",
	})
)

func init() {
	prometheus.MustRegister(linesRead)
	prometheus.MustRegister(chunksWritten)
	prometheus.MustRegister(shardsOpened)
	prometheus.MustRegister(compressedBytes)
}
