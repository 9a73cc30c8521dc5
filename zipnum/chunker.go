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
	"bufio"
	"io"
)

// Chunker groups consecutive input lines into chunks of at most
// chunkSize lines, preserving arrival order and the original line
// terminators. It never holds more than one chunk's worth of lines.
type Chunker struct {
	r         *bufio.Reader
	chunkSize int
	chunk     [][]byte
	err       error
}

// NewChunker returns a Chunker reading lines from r.
func NewChunker(r io.Reader, chunkSize int) *Chunker {
	return &Chunker{
		r:         bufio.NewReaderSize(r, 64*1024),
		chunkSize: chunkSize,
	}
}

// Next advances to the next chunk. It returns false at end of input or
// on read error, Err tells the two apart. The final chunk may hold
// fewer than chunkSize lines; a trailing line without a terminator
// still counts as a line.
func (c *Chunker) Next() bool {
	if c.err != nil {
		return false
	}

	c.chunk = c.chunk[:0]
	for len(c.chunk) < c.chunkSize {
		line, err := c.r.ReadBytes('\n')
		if len(line) > 0 {
			c.chunk = append(c.chunk, line)
		}
		if err == io.EOF {
			c.err = err
			break
		}
		if err != nil {
			c.err = err
			return false
		}
	}

	return len(c.chunk) > 0
}

// Chunk returns the lines of the current chunk. The backing slice is
// reused by the next call to Next.
func (c *Chunker) Chunk() [][]byte {
	return c.chunk
}

// Err returns the first read error other than end of input.
func (c *Chunker) Err() error {
	if c.err == io.EOF {
		return nil
	}
	return c.err
}
