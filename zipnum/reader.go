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
	"compress/gzip"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IndexRecord is one parsed line of an idx file.
type IndexRecord struct {
	Key       string
	ShardName string
	Offset    int64
	Length    int64
	ShardNum  int
}

// LocRecord is one parsed line of a loc file.
type LocRecord struct {
	ShardName string
	Filename  string
}

// ReadIndex parses an idx file into records, in file order.
func ReadIndex(path string) ([]IndexRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open idx file %s", path)
	}
	defer f.Close()

	var recs []IndexRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 5 {
			return nil, errors.Errorf("malformed idx record %q in %s", scanner.Text(), path)
		}

		offset, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad offset in idx record %q", scanner.Text())
		}
		length, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad length in idx record %q", scanner.Text())
		}
		num, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, errors.Wrapf(err, "bad shard number in idx record %q", scanner.Text())
		}

		recs = append(recs, IndexRecord{
			Key:       fields[0],
			ShardName: fields[1],
			Offset:    offset,
			Length:    length,
			ShardNum:  num,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading idx file %s", path)
	}

	return recs, nil
}

// ReadLoc parses a loc file into records, in file order.
func ReadLoc(path string) ([]LocRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open loc file %s", path)
	}
	defer f.Close()

	var recs []LocRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 2 {
			return nil, errors.Errorf("malformed loc record %q in %s", scanner.Text(), path)
		}
		recs = append(recs, LocRecord{ShardName: fields[0], Filename: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed reading loc file %s", path)
	}

	return recs, nil
}

// ReadChunkAt decompresses the single gzip member occupying
// [offset, offset+length) of the shard file. No bytes outside that
// range are read, which is the access pattern replay tools use over
// HTTP range requests.
func ReadChunkAt(shardPath string, offset, length int64) ([]byte, error) {
	f, err := os.Open(shardPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open shard %s", shardPath)
	}
	defer f.Close()

	sr := io.NewSectionReader(f, offset, length)
	gzr, err := gzip.NewReader(sr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open chunk at %s:%d", shardPath, offset)
	}
	defer gzr.Close()

	data, err := ioutil.ReadAll(gzr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decompress chunk at %s:%d", shardPath, offset)
	}

	return data, nil
}
