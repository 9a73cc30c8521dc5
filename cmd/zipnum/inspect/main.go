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

package inspect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/QubitProducts/zipnum/cmd/zipnum/root"
	"github.com/QubitProducts/zipnum/zipnum"
)

var (
	chunkNum int
	locPath  string
)

func init() {
	root.RootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVar(&chunkNum, "chunk", -1, "Decompress and print this chunk (0-based idx record number)")
	inspectCmd.Flags().StringVar(&locPath, "loc", "", "Loc file used to resolve shard names to files")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "inspect dumps the records of a ZipNum idx file",
	Long: `inspect lists the records of an idx file, or with --chunk fetches a
	single chunk by its recorded byte range and prints the decompressed
	lines. Only the chunk's own byte range is read, so this doubles as a
	check that each chunk is independently decompressible.`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("pass one idx file name")
	}

	recs, err := zipnum.ReadIndex(args[0])
	if err != nil {
		return err
	}

	if chunkNum < 0 {
		for i, r := range recs {
			fmt.Printf("%d\t%s\t%s\t%d\t%d\t%d\n", i, r.Key, r.ShardName, r.Offset, r.Length, r.ShardNum)
		}
		return nil
	}

	if chunkNum >= len(recs) {
		return errors.Errorf("idx has only %d records", len(recs))
	}
	rec := recs[chunkNum]

	shardFile, err := resolveShard(filepath.Dir(args[0]), rec.ShardName)
	if err != nil {
		return err
	}

	data, err := zipnum.ReadChunkAt(shardFile, rec.Offset, rec.Length)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}

// resolveShard maps an idx shard name to a shard file path, via the
// loc file when given, otherwise by the conventional name next to the
// idx file.
func resolveShard(dir, shardName string) (string, error) {
	if locPath == "" {
		return filepath.Join(dir, shardName+".cdx.gz"), nil
	}

	locs, err := zipnum.ReadLoc(locPath)
	if err != nil {
		return "", err
	}
	for _, l := range locs {
		if l.ShardName == shardName {
			return filepath.Join(dir, l.Filename), nil
		}
	}
	return "", errors.Errorf("shard %s not found in %s", shardName, locPath)
}
