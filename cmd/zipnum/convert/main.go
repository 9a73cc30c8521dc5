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

package convert

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/golang/glog"
	"github.com/graymeta/stow"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/QubitProducts/zipnum/cmd/zipnum/root"
	"github.com/QubitProducts/zipnum/zipnum"
)

var (
	input         string
	output        string
	shardSizeMB   int
	singleShard   bool
	chunkSize     int
	compressLevel int
	base          string
	idxFile       string
	locFile       string
	configFile    string

	publishKind      string
	publishContainer string
	publishConfig    []string
)

func init() {
	root.RootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&input, "input", "i", "", "Input CDX/CDXJ path (plain or .gz), or - for stdin")
	convertCmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for shards, idx and loc")
	convertCmd.Flags().IntVarP(&shardSizeMB, "shard-size", "s", zipnum.DefaultShardSizeMB, "Target shard size in MB, ignored with --single-shard")
	convertCmd.Flags().BoolVar(&singleShard, "single-shard", false, "Write one shard regardless of size")
	convertCmd.Flags().IntVarP(&chunkSize, "chunk-size", "c", zipnum.DefaultChunkSize, "Lines per chunk")
	convertCmd.Flags().IntVar(&compressLevel, "compress-level", zipnum.DefaultCompressionLevel, "Gzip level 1-9, lower is faster, higher is smaller")
	convertCmd.Flags().StringVar(&base, "base", "", "Base name for output files, defaults to the output dir name")
	convertCmd.Flags().StringVar(&idxFile, "idx-file", "", "Index filename, written inside the output dir")
	convertCmd.Flags().StringVar(&locFile, "loc-file", "", "Loc filename, written inside the output dir")
	convertCmd.Flags().StringVar(&configFile, "config", "", "YAML file with conversion settings, explicit flags take precedence")
	convertCmd.Flags().StringVar(&publishKind, "publish.kind", "", "Storage backend to publish the results to (local, s3)")
	convertCmd.Flags().StringVar(&publishContainer, "publish.container", "", "Container or bucket to publish into")
	convertCmd.Flags().StringSliceVar(&publishConfig, "publish.config", nil, "Backend configuration as key=value pairs")
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "convert packs a sorted CDX/CDXJ stream into ZipNum shards",
	Long: `convert reads one sorted CDX/CDXJ stream (plain, gzipped, or stdin)
	and splits it into chunks of --chunk-size lines. Each chunk is compressed
	as an independent gzip member and appended to the current shard file,
	rolling over to a new shard once --shard-size is reached. The idx file
	records every chunk's key, shard, compressed offset and length so chunks
	can be fetched with HTTP range requests; the loc file maps shard names to
	files. Input must already be sorted, the order is preserved as-is.`,
	Example: `  zcat merged.cdxj.gz | zipnum convert -i - -o outdir
  zipnum convert -i input.cdxj.gz -o outdir -s 200 -c 3000
  zipnum convert -i input.cdxj -o outdir --single-shard --base myindex`,
	RunE: run,
}

// fileConfig mirrors the convert flags for --config files.
type fileConfig struct {
	Input         string `yaml:"input"`
	Output        string `yaml:"output"`
	ShardSizeMB   int    `yaml:"shard_size_mb"`
	SingleShard   bool   `yaml:"single_shard"`
	ChunkSize     int    `yaml:"chunk_size"`
	CompressLevel int    `yaml:"compress_level"`
	Base          string `yaml:"base"`
	IdxFile       string `yaml:"idx_file"`
	LocFile       string `yaml:"loc_file"`
}

func run(cmd *cobra.Command, args []string) error {
	flag.Set("logtostderr", "true")
	flag.Parse()
	glog.CopyStandardLogTo("INFO")

	if configFile != "" {
		if err := applyConfigFile(cmd, configFile); err != nil {
			return err
		}
	}

	if input == "" || output == "" {
		return errors.New("both --input and --output are required")
	}

	opts := []zipnum.Opt{
		zipnum.WithChunkSize(chunkSize),
		zipnum.WithShardSize(shardSizeMB),
		zipnum.WithCompressionLevel(compressLevel),
	}
	if singleShard {
		opts = append(opts, zipnum.WithSingleShard())
	}
	if base != "" {
		opts = append(opts, zipnum.WithBase(base))
	}
	if idxFile != "" {
		opts = append(opts, zipnum.WithIdxName(idxFile))
	}
	if locFile != "" {
		opts = append(opts, zipnum.WithLocName(locFile))
	}

	w, err := zipnum.New(output, opts...)
	if err != nil {
		return err
	}

	in, err := zipnum.OpenInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := w.WriteAll(context.Background(), in)
	if err != nil {
		return err
	}

	if publishKind != "" {
		cfg := stow.ConfigMap{}
		for _, kv := range publishConfig {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return errors.Errorf("malformed publish.config entry %q, want key=value", kv)
			}
			cfg[parts[0]] = parts[1]
		}
		if err := zipnum.Publish(res, publishKind, publishContainer, cfg); err != nil {
			return err
		}
	}

	fmt.Printf("Finished. Wrote %d shard file(s), index: %s, loc: %s\n",
		len(res.ShardPaths), res.IdxPath, res.LocPath)

	return nil
}

// applyConfigFile fills in settings from a YAML file for every flag
// the user did not set explicitly.
func applyConfigFile(cmd *cobra.Command, path string) error {
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	cf := fileConfig{}
	if err := yaml.Unmarshal(bs, &cf); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}

	flags := cmd.Flags()
	if !flags.Changed("input") && cf.Input != "" {
		input = cf.Input
	}
	if !flags.Changed("output") && cf.Output != "" {
		output = cf.Output
	}
	if !flags.Changed("shard-size") && cf.ShardSizeMB != 0 {
		shardSizeMB = cf.ShardSizeMB
	}
	if !flags.Changed("single-shard") && cf.SingleShard {
		singleShard = true
	}
	if !flags.Changed("chunk-size") && cf.ChunkSize != 0 {
		chunkSize = cf.ChunkSize
	}
	if !flags.Changed("compress-level") && cf.CompressLevel != 0 {
		compressLevel = cf.CompressLevel
	}
	if !flags.Changed("base") && cf.Base != "" {
		base = cf.Base
	}
	if !flags.Changed("idx-file") && cf.IdxFile != "" {
		idxFile = cf.IdxFile
	}
	if !flags.Changed("loc-file") && cf.LocFile != "" {
		locFile = cf.LocFile
	}

	return nil
}
