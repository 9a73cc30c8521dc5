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

package root

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the base command all subcommands register onto in their
// package init.
var RootCmd = &cobra.Command{
	Use:   "zipnum",
	Short: "zipnum builds ZipNum sharded index files from sorted CDX/CDXJ streams",
}

// Main executes the root command, exposing the glog flag set on it.
func Main() {
	RootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
