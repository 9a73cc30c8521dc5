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

package main

import (
	"github.com/QubitProducts/zipnum/cmd/zipnum/root"

	_ "github.com/QubitProducts/zipnum/cmd/zipnum/completion"
	_ "github.com/QubitProducts/zipnum/cmd/zipnum/convert"
	_ "github.com/QubitProducts/zipnum/cmd/zipnum/inspect"
)

func main() {
	root.Main()
}
