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
	"strings"
	"unicode/utf8"
)

// ChunkKey returns the sortable index key for a raw CDXJ line: the
// portion before the first '{' if one is present, otherwise the whole
// line. The line terminator is stripped and the result is trimmed of
// surrounding whitespace. Bytes that are not valid UTF-8 are replaced
// rather than rejected, so every line yields a key.
func ChunkKey(line []byte) string {
	s := strings.ToValidUTF8(string(line), string(utf8.RuneError))
	s = strings.TrimRight(s, "\r\n")
	if i := strings.IndexByte(s, '{'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
