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
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/graymeta/stow"
	_ "github.com/graymeta/stow/local"
	_ "github.com/graymeta/stow/s3"
)

// Publish uploads a finished conversion, shards plus idx and loc
// files, to a stow location. Items are named by their file basenames.
// It is only called after a fully successful conversion; a failed
// upload leaves the local output intact.
func Publish(res *Result, kind, containerName string, cfg stow.ConfigMap) error {
	loc, err := stow.Dial(kind, cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s storage", kind)
	}
	defer loc.Close()

	container, err := loc.Container(containerName)
	if err != nil {
		container, err = loc.CreateContainer(containerName)
		if err != nil {
			return errors.Wrapf(err, "failed to open container %s", containerName)
		}
	}

	files := append([]string{}, res.ShardPaths...)
	files = append(files, res.IdxPath, res.LocPath)
	for _, fn := range files {
		if err := putFile(container, fn); err != nil {
			return err
		}
	}

	return nil
}

func putFile(c stow.Container, fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s for upload", fn)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", fn)
	}

	glog.V(1).Infof("uploading %s (%d bytes)", fn, fi.Size())
	if _, err := c.Put(filepath.Base(fn), f, fi.Size(), nil); err != nil {
		return errors.Wrapf(err, "failed to upload %s", fn)
	}
	return nil
}
