// Copyright (C) 2023 The PPNE Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package ops

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/photonoise/ppne/internal/conf"
	"github.com/photonoise/ppne/internal/hdr"
)

func TestGlob(t *testing.T) {
	dir:=t.TempDir()
	for _, name:=range []string{"a.jpg", "b.jpg", "c.png"} {
		if err:=os.WriteFile(filepath.Join(dir, name), []byte{}, 0666); err!=nil { t.Fatalf("writing %s: %v", name, err) }
	}

	paths, err:=Glob([]string{filepath.Join(dir, "*.jpg")})
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if len(paths)!=2 { t.Errorf("len(paths)=%d; want 2", len(paths)) }

	// non-matching patterns pass through as explicit paths
	paths, err=Glob([]string{"exactly-this.jpg"})
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if len(paths)!=1 || paths[0]!="exactly-this.jpg" { t.Errorf("paths=%v; want [exactly-this.jpg]", paths) }
}

func TestMergeEmptyInput(t *testing.T) {
	c:=hdr.NewContext(&bytes.Buffer{})
	_, err:=Merge(nil, conf.New(), c)
	if !errors.Is(err, hdr.ErrInsufficientInput) { t.Errorf("err=%v; want insufficient input error", err) }
}

func TestStatsEmptyInput(t *testing.T) {
	c:=hdr.NewContext(&bytes.Buffer{})
	err:=Stats(nil, conf.New(), c)
	if !errors.Is(err, hdr.ErrInsufficientInput) { t.Errorf("err=%v; want insufficient input error", err) }
}
