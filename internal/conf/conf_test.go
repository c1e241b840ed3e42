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


package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/photonoise/ppne/internal/hdr"
)

func TestLoad(t *testing.T) {
	path:=filepath.Join(t.TempDir(), "ppne.yaml")
	if err:=os.WriteFile(path, []byte("output: {fileName: merged.hdr}"), 0666); err!=nil { t.Fatalf("writing config: %v", err) }

	o, err:=Load(path)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if o.Output.FileName!="merged.hdr" { t.Errorf("fileName=%s; want merged.hdr", o.Output.FileName) }

	if _, err:=Load(filepath.Join(t.TempDir(), "missing.yaml")); err==nil {
		t.Errorf("err=nil; want read error for missing config")
	}
}

func TestFromYaml(t *testing.T) {
	o, err:=FromYaml([]byte(`
coefficients:
  red:   2.0
  green: 1.0
  blue:  0.5

output:
  fileName: merged.hdr
  jpg:      merged.jpg
  gamma:    2.2
  quality:  90
`))
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if o.Coefficients.R!=2 || o.Coefficients.G!=1 || o.Coefficients.B!=0.5 {
		t.Errorf("coefficients=(%g,%g,%g); want (2,1,0.5)", o.Coefficients.R, o.Coefficients.G, o.Coefficients.B)
	}
	if o.Output.FileName!="merged.hdr" { t.Errorf("fileName=%s; want merged.hdr", o.Output.FileName) }
	if o.Output.JPG!="merged.jpg" { t.Errorf("jpg=%s; want merged.jpg", o.Output.JPG) }
	if o.Output.Gamma!=2.2 { t.Errorf("gamma=%g; want 2.2", o.Output.Gamma) }
	if o.Output.Quality!=90 { t.Errorf("quality=%d; want 90", o.Output.Quality) }
	if o.Serve.Addr!=":8080" { t.Errorf("addr=%s; want :8080 default", o.Serve.Addr) }
}

func TestFromYamlDefaults(t *testing.T) {
	o, err:=FromYaml([]byte(""))
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if o.Coefficients!=hdr.DefaultCoefficients { t.Errorf("coefficients=%+v; want unit defaults", o.Coefficients) }
	if o.Output.FileName!="out.hdr" { t.Errorf("fileName=%s; want out.hdr", o.Output.FileName) }
	if o.Output.JPG!="out.jpg" { t.Errorf("jpg=%s; want out.jpg derived from fileName", o.Output.JPG) }
}

func TestFinalizeNoPreviewWithoutOutput(t *testing.T) {
	o:=New()
	o.Output.FileName=""
	if err:=o.Finalize(); err!=nil { t.Fatalf("err=%v; want nil", err) }
	if o.Output.JPG!="" { t.Errorf("jpg=%s; want empty when no output file is set", o.Output.JPG) }
}

func TestFromYamlRejectsBadCoefficients(t *testing.T) {
	_, err:=FromYaml([]byte("coefficients: {red: 0, green: 1, blue: 1}"))
	if err==nil { t.Errorf("err=nil; want coefficient validation error") }
}

func TestFromYamlRejectsBadGamma(t *testing.T) {
	_, err:=FromYaml([]byte("output: {gamma: -1}"))
	if err==nil { t.Errorf("err=nil; want gamma validation error") }
}
