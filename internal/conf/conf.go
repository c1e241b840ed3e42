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


// Package conf loads run configuration from YAML files.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/photonoise/ppne/internal/hdr"
)

/* Example config file ...

coefficients:
  red:   1.0
  green: 1.0
  blue:  1.0

output:
  fileName: out.hdr
  tiff:     out.tif
  jpg:      out.jpg
  gamma:    1.0
  quality:  95
  jpgMaxWidth: 1920

serve:
  addr: :8080

*/

type OutputOptions struct {
	FileName    string  `yaml:"fileName"`    // Radiance .hdr output file
	TIFF        string  `yaml:"tiff"`        // optional 16-bit TIFF output file
	JPG         string  `yaml:"jpg"`         // optional JPEG preview file. %auto derives it from FileName
	Gamma       float32 `yaml:"gamma"`       // preview gamma
	Quality     int     `yaml:"quality"`     // JPEG quality
	JPGMaxWidth int     `yaml:"jpgMaxWidth"` // downscale previews wider than this, 0=off
}

type ServeOptions struct {
	Addr string `yaml:"addr"`
}

type Options struct {
	Coefficients hdr.RGBCoefficients `yaml:"coefficients"`
	Output       OutputOptions       `yaml:"output"`
	Serve        ServeOptions        `yaml:"serve"`
}

func New() Options {
	return Options{
		Coefficients: hdr.DefaultCoefficients,
		Output: OutputOptions{
			FileName: "out.hdr",
			JPG     : "%auto",
			Gamma   : 1,
			Quality : 95,
		},
		Serve: ServeOptions{Addr: ":8080"},
	}
}

// Loads options from a YAML file and finalizes them
func Load(fileName string) (Options, error) {
	contents, err:=os.ReadFile(fileName)
	if err!=nil { return New(), fmt.Errorf("config read '%s': %v", fileName, err) }
	return FromYaml(contents)
}

// Parses options from YAML content and finalizes them
func FromYaml(contents []byte) (Options, error) {
	o:=New()
	if err:=yaml.Unmarshal(contents, &o); err!=nil {
		return o, fmt.Errorf("config parse: %v", err)
	}
	return o, o.Finalize()
}

// Finalize does sanity checks and fills in derived defaults
func (o *Options) Finalize() error {
	if err:=o.Coefficients.Validate(); err!=nil { return err }
	if o.Output.Gamma<=0 {
		return fmt.Errorf("output gamma must be positive, have %g", o.Output.Gamma)
	}
	if o.Output.Quality<=0 || o.Output.Quality>100 {
		return fmt.Errorf("output quality must be in 1..100, have %d", o.Output.Quality)
	}
	if o.Output.JPG=="%auto" {
		if o.Output.FileName!="" {
			o.Output.JPG=strings.TrimSuffix(o.Output.FileName, filepath.Ext(o.Output.FileName))+".jpg"
		} else {
			o.Output.JPG=""
		}
	}
	if o.Serve.Addr=="" { o.Serve.Addr=":8080" }
	return nil
}
