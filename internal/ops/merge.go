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


// Package ops wires the metadata provider, the decoder, the estimator
// and the output writers into runnable merge and stats operations,
// shared between the command line and the REST API.
package ops

import (
	"fmt"
	"path/filepath"

	"github.com/photonoise/ppne/internal/conf"
	"github.com/photonoise/ppne/internal/decode"
	"github.com/photonoise/ppne/internal/encode"
	"github.com/photonoise/ppne/internal/exif"
	"github.com/photonoise/ppne/internal/hdr"
)

// Expands file patterns into an ordered list of paths. Plain paths pass
// through unchanged, so callers can mix globs and explicit files.
func Glob(patterns []string) ([]string, error) {
	paths:=[]string{}
	for _, pattern:=range patterns {
		matches, err:=filepath.Glob(pattern)
		if err!=nil { return nil, fmt.Errorf("globbing '%s': %v", pattern, err) }
		if len(matches)==0 {
			paths=append(paths, pattern)
			continue
		}
		paths=append(paths, matches...)
	}
	return paths, nil
}

// Merges the frames matching the given patterns and writes the outputs
// selected in opt. Returns the merged radiance map.
func Merge(patterns []string, opt conf.Options, c *hdr.Context) (*hdr.Image, error) {
	paths, err:=Glob(patterns)
	if err!=nil { return nil, err }
	if len(paths)==0 { return nil, fmt.Errorf("%w: no frames given", hdr.ErrInsufficientInput) }

	est:=hdr.NewEstimator(exif.NewProvider(), decode.NewReader(), opt.Coefficients)
	merged, err:=est.Estimate(paths, c)
	if err!=nil { return nil, err }

	s:=hdr.CalcStats(merged.Data, hdr.DefaultStatsSamples)
	fmt.Fprintf(c.Log, "Merged %d frames, total exposure %gs: %s\n", len(paths), merged.Exposure, s)

	if opt.Output.FileName!="" {
		if err:=encode.WriteRGBEToFile(merged, opt.Output.FileName); err!=nil {
			return nil, fmt.Errorf("writing '%s': %v", opt.Output.FileName, err)
		}
		fmt.Fprintf(c.Log, "Saved radiance map to %s\n", opt.Output.FileName)
	}
	if opt.Output.TIFF!="" {
		if err:=encode.WriteTIFF16ToFile(merged, opt.Output.TIFF, s.Min, s.Max, opt.Output.Gamma); err!=nil {
			return nil, fmt.Errorf("writing '%s': %v", opt.Output.TIFF, err)
		}
		fmt.Fprintf(c.Log, "Saved 16-bit TIFF to %s\n", opt.Output.TIFF)
	}
	if opt.Output.JPG!="" {
		if err:=encode.WriteJPGToFile(merged, opt.Output.JPG, s.Min, s.Max, opt.Output.Gamma, opt.Output.Quality, opt.Output.JPGMaxWidth); err!=nil {
			return nil, fmt.Errorf("writing '%s': %v", opt.Output.JPG, err)
		}
		fmt.Fprintf(c.Log, "Saved preview to %s\n", opt.Output.JPG)
	}

	return merged, nil
}

// Prints per-frame radiance statistics for the frames matching the
// given patterns, without merging them
func Stats(patterns []string, opt conf.Options, c *hdr.Context) error {
	paths, err:=Glob(patterns)
	if err!=nil { return err }
	if len(paths)==0 { return fmt.Errorf("%w: no frames given", hdr.ErrInsufficientInput) }

	prov:=exif.NewProvider()
	exposures, err:=prov.Exposures(paths)
	if err!=nil { return err }
	gains, err:=prov.Gains(paths)
	if err!=nil { return err }

	reader:=decode.NewReader()
	for i, path:=range paths {
		f, err:=reader.ReadFrame(path)
		if err!=nil { return err }
		f.ID, f.Exposure, f.Gain=i, exposures[i], gains[i]

		rad, err:=hdr.ScaleRadiance(f.Data, f.Exposure, f.Gain, opt.Coefficients)
		if err!=nil { return fmt.Errorf("%d: %s: %w", f.ID, f.FileName, err) }
		s:=hdr.CalcStats(rad, hdr.DefaultStatsSamples)
		fmt.Fprintf(c.Log, "%d: %s %dx%d exposure %gs gain %g: %s\n", f.ID, f.FileName, f.Width, f.Height, f.Exposure, f.Gain, s)

		hdr.PutArrayOfFloat32IntoPool(rad)
		hdr.PutArrayOfFloat32IntoPool(f.Data)
	}
	return nil
}
