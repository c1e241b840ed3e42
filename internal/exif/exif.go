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


// Package exif retrieves per-frame exposure times and sensor gains from
// image metadata. It is the metadata provider of the merging pipeline.
package exif

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/photonoise/ppne/internal/hdr"
)

// ISO value treated as unit gain. Gain scales linearly with ISO, and any
// constant reference only rescales the merged radiance map globally.
const unitGainISO=100

// Reads capture metadata from the EXIF blocks of the image files
// themselves. Implements hdr.MetadataProvider. Each file is parsed once,
// exposure and gain lookups share the cached parse. One Provider serves
// one merge; it is not safe for concurrent use.
type Provider struct {
	cache map[string]*exif.Exif
}

func NewProvider() Provider { return Provider{cache: map[string]*exif.Exif{}} }

// Returns the exposure time in seconds for each path, index-aligned
func (p Provider) Exposures(paths []string) ([]float32, error) {
	exposures:=make([]float32, len(paths))
	for i, path:=range paths {
		ex, err:=p.decodeFile(path)
		if err!=nil { return nil, err }

		tag, err:=ex.Get(exif.ExposureTime)
		if err!=nil { return nil, fmt.Errorf("%w: %s: ExposureTime: %v", hdr.ErrMetadata, path, err) }
		num, denom, err:=tag.Rat2(0)
		if err!=nil { return nil, fmt.Errorf("%w: %s: ExposureTime: %v", hdr.ErrMetadata, path, err) }

		exposure, err:=exposureFromRat(num, denom)
		if err!=nil { return nil, fmt.Errorf("%w: %s: %v", hdr.ErrMetadata, path, err) }
		exposures[i]=exposure
	}
	return exposures, nil
}

// Returns the sensor gain for each path, index-aligned, with ISO 100 as unit gain
func (p Provider) Gains(paths []string) ([]float32, error) {
	gains:=make([]float32, len(paths))
	for i, path:=range paths {
		ex, err:=p.decodeFile(path)
		if err!=nil { return nil, err }

		tag, err:=ex.Get(exif.ISOSpeedRatings)
		if err!=nil { return nil, fmt.Errorf("%w: %s: ISOSpeedRatings: %v", hdr.ErrMetadata, path, err) }
		iso, err:=tag.Int64(0)
		if err!=nil { return nil, fmt.Errorf("%w: %s: ISOSpeedRatings: %v", hdr.ErrMetadata, path, err) }

		gain, err:=gainFromISO(iso)
		if err!=nil { return nil, fmt.Errorf("%w: %s: %v", hdr.ErrMetadata, path, err) }
		gains[i]=gain
	}
	return gains, nil
}

func (p Provider) decodeFile(path string) (*exif.Exif, error) {
	if ex, ok:=p.cache[path]; ok { return ex, nil }

	reader, err:=os.Open(path)
	if err!=nil { return nil, fmt.Errorf("%w: %s: %v", hdr.ErrMetadata, path, err) }
	defer reader.Close()

	ex, err:=exif.Decode(reader)
	if err!=nil { return nil, fmt.Errorf("%w: %s: EXIF parsing: %v", hdr.ErrMetadata, path, err) }
	p.cache[path]=ex
	return ex, nil
}

func exposureFromRat(num, denom int64) (float32, error) {
	if num<=0 || denom<=0 {
		return 0, fmt.Errorf("exposure time %d/%d is not positive", num, denom)
	}
	return float32(num)/float32(denom), nil
}

func gainFromISO(iso int64) (float32, error) {
	if iso<=0 {
		return 0, fmt.Errorf("ISO %d is not positive", iso)
	}
	return float32(iso)/unitGainISO, nil
}
