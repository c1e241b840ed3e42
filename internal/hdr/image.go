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


package hdr

import (
	"fmt"
)

// A single exposure of the scene, decoded into linear light.
// Data holds interleaved RGB samples, so len(Data)==Width*Height*3.
type Image struct {
	ID       int     // Sequential ID number, for log output. Counted upwards from 0
	FileName string  // Original file name, if any, for log output

	Width  int32     // Image width in pixels
	Height int32     // Image height in pixels

	Data []float32   // Interleaved R,G,B samples in [0,1]

	Exposure float32 // Exposure time in seconds, from metadata
	Gain     float32 // Sensor gain, from metadata. ISO 100 is unit gain
}

// Creates an image of the given dimensions. Data is not copied, allocated from the pool if nil
func NewImage(width, height int32, data []float32) *Image {
	if data==nil {
		data=GetArrayOfFloat32FromPool(int(width)*int(height)*3)
	}
	return &Image{
		Width : width,
		Height: height,
		Data  : data,
	}
}

// Print image as a human-readable string
func (img *Image) String() string {
	return fmt.Sprintf("Image %d %s %dx%d exposure %gs gain %g",
		img.ID, img.FileName, img.Width, img.Height, img.Exposure, img.Gain)
}

// The relative per-channel sensor sensitivity weighting applied when
// converting pixel values into radiance. Fixed for the lifetime of a run.
type RGBCoefficients struct {
	R float32 `yaml:"red"`
	G float32 `yaml:"green"`
	B float32 `yaml:"blue"`
}

// Unit coefficients, treating all three channels as equally sensitive
var DefaultCoefficients=RGBCoefficients{R:1, G:1, B:1}

// Validates that all three coefficients are strictly positive
func (c RGBCoefficients) Validate() error {
	if c.R<=0 || c.G<=0 || c.B<=0 {
		return fmt.Errorf("channel coefficients must be positive, have (%g, %g, %g)", c.R, c.G, c.B)
	}
	return nil
}
