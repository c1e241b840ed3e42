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


// Package encode writes merged radiance maps to disk: Radiance RGBE
// (.hdr) for the full dynamic range, 16-bit TIFF and 8-bit JPEG previews
// for quick inspection.
package encode

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/photonoise/ppne/internal/hdr"
)

// Adapts a radiance frame to the hdr.Image interface of mdouchement/hdr
type radianceImage struct {
	f *hdr.Image
}

func (ri radianceImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (ri radianceImage) Bounds() image.Rectangle { return image.Rect(0, 0, int(ri.f.Width), int(ri.f.Height)) }
func (ri radianceImage) Size() int               { return int(ri.f.Width)*int(ri.f.Height) }
func (ri radianceImage) At(x, y int) color.Color { return ri.HDRAt(x, y) }

func (ri radianceImage) HDRAt(x, y int) hdrcolor.Color {
	off:=(y*int(ri.f.Width)+x)*3
	return hdrcolor.RGB{
		R: float64(ri.f.Data[off]),
		G: float64(ri.f.Data[off+1]),
		B: float64(ri.f.Data[off+2]),
	}
}

// Writes a radiance frame as Radiance RGBE (.hdr), preserving the full
// dynamic range of the merge
func WriteRGBE(f *hdr.Image, writer io.Writer) error {
	return rgbe.Encode(writer, radianceImage{f: f})
}

// Writes a radiance frame as Radiance RGBE (.hdr) to the given file
func WriteRGBEToFile(f *hdr.Image, fileName string) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return WriteRGBE(f, writer)
}
