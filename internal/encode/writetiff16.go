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


package encode

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"github.com/photonoise/ppne/internal/hdr"
)

// Write a radiance frame as 16-bit TIFF, mapping [min,max] onto sample
// range with the given gamma. Data stays linear for gamma 1.
func WriteTIFF16(f *hdr.Image, writer io.Writer, min, max, gamma float32) error {
	width, height:=int(f.Width), int(f.Height)
	img:=image.NewRGBA64(image.Rect(0, 0, width, height))
	scale:=1.0/(max-min)
	gammaInv:=float64(1.0/gamma)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			off:=(yoffset+x)*3
			r:=tonemapSample(f.Data[off  ], min, scale, gammaInv)
			g:=tonemapSample(f.Data[off+1], min, scale, gammaInv)
			b:=tonemapSample(f.Data[off+2], min, scale, gammaInv)
			c:=color.RGBA64{uint16(r*65535), uint16(g*65535), uint16(b*65535), 65535}
			img.SetRGBA64(x, y, c)
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Write a radiance frame as 16-bit TIFF to the given file
func WriteTIFF16ToFile(f *hdr.Image, fileName string, min, max, gamma float32) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return WriteTIFF16(f, writer, min, max, gamma)
}
