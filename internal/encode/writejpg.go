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
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"github.com/photonoise/ppne/internal/hdr"
)

// Write a radiance frame as 8-bit JPEG preview, mapping [min,max] onto
// display range with the given gamma and an sRGB transfer curve.
// maxWidth>0 downscales previews wider than that, preserving aspect ratio.
func WriteJPG(f *hdr.Image, writer io.Writer, min, max, gamma float32, quality, maxWidth int) error {
	width, height:=int(f.Width), int(f.Height)
	img:=image.NewRGBA(image.Rect(0, 0, width, height))
	scale:=1.0/(max-min)
	gammaInv:=float64(1.0/gamma)
	for y:=0; y<height; y++ {
		yoffset:=y*width
		for x:=0; x<width; x++ {
			off:=(yoffset+x)*3
			r:=tonemapSample(f.Data[off  ], min, scale, gammaInv)
			g:=tonemapSample(f.Data[off+1], min, scale, gammaInv)
			b:=tonemapSample(f.Data[off+2], min, scale, gammaInv)
			cr, cg, cb:=colorful.LinearRgb(r, g, b).Clamped().RGB255()
			i:=img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]=cr, cg, cb, 255
		}
	}

	var out image.Image=img
	if maxWidth>0 && width>maxWidth {
		out=resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
	}

	return jpeg.Encode(writer, out, &jpeg.Options{Quality: quality})
}

// Write a radiance frame as 8-bit JPEG preview to the given file
func WriteJPGToFile(f *hdr.Image, fileName string, min, max, gamma float32, quality, maxWidth int) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	defer writer.Flush()

	return WriteJPG(f, writer, min, max, gamma, quality, maxWidth)
}

// Maps one radiance sample into display range [0,1], replacing NaNs with
// zero as JPEG output breaks on them
func tonemapSample(v, min, scale float32, gammaInv float64) float64 {
	v=(v-min)*scale
	if math.IsNaN(float64(v)) || v<0 { v=0 }
	if v>1 { v=1 }
	if gammaInv!=1.0 { return math.Pow(float64(v), gammaInv) }
	return float64(v)
}
