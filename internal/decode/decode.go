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


// Package decode materializes image files as linear RGB float32 frames.
// It is the image decoder of the merging pipeline. Only 3-channel RGB
// images are accepted; grayscale, CMYK, and images with a used alpha
// channel are rejected rather than converted.
package decode

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/photonoise/ppne/internal/hdr"
)

// Decodes frames from the local filesystem. Implements hdr.FrameReader.
type Reader struct{}

func NewReader() Reader { return Reader{} }

// Reads and decodes one frame. Supported formats are JPEG, PNG and TIFF.
func (r Reader) ReadFrame(path string) (*hdr.Image, error) {
	file, err:=os.Open(path)
	if err!=nil { return nil, fmt.Errorf("%w: %s: %v", hdr.ErrDecode, path, err) }
	defer file.Close()

	f, err:=Decode(bufio.NewReader(file))
	if err!=nil { return nil, fmt.Errorf("%w: %s: %v", hdr.ErrDecode, path, err) }
	f.FileName=path
	return f, nil
}

// Decodes one frame from the given reader into interleaved RGB float32
// samples in [0,1]. Rejects non-RGB color encodings.
func Decode(r io.Reader) (*hdr.Image, error) {
	img, _, err:=image.Decode(r)
	if err!=nil { return nil, err }

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return nil, fmt.Errorf("grayscale images are not supported")
	case *image.Paletted:
		return nil, fmt.Errorf("paletted images are not supported")
	case *image.CMYK:
		return nil, fmt.Errorf("CMYK images are not supported")
	}
	// Truecolor PNGs decode to RGBA types even without an alpha channel,
	// so alpha rejection keys on whether alpha is actually used
	if o, ok:=img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return nil, fmt.Errorf("images with an alpha channel are not supported")
	}

	bounds:=img.Bounds()
	width, height:=int32(bounds.Dx()), int32(bounds.Dy())
	f:=hdr.NewImage(width, height, nil)

	i:=0
	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			r, g, b, _:=img.At(x, y).RGBA()
			f.Data[i  ]=float32(r)/65535
			f.Data[i+1]=float32(g)/65535
			f.Data[i+2]=float32(b)/65535
			i+=3
		}
	}
	return f, nil
}
