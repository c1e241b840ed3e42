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
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b)))<=eps
}

func TestScaleRadiance(t *testing.T) {
	pixels:=[]float32{8, 8, 8}
	rad, err:=ScaleRadiance(pixels, 2, 2, RGBCoefficients{R:1, G:2, B:4})
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if len(rad)!=len(pixels) { t.Errorf("len(rad)=%d; want %d", len(rad), len(pixels)) }
	want:=[]float32{2, 1, 0.5}
	for i:=range want {
		if !approxEqual(rad[i], want[i], 1e-6) { t.Errorf("rad[%d]=%f; want %f", i, rad[i], want[i]) }
	}
}

func TestScaleRadianceShapeError(t *testing.T) {
	_, err:=ScaleRadiance([]float32{1, 2, 3, 4}, 1, 1, DefaultCoefficients)
	if !errors.Is(err, ErrShape) { t.Errorf("err=%v; want shape error", err) }
}

func TestScaleRadianceRejectsNonPositiveSettings(t *testing.T) {
	if _, err:=ScaleRadiance([]float32{1, 2, 3}, 0, 1, DefaultCoefficients); !errors.Is(err, ErrMetadata) {
		t.Errorf("exposure 0: err=%v; want metadata error", err)
	}
	if _, err:=ScaleRadiance([]float32{1, 2, 3}, 1, -1, DefaultCoefficients); !errors.Is(err, ErrMetadata) {
		t.Errorf("gain -1: err=%v; want metadata error", err)
	}
}

// A single frame merges to twice its own radiance: the accumulator is
// seeded with that frame and immediately folds it in again with weight 1
func TestAccumulateSingleFrame(t *testing.T) {
	rad:=[]float32{10, 20, 30}
	merged, err:=Accumulate([][]float32{rad}, []float32{2.5}, 2)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if len(merged)!=len(rad) { t.Errorf("len(merged)=%d; want %d", len(merged), len(rad)) }
	for i:=range rad {
		if !approxEqual(merged[i], 2*rad[i], 1e-4) { t.Errorf("merged[%d]=%f; want %f", i, merged[i], 2*rad[i]) }
	}
}

func TestAccumulateTwoFrames(t *testing.T) {
	radA:=[]float32{10, 20, 30}          // exposure 1s
	radB:=[]float32{5.0/3, 10.0/3, 5}    // [5,10,15] at exposure 3s
	merged, err:=Accumulate([][]float32{radA, radB}, []float32{1, 3}, 2)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	// step 0: (A+A)*1/4 = [5,10,15]; step 1: (acc+B)*3/4 = [5,10,15]
	want:=[]float32{5, 10, 15}
	for i:=range want {
		if !approxEqual(merged[i], want[i], 1e-4) { t.Errorf("merged[%d]=%f; want %f", i, merged[i], want[i]) }
	}
}

func TestAccumulateEmpty(t *testing.T) {
	_, err:=Accumulate(nil, nil, 2)
	if !errors.Is(err, ErrInsufficientInput) { t.Errorf("err=%v; want insufficient input error", err) }
}

func TestAccumulateMismatchedLengths(t *testing.T) {
	_, err:=Accumulate([][]float32{{1, 2, 3}, {1, 2, 3, 4, 5, 6}}, []float32{1, 1}, 2)
	if !errors.Is(err, ErrShape) { t.Errorf("err=%v; want shape error", err) }

	_, err=Accumulate([][]float32{{1, 2, 3}}, []float32{1, 1}, 2)
	if !errors.Is(err, ErrShape) { t.Errorf("exposure count mismatch: err=%v; want shape error", err) }
}

func TestAccumulateRejectsNonPositiveExposure(t *testing.T) {
	_, err:=Accumulate([][]float32{{1}, {2}}, []float32{1, 0}, 2)
	if !errors.Is(err, ErrMetadata) { t.Errorf("err=%v; want metadata error", err) }
}

// Scaling every input by k scales every output by k
func TestAccumulateLinearity(t *testing.T) {
	radA, radB:=[]float32{1, 2, 3}, []float32{4, 5, 6}
	kRadA, kRadB:=make([]float32, 3), make([]float32, 3)
	k:=float32(2.5)
	for i:=0; i<3; i++ { kRadA[i], kRadB[i]=k*radA[i], k*radB[i] }

	exposures:=[]float32{2, 5}
	merged,  err:=Accumulate([][]float32{radA,  radB},  exposures, 2)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	kMerged, err:=Accumulate([][]float32{kRadA, kRadB}, exposures, 2)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	for i:=range merged {
		if !approxEqual(kMerged[i], k*merged[i], 1e-4) { t.Errorf("kMerged[%d]=%f; want %f", i, kMerged[i], k*merged[i]) }
	}
}

// Increasing a frame's exposure increases its relative contribution
func TestAccumulateExposureMonotonicity(t *testing.T) {
	radA, radB:=[]float32{0}, []float32{1}
	prev:=float32(-1)
	for _, expB:=range []float32{0.5, 1, 2, 4, 8} {
		merged, err:=Accumulate([][]float32{radA, radB}, []float32{1, expB}, 2)
		if err!=nil { t.Fatalf("exposure %g: err=%v; want nil", expB, err) }
		if merged[0]<=prev { t.Errorf("exposure %g: merged[0]=%f; want > %f", expB, merged[0], prev) }
		prev=merged[0]
	}
}

// Larger buffers exercise the batched per-element parallelism of the fold
func TestAccumulateLargeBuffer(t *testing.T) {
	numSamples:=3*4096
	radA, radB:=make([]float32, numSamples), make([]float32, numSamples)
	for i:=0; i<numSamples; i++ { radA[i], radB[i]=float32(i), float32(2*i) }

	merged, err:=Accumulate([][]float32{radA, radB}, []float32{1, 1}, 4)
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	if len(merged)!=numSamples { t.Fatalf("len(merged)=%d; want %d", len(merged), numSamples) }
	for i:=0; i<numSamples; i++ {
		// step 0: (i+i)*1/2 = i; step 1: (i+2i)*1/2 = 1.5i
		want:=1.5*float32(i)
		if !approxEqual(merged[i], want, 1e-2*(want+1)) { t.Fatalf("merged[%d]=%f; want %f", i, merged[i], want) }
	}
}

type fakeMeta struct {
	exposures []float32
	gains     []float32
	err       error
}

func (m fakeMeta) Exposures(paths []string) ([]float32, error) { return m.exposures, m.err }
func (m fakeMeta) Gains(paths []string)     ([]float32, error) { return m.gains,     m.err }

type fakeReader map[string]*Image

func (r fakeReader) ReadFrame(path string) (*Image, error) {
	f, ok:=r[path]
	if !ok { return nil, fmt.Errorf("%w: %s: no such frame", ErrDecode, path) }
	clone:=*f
	clone.Data=append([]float32(nil), f.Data...)
	return &clone, nil
}

func newTestContext() *Context {
	c:=NewContext(&bytes.Buffer{})
	c.MaxThreads=2
	return c
}

func TestEstimateTwoFrames(t *testing.T) {
	reader:=fakeReader{
		"a": &Image{FileName: "a", Width: 1, Height: 1, Data: []float32{10, 20, 30}},
		"b": &Image{FileName: "b", Width: 1, Height: 1, Data: []float32{5, 10, 15}},
	}
	meta:=fakeMeta{exposures: []float32{1, 3}, gains: []float32{1, 1}}
	est:=NewEstimator(meta, reader, DefaultCoefficients)

	merged, err:=est.Estimate([]string{"a", "b"}, newTestContext())
	if err!=nil { t.Fatalf("err=%v; want nil", err) }
	want:=[]float32{5, 10, 15}
	if len(merged.Data)!=len(want) { t.Fatalf("len(merged.Data)=%d; want %d", len(merged.Data), len(want)) }
	for i:=range want {
		if !approxEqual(merged.Data[i], want[i], 1e-4) { t.Errorf("merged.Data[%d]=%f; want %f", i, merged.Data[i], want[i]) }
	}
	if !approxEqual(merged.Exposure, 4, 1e-6) { t.Errorf("merged.Exposure=%f; want 4", merged.Exposure) }
}

func TestEstimateEmptyInput(t *testing.T) {
	est:=NewEstimator(fakeMeta{}, fakeReader{}, DefaultCoefficients)
	_, err:=est.Estimate(nil, newTestContext())
	if !errors.Is(err, ErrInsufficientInput) { t.Errorf("err=%v; want insufficient input error", err) }
}

func TestEstimateMemoryLimit(t *testing.T) {
	reader:=fakeReader{
		"a": &Image{FileName: "a", Width: 1, Height: 1, Data: []float32{10, 20, 30}},
		"b": &Image{FileName: "b", Width: 1, Height: 1, Data: []float32{5, 10, 15}},
	}
	meta:=fakeMeta{exposures: []float32{1, 3}, gains: []float32{1, 1}}
	est:=NewEstimator(meta, reader, DefaultCoefficients)

	c:=newTestContext()
	c.StackMemoryMB=0
	if _, err:=est.Estimate([]string{"a", "b"}, c); err==nil {
		t.Errorf("err=nil; want working set limit error")
	}
}

func TestEstimateMetadataError(t *testing.T) {
	reader:=fakeReader{"a": &Image{FileName: "a", Width: 1, Height: 1, Data: []float32{1, 2, 3}}}
	meta:=fakeMeta{err: fmt.Errorf("%w: no EXIF data", ErrMetadata)}
	est:=NewEstimator(meta, reader, DefaultCoefficients)
	_, err:=est.Estimate([]string{"a"}, newTestContext())
	if !errors.Is(err, ErrMetadata) { t.Errorf("err=%v; want metadata error", err) }
}

func TestEstimateMisalignedMetadata(t *testing.T) {
	reader:=fakeReader{"a": &Image{FileName: "a", Width: 1, Height: 1, Data: []float32{1, 2, 3}}}
	meta:=fakeMeta{exposures: []float32{1, 2}, gains: []float32{1, 2}}
	est:=NewEstimator(meta, reader, DefaultCoefficients)
	_, err:=est.Estimate([]string{"a"}, newTestContext())
	if !errors.Is(err, ErrMetadata) { t.Errorf("err=%v; want metadata error", err) }
}

func TestEstimateDecodeError(t *testing.T) {
	est:=NewEstimator(fakeMeta{exposures: []float32{1}, gains: []float32{1}}, fakeReader{}, DefaultCoefficients)
	_, err:=est.Estimate([]string{"missing"}, newTestContext())
	if !errors.Is(err, ErrDecode) { t.Errorf("err=%v; want decode error", err) }
}

func TestEstimateMismatchedDimensions(t *testing.T) {
	reader:=fakeReader{
		"a": &Image{FileName: "a", Width: 1, Height: 1, Data: []float32{1, 2, 3}},
		"b": &Image{FileName: "b", Width: 2, Height: 1, Data: []float32{1, 2, 3, 4, 5, 6}},
	}
	meta:=fakeMeta{exposures: []float32{1, 1}, gains: []float32{1, 1}}
	est:=NewEstimator(meta, reader, DefaultCoefficients)
	_, err:=est.Estimate([]string{"a", "b"}, newTestContext())
	if !errors.Is(err, ErrDecode) { t.Errorf("err=%v; want decode error", err) }
}

func TestErrorClass(t *testing.T) {
	cases:=[]struct{ err error; want string }{
		{nil, "ok"},
		{fmt.Errorf("wrapped: %w", ErrMetadata), "metadata"},
		{fmt.Errorf("wrapped: %w", ErrDecode), "decode"},
		{fmt.Errorf("wrapped: %w", ErrShape), "shape"},
		{fmt.Errorf("wrapped: %w", ErrInsufficientInput), "insufficient input"},
		{errors.New("something else"), "unknown"},
	}
	for _, c:=range cases {
		if got:=ErrorClass(c.err); got!=c.want { t.Errorf("ErrorClass(%v)=%s; want %s", c.err, got, c.want) }
	}
}
