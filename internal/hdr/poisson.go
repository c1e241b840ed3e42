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

// Poisson photon noise estimator for merging a stack of differently
// exposed frames of a static scene into one radiance map, following
// "Noise-Aware Merging of High Dynamic Range Image Stacks without
// Camera Calibration" (https://www.cl.cam.ac.uk/research/rainbow/projects/noise-aware-merging/2020-ppne-mle.pdf),
// section "Poisson Photon Noise Estimator".

import (
	"fmt"
	"runtime"
)

// Provides per-frame capture metadata, index-aligned with the given
// paths. Implemented by exif.Provider, and by fixtures in tests.
type MetadataProvider interface {
	Exposures(paths []string) ([]float32, error)
	Gains(paths []string)     ([]float32, error)
}

// Decodes one frame into linear interleaved RGB. Implemented by
// decode.Reader, and by fixtures in tests.
type FrameReader interface {
	ReadFrame(path string) (*Image, error)
}

// Converts one frame's pixel values into radiance estimates by removing
// the exposure time and gain scaling of that capture, per channel.
// The returned buffer has the same length and channel order as pixels,
// and is allocated from the float32 pool. Pure and independent per
// pixel, so callers may run it for many frames concurrently.
func ScaleRadiance(pixels []float32, exposure, gain float32, coefs RGBCoefficients) ([]float32, error) {
	if len(pixels)%3!=0 {
		return nil, fmt.Errorf("%w: pixel buffer length %d is not a multiple of 3", ErrShape, len(pixels))
	}
	if exposure<=0 { return nil, fmt.Errorf("%w: exposure %g is not positive", ErrMetadata, exposure) }
	if gain<=0     { return nil, fmt.Errorf("%w: gain %g is not positive",     ErrMetadata, gain)     }

	scalingFactor:=exposure*gain
	invR:=1.0/(scalingFactor*coefs.R)
	invG:=1.0/(scalingFactor*coefs.G)
	invB:=1.0/(scalingFactor*coefs.B)

	rad:=GetArrayOfFloat32FromPool(len(pixels))[:len(pixels)]
	for i:=0; i<len(pixels); i+=3 {
		rad[i  ]=pixels[i  ]*invR
		rad[i+1]=pixels[i+1]*invG
		rad[i+2]=pixels[i+2]*invB
	}
	return rad, nil
}

// Folds per-frame radiance buffers into one merged radiance buffer,
// weighting each frame by its share of the total exposure time. Longer
// exposures have better photon statistics and dominate the estimate.
//
// The accumulator is seeded with the first frame's radiances, and the
// fold then runs over all frames starting again at index 0, i.e. the
// first frame enters the first fold step twice. This matches the
// reference recurrence exactly; results would differ otherwise.
//
// Fold steps are strictly ordered across frames. Within one step the
// element updates are independent and run on up to maxThreads goroutines.
// The returned buffer is allocated from the float32 pool.
func Accumulate(radiances [][]float32, exposures []float32, maxThreads int) ([]float32, error) {
	if len(radiances)==0 {
		return nil, fmt.Errorf("%w: no radiance buffers to merge", ErrInsufficientInput)
	}
	if len(exposures)!=len(radiances) {
		return nil, fmt.Errorf("%w: %d exposures for %d radiance buffers", ErrShape, len(exposures), len(radiances))
	}
	numSamples:=len(radiances[0])
	for i, r:=range radiances {
		if len(r)!=numSamples {
			return nil, fmt.Errorf("%w: radiance buffer %d has %d samples, buffer 0 has %d", ErrShape, i, len(r), numSamples)
		}
	}

	sumExposures:=float32(0)
	for i, e:=range exposures {
		if e<=0 { return nil, fmt.Errorf("%w: exposure %d is %g, must be positive", ErrMetadata, i, e) }
		sumExposures+=e
	}

	if maxThreads<=0 { maxThreads=runtime.NumCPU() }

	acc:=GetArrayOfFloat32FromPool(numSamples)[:numSamples]
	copy(acc, radiances[0])

	// split each fold step into work packages of no fewer than 8 per thread
	numBatches:=8*maxThreads
	batchSize:=(numSamples+numBatches-1)/numBatches
	if batchSize<1024 { batchSize=1024 }
	sem:=make(chan bool, maxThreads)

	for i:=0; i<len(radiances); i++ {
		weight:=exposures[i]/sumExposures
		rad:=radiances[i]
		for lower:=0; lower<numSamples; lower+=batchSize {
			upper:=lower+batchSize
			if upper>numSamples { upper=numSamples }

			sem <- true
			go func(lower, upper int) {
				defer func() { <-sem }()
				for j:=lower; j<upper; j++ {
					acc[j]=(acc[j]+rad[j])*weight
				}
			}(lower, upper)
		}
		for j:=0; j<cap(sem); j++ {  // wait for this fold step to finish before the next
			sem <- true
		}
		for j:=0; j<cap(sem); j++ {
			<-sem
		}
	}

	return acc, nil
}

// Merges a stack of frames into a radiance map
type Estimator struct {
	Meta   MetadataProvider
	Reader FrameReader
	Coefs  RGBCoefficients
}

func NewEstimator(meta MetadataProvider, reader FrameReader, coefs RGBCoefficients) *Estimator {
	return &Estimator{Meta: meta, Reader: reader, Coefs: coefs}
}

// Estimates the merged radiance map for the given frames. Frame order is
// meaningful, it fixes the fold order of the accumulator. Metadata
// retrieval and frame decoding run concurrently; decoding and radiance
// scaling fan out across frames up to c.MaxThreads. Any error aborts the
// whole merge, no partial result is returned.
func (e *Estimator) Estimate(paths []string, c *Context) (*Image, error) {
	if len(paths)==0 {
		return nil, fmt.Errorf("%w: no frames given", ErrInsufficientInput)
	}

	// fetch exposure and gain metadata concurrently with frame decoding
	type metaResult struct {
		exposures []float32
		gains     []float32
		err       error
	}
	metaCh:=make(chan metaResult, 1)
	go func() {
		exposures, err:=e.Meta.Exposures(paths)
		if err!=nil { metaCh <- metaResult{err: err}; return }
		gains, err:=e.Meta.Gains(paths)
		if err!=nil { metaCh <- metaResult{err: err}; return }
		metaCh <- metaResult{exposures: exposures, gains: gains}
	}()

	frames, err:=e.readFrames(paths, c)
	if err!=nil { return nil, err }

	meta:=<-metaCh
	if meta.err!=nil { return nil, meta.err }
	if len(meta.exposures)!=len(paths) || len(meta.gains)!=len(paths) {
		return nil, fmt.Errorf("%w: got %d exposures and %d gains for %d frames",
			ErrMetadata, len(meta.exposures), len(meta.gains), len(paths))
	}

	// all frames of one merge must agree on dimensions; this is part of
	// the decode contract, there is no cropping or resampling here
	for _, f:=range frames[1:] {
		if f.Width!=frames[0].Width || f.Height!=frames[0].Height {
			return nil, fmt.Errorf("%w: %s is %dx%d, %s is %dx%d",
				ErrDecode, f.FileName, f.Width, f.Height, frames[0].FileName, frames[0].Width, frames[0].Height)
		}
	}

	for i, f:=range frames {
		f.Exposure, f.Gain=meta.exposures[i], meta.gains[i]
		fmt.Fprintf(c.Log, "%d: %s %dx%d exposure %gs gain %g\n", f.ID, f.FileName, f.Width, f.Height, f.Exposure, f.Gain)
	}

	// Size the working set against available memory. Peak residency is all
	// frames (radiance buffers replace pixel buffers as scaling progresses),
	// one extra radiance buffer per scaling thread, and the accumulator.
	frameBytes:=int64(frames[0].Width)*int64(frames[0].Height)*3*4
	if frameBytes<1 { frameBytes=1 }
	availableFrames:=int64(c.StackMemoryMB)*1024*1024/frameBytes
	scaleThreads:=c.MaxThreads
	for ; scaleThreads>1; scaleThreads-- {
		if int64(len(frames))+int64(scaleThreads)+1<=availableFrames { break }
	}
	if int64(len(frames))+int64(scaleThreads)+1>availableFrames {
		return nil, fmt.Errorf("%d frames of %d MiB each don't fit the %d MiB working set limit, have %d MiB physical memory",
			len(frames), frameBytes/1024/1024, c.StackMemoryMB, c.MemoryMB)
	}
	fmt.Fprintf(c.Log, "Physical memory is %d MiB, working set limit is %d MiB, this fits %d frames of %dx%d pixels; scaling with %d threads\n",
		c.MemoryMB, c.StackMemoryMB, availableFrames, frames[0].Width, frames[0].Height, scaleThreads)

	radiances, err:=e.scaleFrames(frames, scaleThreads, c)
	if err!=nil { return nil, err }

	fmt.Fprintf(c.Log, "Merging %d frames with exposure-weighted accumulation\n", len(frames))
	merged, err:=Accumulate(radiances, meta.exposures, c.MaxThreads)
	for _, rad:=range radiances {
		PutArrayOfFloat32IntoPool(rad)
	}
	if err!=nil { return nil, err }

	sumExposures:=float32(0)
	for _, exp:=range meta.exposures { sumExposures+=exp }

	result:=NewImage(frames[0].Width, frames[0].Height, merged)
	result.FileName="(merged)"
	result.Exposure=sumExposures
	return result, nil
}

// Decodes all frames with bounded concurrency, preserving input order
func (e *Estimator) readFrames(paths []string, c *Context) ([]*Image, error) {
	frames:=make([]*Image, len(paths))
	sem :=make(chan bool, c.MaxThreads)
	errs:=make(chan error, len(paths))
	for i, path:=range paths {
		sem <- true
		go func(i int, path string) {
			defer func() { <-sem }()
			f, err:=e.Reader.ReadFrame(path)
			if err!=nil { errs <- err; return }
			f.ID=i
			frames[i]=f
		}(i, path)
	}
	for i:=0; i<cap(sem); i++ {  // wait for goroutines to finish
		sem <- true
	}
	close(errs)
	if err:=<-errs; err!=nil { return nil, err }
	return frames, nil
}

// Scales all frames into radiance buffers with bounded concurrency,
// preserving input order. Pixel buffers are consumed: each frame's Data
// returns to the pool once its radiance buffer exists.
func (e *Estimator) scaleFrames(frames []*Image, maxThreads int, c *Context) ([][]float32, error) {
	radiances:=make([][]float32, len(frames))
	sem :=make(chan bool, maxThreads)
	errs:=make(chan error, len(frames))
	for i, f:=range frames {
		sem <- true
		go func(i int, f *Image) {
			defer func() { <-sem }()
			rad, err:=ScaleRadiance(f.Data, f.Exposure, f.Gain, e.Coefs)
			if err!=nil { errs <- fmt.Errorf("%d: %s: %w", f.ID, f.FileName, err); return }
			PutArrayOfFloat32IntoPool(f.Data)
			f.Data=nil
			radiances[i]=rad
		}(i, f)
	}
	for i:=0; i<cap(sem); i++ {  // wait for goroutines to finish
		sem <- true
	}
	close(errs)
	if err:=<-errs; err!=nil {
		for _, rad:=range radiances {
			if rad!=nil { PutArrayOfFloat32IntoPool(rad) }
		}
		return nil, err
	}
	return radiances, nil
}
