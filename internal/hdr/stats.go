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
	"math"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"
)

// Summary statistics of a radiance buffer. Min and max are exact,
// the remaining estimates come from a random subsample, which is
// plenty for megapixel buffers and much faster than a full pass.
type Stats struct {
	Min    float32
	Max    float32
	Mean   float32
	StdDev float32
	Median float32
	Q25    float32
	Q75    float32

	NumSamples int // size of the subsample the estimates are based on
}

// Default subsample size for statistics estimation
const DefaultStatsSamples=128*1024

// Calculates summary statistics of the given data. numSamples bounds the
// subsample used for mean, standard deviation and quantile estimation;
// data sets up to that size are evaluated exactly.
func CalcStats(data []float32, numSamples int) *Stats {
	if len(data)==0 { return &Stats{} }
	if numSamples<=0 { numSamples=DefaultStatsSamples }

	min, max:=float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, d:=range data {
		if d<min { min=d }
		if d>max { max=d }
	}

	var samples []float64
	if len(data)<=numSamples {
		samples=make([]float64, len(data))
		for i, d:=range data { samples[i]=float64(d) }
	} else {
		samples=make([]float64, numSamples)
		rng:=fastrand.RNG{}
		bound:=uint32(len(data))
		for i:=range samples {
			samples[i]=float64(data[rng.Uint32n(bound)])
		}
	}
	sort.Float64s(samples)

	mean, stdDev:=stat.MeanStdDev(samples, nil)
	if len(samples)<2 || math.IsNaN(stdDev) { stdDev=0 }

	return &Stats{
		Min   : min,
		Max   : max,
		Mean  : float32(mean),
		StdDev: float32(stdDev),
		Median: float32(stat.Quantile(0.5,  stat.Empirical, samples, nil)),
		Q25   : float32(stat.Quantile(0.25, stat.Empirical, samples, nil)),
		Q75   : float32(stat.Quantile(0.75, stat.Empirical, samples, nil)),
		NumSamples: len(samples),
	}
}

// Print statistics as a human-readable string
func (s *Stats) String() string {
	return fmt.Sprintf("min %.4g max %.4g mean %.4g stdDev %.4g median %.4g q25 %.4g q75 %.4g",
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.Q25, s.Q75)
}
