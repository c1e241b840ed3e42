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
	"testing"
)

func TestCalcStatsExact(t *testing.T) {
	data:=[]float32{3, 1, 4, 2}
	s:=CalcStats(data, 1024)
	if s.Min!=1 { t.Errorf("Min=%f; want 1", s.Min) }
	if s.Max!=4 { t.Errorf("Max=%f; want 4", s.Max) }
	if !approxEqual(s.Mean, 2.5, 1e-6) { t.Errorf("Mean=%f; want 2.5", s.Mean) }
	if s.NumSamples!=len(data) { t.Errorf("NumSamples=%d; want %d", s.NumSamples, len(data)) }
}

func TestCalcStatsSampled(t *testing.T) {
	data:=make([]float32, 100000)
	for i:=range data { data[i]=float32(i%1000) }
	s:=CalcStats(data, 4096)
	if s.Min!=0 { t.Errorf("Min=%f; want 0", s.Min) }
	if s.Max!=999 { t.Errorf("Max=%f; want 999", s.Max) }
	if s.NumSamples!=4096 { t.Errorf("NumSamples=%d; want 4096", s.NumSamples) }
	// uniform values in [0,1000), sampled estimates should land near the true center
	if s.Mean<400 || s.Mean>600 { t.Errorf("Mean=%f; want around 500", s.Mean) }
	if s.Median<400 || s.Median>600 { t.Errorf("Median=%f; want around 500", s.Median) }
}

func TestCalcStatsEmpty(t *testing.T) {
	s:=CalcStats(nil, 1024)
	if s.NumSamples!=0 { t.Errorf("NumSamples=%d; want 0", s.NumSamples) }
}
