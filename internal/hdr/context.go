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
	"io"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// An execution context for the merging pipeline
type Context struct {
	Log           io.Writer
	MemoryMB      int     // memory.TotalMemory()/1024/1024
	StackMemoryMB int     // working set limit for merging, MemoryMB*7/10
	MaxThreads    int     // concurrency limit for decoding and scaling
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)

	// Scaling and folding are memory bandwidth bound, so additional
	// hyperthreads bring no speedup. Decoding still saturates them.
	maxThreads:=cpuid.CPU.PhysicalCores
	if maxThreads<=0 { maxThreads=runtime.NumCPU() }

	return &Context{
		Log          : log,
		MemoryMB     : memoryMB,
		StackMemoryMB: memoryMB*7/10,
		MaxThreads   : maxThreads,
	}
}
