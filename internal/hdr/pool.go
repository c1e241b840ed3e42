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
	"runtime"
	"sync"
)

// Pool of constant sized float32 arrays, to reduce memory allocation overhead.
// Radiance buffers of one merge all share the same size, so they recycle well.
var poolFloat32=struct{
    sync.RWMutex
    m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

// Clears the memory pool and triggers garbage collection
func ClearPools() {
	poolFloat32.Lock()
	poolFloat32.m=make(map[int]*sync.Pool)
	poolFloat32.Unlock()

	runtime.GC()
}

// Returns a pool for []float32 arrays of the given size
func getSizedPoolFloat32(size int) *sync.Pool {
	poolFloat32.RLock()
	pool:=poolFloat32.m[size]
	poolFloat32.RUnlock()
	if pool==nil {
		pool=&sync.Pool{
			New: func() interface{} {
				return make([]float32, size)
			},
		}
		poolFloat32.Lock()
		poolFloat32.m[size]=pool
		poolFloat32.Unlock()
	}
	return pool
}

// Retrieves an array of given size from the pool
func GetArrayOfFloat32FromPool(size int) []float32 {
	pool:=getSizedPoolFloat32(size)
	return pool.Get().([]float32)
}

// Returns an array to the pool
func PutArrayOfFloat32IntoPool(arr []float32) {
	pool:=getSizedPoolFloat32(cap(arr))
	pool.Put(arr[:cap(arr)])
	arr=nil
}
