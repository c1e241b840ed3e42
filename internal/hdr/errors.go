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
	"errors"
)

// Error classes of the merging pipeline. Every failure aborts the whole
// computation; callers match with errors.Is to decide remediation.
var (
	// Exposure or gain values could not be obtained, or are malformed
	ErrMetadata=errors.New("metadata error")

	// An image could not be read, or is not a 3-channel RGB image
	ErrDecode=errors.New("decode error")

	// A pixel buffer violates the expected shape, e.g. its length is not
	// a multiple of three, or buffers of one merge differ in length
	ErrShape=errors.New("shape error")

	// The image set is empty, leaving nothing to merge
	ErrInsufficientInput=errors.New("insufficient input")
)

// Returns the taxonomy class of an error as a short string, for log
// output and REST responses. Unrecognized errors report as "unknown".
func ErrorClass(err error) string {
	switch {
	case err==nil:                          return "ok"
	case errors.Is(err, ErrMetadata):          return "metadata"
	case errors.Is(err, ErrDecode):            return "decode"
	case errors.Is(err, ErrShape):             return "shape"
	case errors.Is(err, ErrInsufficientInput): return "insufficient input"
	default:                                   return "unknown"
	}
}
