// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package core provides the low-level address-space primitives shared by
// every other collector package: a heap address type and the section
// abstraction (§3 "Sections" in the design) that backs both the nursery and
// the old generation.
package core

import "fmt"

// Address is a byte address in the managed heap. It is not a Go pointer:
// the collector must be able to hold addresses of objects that have been
// forwarded, freed, or not yet allocated.
type Address uintptr

// Add returns a+n.
func (a Address) Add(n int64) Address {
	return Address(int64(a) + n)
}

// Sub returns a-b, in bytes.
func (a Address) Sub(b Address) int64 {
	return int64(a) - int64(b)
}

// AlignDown rounds a down to the nearest multiple of align, which must be a
// power of two.
func (a Address) AlignDown(align int64) Address {
	return Address(int64(a) &^ (align - 1))
}

// AlignUp rounds a up to the nearest multiple of align, which must be a
// power of two.
func (a Address) AlignUp(align int64) Address {
	return Address((int64(a) + align - 1) &^ (align - 1))
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// Range is a half-open byte range [Min, Max).
type Range struct {
	Min, Max Address
}

// Contains reports whether a is in [r.Min, r.Max).
func (r Range) Contains(a Address) bool {
	return a >= r.Min && a < r.Max
}

// Len returns the length of the range in bytes.
func (r Range) Len() int64 {
	return r.Max.Sub(r.Min)
}
