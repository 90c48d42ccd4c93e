// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layout provides the public layout converters: canonical to
// packed and back, plus batch canonicalization.
//
// Float conversions are pure permutations and bit-identical both ways.
// Int8 conversions carry the quantization scales along unchanged. Packing
// zero-fills padded channel lanes; unpacking reads only real channels, so
// padding never leaks into results.
package layout

import (
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/tensor"
)

// Pack converts a canonical blob to the packed layout. A blob already
// packed is returned unchanged.
func Pack(src *tensor.Blob) (*tensor.Blob, error) {
	return layout.Pack(src)
}

// Unpack converts a packed blob to canonical layout. A blob already
// canonical is returned unchanged.
func Unpack(src *tensor.Blob) (*tensor.Blob, error) {
	return layout.Unpack(src)
}

// Convert brings src into the wanted layout, returning src itself when it
// already matches.
func Convert(src *tensor.Blob, want tensor.Layout) (*tensor.Blob, error) {
	return layout.Convert(src, want)
}

// EnsureLayout brings every blob into the wanted layout, converting the
// mismatched ones concurrently. Blobs already in the layout pass through.
func EnsureLayout(blobs []*tensor.Blob, want tensor.Layout) ([]*tensor.Blob, error) {
	return layout.EnsureLayout(blobs, want)
}
