// Package layout converts tensors between the canonical dense layout and the
// channel-packed device layout.
//
// Conversion is pure data movement: float formats are permuted bit-exactly,
// quantized tensors keep their scale metadata, and the zero padding written
// into a packed tensor's final channel block is truncated on the way back,
// so it can never reach canonical data.
package layout

import (
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Pack converts a canonical tensor to PackedC4, allocating the destination.
// A tensor that is already packed is returned unchanged, without copying.
func Pack(src *tensor.Blob) (*tensor.Blob, error) {
	if src.Layout() == tensor.PackedC4 {
		return src, nil
	}
	dst, err := tensor.NewOwned(src.Desc().WithLayout(tensor.PackedC4))
	if err != nil {
		return nil, err
	}
	if err := PackInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// PackInto converts a canonical tensor into an existing packed destination,
// zero-filling the padding lanes of a final partial channel block.
func PackInto(dst, src *tensor.Blob) error {
	if err := checkPair(dst, src, tensor.PackedC4, tensor.Canonical); err != nil {
		return err
	}
	n, ch, spatial := src.Desc().Batch(), src.Desc().Channels(), src.Desc().Spatial()
	blocks := tensor.RoundUp(ch, tensor.PackWidth) / tensor.PackWidth

	clear(dst.Data())
	if src.DType() == tensor.Float32 {
		d, s := dst.AsFloat32(), src.AsFloat32()
		for b := 0; b < n; b++ {
			for c := 0; c < ch; c++ {
				blk, lane := c/tensor.PackWidth, c%tensor.PackWidth
				for sp := 0; sp < spatial; sp++ {
					d[(((b*blocks+blk)*spatial)+sp)*tensor.PackWidth+lane] = s[(b*ch+c)*spatial+sp]
				}
			}
		}
		return nil
	}

	es := src.DType().Size()
	d, s := dst.Data(), src.Data()
	for b := 0; b < n; b++ {
		for c := 0; c < ch; c++ {
			blk, lane := c/tensor.PackWidth, c%tensor.PackWidth
			for sp := 0; sp < spatial; sp++ {
				do := ((((b*blocks+blk)*spatial)+sp)*tensor.PackWidth + lane) * es
				so := ((b*ch+c)*spatial + sp) * es
				copy(d[do:do+es], s[so:so+es])
			}
		}
	}
	return nil
}

// Unpack converts a packed tensor back to canonical, allocating the
// destination and truncating the padding lanes. A tensor that is already
// canonical is returned unchanged.
func Unpack(src *tensor.Blob) (*tensor.Blob, error) {
	if src.Layout() == tensor.Canonical {
		return src, nil
	}
	dst, err := tensor.NewOwned(src.Desc().WithLayout(tensor.Canonical))
	if err != nil {
		return nil, err
	}
	if err := UnpackInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// UnpackInto converts a packed tensor into an existing canonical
// destination. Only real channels are read; padding lanes are ignored.
func UnpackInto(dst, src *tensor.Blob) error {
	if err := checkPair(dst, src, tensor.Canonical, tensor.PackedC4); err != nil {
		return err
	}
	n, ch, spatial := src.Desc().Batch(), src.Desc().Channels(), src.Desc().Spatial()
	blocks := tensor.RoundUp(ch, tensor.PackWidth) / tensor.PackWidth

	if src.DType() == tensor.Float32 {
		d, s := dst.AsFloat32(), src.AsFloat32()
		for b := 0; b < n; b++ {
			for c := 0; c < ch; c++ {
				blk, lane := c/tensor.PackWidth, c%tensor.PackWidth
				for sp := 0; sp < spatial; sp++ {
					d[(b*ch+c)*spatial+sp] = s[(((b*blocks+blk)*spatial)+sp)*tensor.PackWidth+lane]
				}
			}
		}
		return nil
	}

	es := src.DType().Size()
	d, s := dst.Data(), src.Data()
	for b := 0; b < n; b++ {
		for c := 0; c < ch; c++ {
			blk, lane := c/tensor.PackWidth, c%tensor.PackWidth
			for sp := 0; sp < spatial; sp++ {
				do := ((b*ch+c)*spatial + sp) * es
				so := ((((b*blocks+blk)*spatial)+sp)*tensor.PackWidth + lane) * es
				copy(d[do:do+es], s[so:so+es])
			}
		}
	}
	return nil
}

// Convert brings a tensor into the wanted layout, returning it unchanged
// when the layout already matches.
func Convert(src *tensor.Blob, want tensor.Layout) (*tensor.Blob, error) {
	switch want {
	case tensor.Canonical:
		return Unpack(src)
	case tensor.PackedC4:
		return Pack(src)
	default:
		return nil, status.Errorf(status.KindShapeMismatch,
			"cannot convert to %s layout", want)
	}
}

func checkPair(dst, src *tensor.Blob, dstLayout, srcLayout tensor.Layout) error {
	if src.Layout() == tensor.Indirect || dst.Layout() == tensor.Indirect {
		return status.Errorf(status.KindShapeMismatch,
			"indirect index buffers have no layout conversion")
	}
	if dst.Layout() != dstLayout || src.Layout() != srcLayout {
		return status.Errorf(status.KindShapeMismatch,
			"conversion wants %s <- %s, got %s <- %s",
			dstLayout, srcLayout, dst.Layout(), src.Layout())
	}
	if len(src.Dims()) < 2 {
		return status.Errorf(status.KindShapeMismatch,
			"packed layout requires rank >= 2, got dims %v", src.Dims())
	}
	if !dst.Dims().Equal(src.Dims()) || dst.DType() != src.DType() {
		return status.Errorf(status.KindShapeMismatch,
			"conversion pair disagrees: dst %v %s, src %v %s",
			dst.Dims(), dst.DType(), src.Dims(), src.DType())
	}
	return nil
}
