package layout

import (
	"golang.org/x/sync/errgroup"

	"github.com/strata-ml/strata/internal/tensor"
)

// EnsureLayout brings every tensor of a call into the wanted layout,
// converting concurrently. Tensors already resident in the wanted layout
// pass through untouched; each result slot is either the original blob or a
// freshly allocated conversion.
func EnsureLayout(blobs []*tensor.Blob, want tensor.Layout) ([]*tensor.Blob, error) {
	out := make([]*tensor.Blob, len(blobs))

	var g errgroup.Group
	for i, b := range blobs {
		if b.Layout() == want {
			out[i] = b
			continue
		}
		g.Go(func() error {
			converted, err := Convert(b, want)
			if err != nil {
				return err
			}
			out[i] = converted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
