// Package main provides the Strata runtime CLI.
package main

import (
	"fmt"
	"os"

	"github.com/strata-ml/strata/backend/cpu"
	"github.com/strata-ml/strata/grad"
	"github.com/strata-ml/strata/layer"
	"github.com/strata-ml/strata/op"
	"github.com/strata-ml/strata/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Strata %s\n", version)
			return
		case "demo":
			if err := runDemo(); err != nil {
				fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Strata - Tensor Execution Core for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Run a small forward and backward pass")
}

// runDemo drives a two-layer net through the full pipeline: inner product,
// relu, then the backward walk, printing tensors at each stage.
func runDemo() error {
	dev := cpu.New()
	ctx := dev.NewContext()

	fmt.Printf("device: %s\n\n", dev.Name())

	// x [2, 3] -> InnerProduct(2) -> h [2, 2] -> ReLU -> y [2, 2]
	x, err := tensor.NewOwned(tensor.Desc{
		Dims: tensor.Dims{2, 3}, DType: tensor.Float32, Layout: tensor.Canonical,
	})
	if err != nil {
		return err
	}
	copy(x.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	h, err := tensor.NewOwned(tensor.Desc{
		Dims: tensor.Dims{2, 2}, DType: tensor.Float32, Layout: tensor.Canonical,
	})
	if err != nil {
		return err
	}
	y, err := tensor.NewOwned(tensor.Desc{
		Dims: tensor.Dims{2, 2}, DType: tensor.Float32, Layout: tensor.Canonical,
	})
	if err != nil {
		return err
	}

	weight, err := tensor.NewBufferFloat32(tensor.Dims{2, 3}, []float32{
		0.5, -1, 2,
		1, 1, -0.5,
	})
	if err != nil {
		return err
	}
	bias, err := tensor.NewBufferFloat32(tensor.Dims{2}, []float32{0.1, -4})
	if err != nil {
		return err
	}

	param := &op.InnerProductParam{OutChannels: 2, HasBias: true}
	res := &op.Resource{Weight: weight, Bias: bias}

	fc := layer.NewAcc(op.InnerProduct)
	if err := fc.Init(ctx, param, res, []*tensor.Blob{x}, []*tensor.Blob{h}); err != nil {
		return err
	}
	act := layer.NewAcc(op.ReLU)
	if err := act.Init(ctx, nil, nil, []*tensor.Blob{h}, []*tensor.Blob{y}); err != nil {
		return err
	}

	for _, acc := range []*layer.Acc{fc, act} {
		if err := acc.Reshape(); err != nil {
			return err
		}
	}
	for _, acc := range []*layer.Acc{fc, act} {
		if err := acc.Forward(); err != nil {
			return err
		}
	}

	hOut, err := fc.CanonicalOutput(0)
	if err != nil {
		return err
	}
	yOut, err := act.CanonicalOutput(0)
	if err != nil {
		return err
	}
	fmt.Printf("input:   %v\n", x.AsFloat32())
	fmt.Printf("fc out:  %v\n", hOut.AsFloat32())
	fmt.Printf("relu out: %v\n\n", yOut.AsFloat32())

	// Backward: seed dL/dy with ones and walk the two operators in
	// reverse.
	engine := grad.NewEngine(ctx)
	session := grad.NewSession(engine)

	upstream, err := tensor.NewBufferFloat32(tensor.Dims{2, 2}, []float32{1, 1, 1, 1})
	if err != nil {
		return err
	}
	session.SetUpstream(y, upstream)

	if err := session.Step(op.ReLU, nil, nil, []*tensor.Blob{h}, []*tensor.Blob{y}); err != nil {
		return err
	}
	if err := session.Step(op.InnerProduct, param, res, []*tensor.Blob{x}, []*tensor.Blob{h}); err != nil {
		return err
	}

	fmt.Printf("dL/dx:      %v\n", session.BlobGrad(x).AsFloat32())
	fmt.Printf("dL/dweight: %v\n", session.ResourceGrad(weight).AsFloat32())
	fmt.Printf("dL/dbias:   %v\n", session.ResourceGrad(bias).AsFloat32())
	return nil
}
