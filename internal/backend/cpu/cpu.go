// Package cpu implements the built-in CPU kernels and assembles them into a
// device with a populated registry.
package cpu

import (
	"log/slog"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/op"
)

// New constructs the CPU device. The registry is complete when New returns;
// nothing registers into it afterwards, so dispatch never takes a lock.
func New() *device.Device {
	r := device.NewRegistry(device.CPU)
	register := func(t op.Type, k device.KernelFunc) {
		if err := r.Register(t, k); err != nil {
			panic(err)
		}
	}
	register(op.InnerProduct, innerProductKernel)
	register(op.Conv, convKernel)
	register(op.ReLU, reluKernel)
	register(op.Sigmoid, sigmoidKernel)
	register(op.Add, addKernel)

	slog.Debug("cpu kernels registered", "count", r.Len())
	return device.New(device.CPU, "cpu", r)
}
