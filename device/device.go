// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the public dispatch surface of the Strata
// runtime: devices, their kernel registries and execution contexts.
//
// A Registry maps operator types to kernels for one device kind; nothing is
// process-global, so two registries can carry different kernel sets side by
// side. A Context carries per-thread execution state: the shared scratch
// arena, the parallel configuration and an opaque command queue slot for
// GPU-style backends.
//
// Example:
//
//	dev := cpu.New()
//	ctx := dev.NewContext()
//	err := dev.Registry().Dispatch(ctx, call)
package device

import (
	"github.com/strata-ml/strata/internal/device"
)

// Kind identifies a device family.
type Kind = device.Kind

// Device kinds.
const (
	CPU    Kind = device.CPU
	WebGPU Kind = device.WebGPU
)

// Device pairs a kind with its kernel registry.
type Device = device.Device

// Registry maps operator types to kernels for one device kind.
type Registry = device.Registry

// Context carries per-thread execution state: scratch arena, parallel
// configuration and an opaque command queue.
type Context = device.Context

// Call is one kernel invocation: operator, tensors, parameters and
// resources.
type Call = device.Call

// KernelFunc executes one operator on one device.
type KernelFunc = device.KernelFunc

// New returns a device over an existing registry.
func New(kind Kind, name string, registry *Registry) *Device {
	return device.New(kind, name, registry)
}

// NewRegistry returns an empty registry for a device kind.
func NewRegistry(kind Kind) *Registry {
	return device.NewRegistry(kind)
}
