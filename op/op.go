// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package op provides the public operator vocabulary: operator types,
// their parameter variants and trained resources.
package op

import (
	"github.com/strata-ml/strata/internal/op"
)

// Type identifies an operator.
type Type = op.Type

// Operator types.
const (
	InnerProduct Type = op.InnerProduct
	Conv         Type = op.Conv
	ReLU         Type = op.ReLU
	Sigmoid      Type = op.Sigmoid
	Add          Type = op.Add
)

// Param is the per-operator hyperparameter variant. Operators without
// hyperparameters take a nil Param.
type Param = op.Param

// InnerProductParam configures a fully connected operator.
type InnerProductParam = op.InnerProductParam

// ConvParam configures a convolution.
type ConvParam = op.ConvParam

// Resource holds an operator's trained tensors in canonical layout.
type Resource = op.Resource
