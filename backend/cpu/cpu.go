// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/strata-ml/strata/device"
	internalcpu "github.com/strata-ml/strata/internal/backend/cpu"
)

// New creates the CPU device with its full kernel set registered.
//
// Example:
//
//	import (
//	    "github.com/strata-ml/strata/backend/cpu"
//	)
//
//	func main() {
//	    dev := cpu.New()
//	    ctx := dev.NewContext()
//	    _ = ctx
//	}
func New() *device.Device {
	return internalcpu.New()
}
