// Package kernels holds the compute kernels run by vecadd: the OKL source
// compiled by OCCA devices and the equivalent host implementation.
package kernels

import (
	_ "embed"
	"fmt"

	"github.com/notargets/vecadd/host"
)

// AddArraysName is the kernel entry point
const AddArraysName = "add_arrays"

// Parameter names referenced by the add_arrays kernel body
const (
	ParamA = "A"
	ParamB = "B"
	ParamR = "R"
)

//go:embed add_arrays.okl
var addArraysTemplate string

// AddArraysSource returns the OKL source of add_arrays with the given
// parameter list. The source expects N_ELEMENTS, GROUP_WIDTH and NGROUPS to
// be defined by the preamble.
func AddArraysSource(signature string) string {
	return fmt.Sprintf(addArraysTemplate, signature)
}

// AddArrays is the host version of add_arrays. Arguments are A, B, R.
func AddArrays(tid host.ThreadID, args ...[]float32) {
	a, b, r := args[0], args[1], args[2]
	idx := tid.Global()
	if idx < len(r) {
		r[idx] = a[idx] + b[idx]
	}
}

// RegisterHost registers every kernel in this package on dev
func RegisterHost(dev *host.Device) {
	dev.RegisterKernel(AddArraysName, AddArrays)
}
