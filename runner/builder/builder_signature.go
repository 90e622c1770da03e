package builder

import (
	"fmt"
	"strings"
)

// GenerateKernelSignature renders the kernel parameter list in definition order
func (kb *Builder) GenerateKernelSignature() string {
	params := make([]string, 0, len(kb.Params))
	for _, p := range kb.Params {
		constStr := ""
		if p.IsConst() {
			constStr = "const "
		}
		params = append(params, fmt.Sprintf("%sreal_t* %s", constStr, p.Name))
	}
	return strings.Join(params, ", ")
}

// ParamNames returns the bound parameter names in definition order
func (kb *Builder) ParamNames() []string {
	names := make([]string, len(kb.Params))
	for i, p := range kb.Params {
		names[i] = p.Name
	}
	return names
}
