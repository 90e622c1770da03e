package builder

import (
	"fmt"
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	case DirectionInOut:
		return "inout"
	default:
		return "unknown"
	}
}

// ParamBuilder provides a fluent interface for building kernel parameters
type ParamBuilder struct {
	Spec ParamSpec
}

// ParamSpec holds the complete specification for a kernel buffer parameter
type ParamSpec struct {
	Name        string
	Direction   Direction
	HostBinding []float32

	DataType DataType
	Size     int64 // elements
}

// Input creates a parameter specification for a const input
func Input(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionInput,
		},
	}
}

// Output creates a parameter specification for a non-const output
func Output(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionOutput,
		},
	}
}

// InOut creates a parameter specification for a non-const input/output
func InOut(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionInOut,
		},
	}
}

// Bind associates a host slice with this parameter
func (p *ParamBuilder) Bind(host []float32) *ParamBuilder {
	p.Spec.HostBinding = host
	p.Spec.DataType = Float32
	p.Spec.Size = int64(len(host))
	return p
}

// Size sets the element count of an unbound parameter
func (p *ParamBuilder) Size(elements int) *ParamBuilder {
	p.Spec.Size = int64(elements)
	if p.Spec.DataType == 0 {
		p.Spec.DataType = Float32
	}
	return p
}

// Validate checks if the parameter specification is complete and valid
func (p *ParamSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if p.Size <= 0 {
		return fmt.Errorf("array %s needs size", p.Name)
	}
	if p.DataType == 0 {
		return fmt.Errorf("array %s needs type", p.Name)
	}
	if p.HostBinding != nil && int64(len(p.HostBinding)) != p.Size {
		return fmt.Errorf("array %s binding has %d elements, size is %d",
			p.Name, len(p.HostBinding), p.Size)
	}
	return nil
}

// IsConst returns whether this parameter should be const in the kernel signature
func (p *ParamSpec) IsConst() bool {
	return p.Direction == DirectionInput
}

// NeedsCopyTo returns whether the host data must reach the device before a dispatch
func (p *ParamSpec) NeedsCopyTo() bool {
	return p.Direction == DirectionInput || p.Direction == DirectionInOut
}

// NeedsCopyBack returns whether the device data must return to the host after a dispatch
func (p *ParamSpec) NeedsCopyBack() bool {
	return p.Direction == DirectionOutput || p.Direction == DirectionInOut
}
