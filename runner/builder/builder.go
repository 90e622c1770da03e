package builder

import (
	"fmt"
	"strings"

	"github.com/notargets/vecadd/device"
)

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case INT32:
		return "int32"
	case INT64:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// SizeOfType returns the size in bytes of a data type
func SizeOfType(dt DataType) int64 {
	switch dt {
	case Float32, INT32:
		return 4
	default:
		return 8
	}
}

// Builder holds the launch configuration of a one dimensional kernel and
// generates the preamble that fixes it into the kernel source
type Builder struct {
	// Number of elements covered by the grid
	Length int

	// Largest group width the target pipeline accepts
	MaxGroupWidth int

	FloatType DataType

	// Bound parameters in definition order
	Params []ParamSpec

	// Generated code
	KernelPreamble string
}

// Config holds configuration for creating a Builder
type Config struct {
	Length        int
	MaxGroupWidth int // 0 means the device maximum
	FloatType     DataType
}

// NewBuilder creates a new Builder instance
func NewBuilder(cfg Config) *Builder {
	if cfg.Length <= 0 {
		panic(fmt.Sprintf("Length must be positive, got %d", cfg.Length))
	}
	floatType := cfg.FloatType
	if floatType == 0 {
		floatType = Float32
	}
	return &Builder{
		Length:        cfg.Length,
		MaxGroupWidth: cfg.MaxGroupWidth,
		FloatType:     floatType,
	}
}

// GroupWidth returns the thread-group width for a grid of length threads on
// a pipeline accepting at most maxPerGroup threads per group
func GroupWidth(length, maxPerGroup int) int {
	if maxPerGroup <= 0 || length < maxPerGroup {
		return length
	}
	return maxPerGroup
}

// Launch returns the grid and group sizes for a pipeline whose maximum
// group size is maxPerGroup. The problem is one dimensional: height and
// depth are always 1.
func (kb *Builder) Launch(maxPerGroup int) device.Launch {
	return device.Launch{
		Grid:  device.Dim3{X: kb.Length, Y: 1, Z: 1},
		Group: device.Dim3{X: GroupWidth(kb.Length, kb.GroupLimit(maxPerGroup)), Y: 1, Z: 1},
	}
}

// GroupLimit returns the group width bound actually applied: the pipeline
// maximum, lowered to MaxGroupWidth when that is set and smaller
func (kb *Builder) GroupLimit(maxPerGroup int) int {
	limit := maxPerGroup
	if kb.MaxGroupWidth > 0 && (limit <= 0 || kb.MaxGroupWidth < limit) {
		limit = kb.MaxGroupWidth
	}
	return limit
}

// GeneratePreamble creates the type definitions and launch constants for a
// pipeline with the given maximum group size
func (kb *Builder) GeneratePreamble(maxPerGroup int) string {
	var sb strings.Builder

	launch := kb.Launch(maxPerGroup)

	floatTypeStr := "double"
	if kb.FloatType == Float32 {
		floatTypeStr = "float"
	}
	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", floatTypeStr))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("#define N_ELEMENTS %d\n", kb.Length))
	sb.WriteString(fmt.Sprintf("#define GROUP_WIDTH %d\n", launch.Group.X))
	sb.WriteString(fmt.Sprintf("#define NGROUPS %d\n", launch.NumGroups().X))
	sb.WriteString("\n")

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// AddParam appends a validated parameter to the kernel signature
func (kb *Builder) AddParam(spec ParamSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	for _, p := range kb.Params {
		if p.Name == spec.Name {
			return fmt.Errorf("parameter %s already defined", spec.Name)
		}
	}
	if spec.Size != int64(kb.Length) {
		return fmt.Errorf("parameter %s has %d elements, expected %d",
			spec.Name, spec.Size, kb.Length)
	}
	kb.Params = append(kb.Params, spec)
	return nil
}
