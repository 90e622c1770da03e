package commands

import (
	"fmt"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/host"
	"github.com/notargets/vecadd/kernels"
	"github.com/notargets/vecadd/logging"
	"github.com/notargets/vecadd/occa"
	"github.com/notargets/vecadd/vecadd"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile       string
	length        int
	backend       string
	devices       []string
	maxGroupWidth int
	seed          uint64
	fill          string
	logLevel      string
	logFile       string
	quiet         bool
}

// NewRootCmd builds the vecadd command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vecadd",
		Short: "Add two float arrays on a compute device and verify the result",
		Long: `vecadd fills two arrays with random values in [0, 5] rounded to three
decimals, adds them with one dispatch of the add_arrays kernel and checks
every element of the result on the host.

One line per element is printed to stdout. Any setup failure or mismatch
exits with status 1.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer logging.Close()

			dev, err := OpenDevice(cfg)
			if err != nil {
				logging.Errorf("device setup failed: %v", err)
				return err
			}
			defer dev.Free()

			if _, err := vecadd.Run(cfg, dev, cmd.OutOrStdout()); err != nil {
				logging.Errorf("%v", err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.cfgFile, "config", "", "YAML config file")
	flags.IntVarP(&opts.length, "length", "n", config.DefaultLength, "number of elements")
	flags.StringVar(&opts.backend, "backend", config.BackendOCCA, "device backend: occa or host")
	flags.StringArrayVar(&opts.devices, "device", nil, "OCCA device properties, tried in order (repeatable)")
	flags.IntVar(&opts.maxGroupWidth, "max-group-width", 0, "cap on thread-group width (0 = device maximum)")
	flags.Uint64Var(&opts.seed, "seed", 0, "operand seed (0 = time based)")
	flags.StringVar(&opts.fill, "fill", config.FillRandom, "operand fill: random or constant")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flags.StringVar(&opts.logFile, "log-file", "", "also append logs to this file")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print per-element lines")

	cmd.AddCommand(newDevicesCmd())
	return cmd
}

// load reads the config file and applies flags the user set explicitly
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("length") {
		cfg.Length = o.length
	}
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("device") {
		cfg.Devices = o.devices
	}
	if flags.Changed("max-group-width") {
		cfg.MaxGroupWidth = o.maxGroupWidth
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("fill") {
		cfg.Fill = o.fill
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = o.logFile
	}
	if flags.Changed("quiet") {
		cfg.Quiet = o.quiet
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenDevice acquires the device selected by cfg. A non-zero
// MaxGroupWidth lowers the device's group width bound.
func OpenDevice(cfg *config.Config) (device.Device, error) {
	switch cfg.Backend {
	case config.BackendHost:
		dev := host.NewDevice(cfg.MaxGroupWidth)
		kernels.RegisterHost(dev)
		logging.Infof("using %s", dev.Name())
		return dev, nil
	case config.BackendOCCA:
		dev, err := occa.CreateDevice(cfg.Devices...)
		if err != nil {
			return nil, err
		}
		dev.SetMaxThreadsPerGroup(cfg.MaxGroupWidth)
		logging.Infof("using OCCA %s device, max group %d", dev.Mode(), dev.MaxThreadsPerGroup())
		return dev, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
