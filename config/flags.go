package config

import (
	"flag"
	"io"

	"github.com/pkg/errors"
)

const defaultConfigPath = "pnd.yaml"

// Flags command line switches.
type Flags struct {
	ConfigPath string
	// Serve overrides web.listen.
	Serve string
	// Setup runs the interactive wizard that writes ConfigPath.
	Setup bool
}

// ParseFlags parses command line arguments without the program name.
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("pndscan", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&f.ConfigPath, "config", defaultConfigPath, "path to yaml config")
	fs.StringVar(&f.Serve, "serve", "", "serve stored results on this address, example: :8080")
	fs.BoolVar(&f.Setup, "setup", false, "run the configuration wizard")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() > 0 {
		return Flags{}, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	return f, nil
}

// Apply copies flag overrides into cfg.
func (f Flags) Apply(cfg *Config) {
	if f.Serve != "" {
		cfg.Web.Listen = f.Serve
	}
}
