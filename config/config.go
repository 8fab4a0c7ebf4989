// Package config loads rxnpath settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default. Unknown keys are rejected.
//
//	max_num_components: 2
//	cost_function: softplus
//	complex_loopback: true
//	k: 5
//	max_num_combos: 3
//	energy_above_hull_cutoff: stable-only   # or a number in eV/atom
//	include_polymorphs: false
//	workers: 0                              # 0 means GOMAXPROCS
//	balance_tolerance: 1e-6
//	build_timeout: 5m
//	search_timeout: 1m
//	snapshot_dir: ""
//	log_level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/cost"
	"github.com/katalvlaran/rxnpath/network"
	"github.com/katalvlaran/rxnpath/pathway"
)

// StableOnly is the cutoff spelling that keeps only entries on the hull.
const StableOnly = "stable-only"

// ConfigError reports the first invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Config holds every tunable of a run.
type Config struct {
	MaxComponents     int           `yaml:"max_num_components" validate:"gte=1"`
	CostFunction      string        `yaml:"cost_function" validate:"required,costfn"`
	ComplexLoopback   bool          `yaml:"complex_loopback"`
	K                 int           `yaml:"k" validate:"gte=1"`
	MaxCombos         int           `yaml:"max_num_combos" validate:"gte=1"`
	Cutoff            Cutoff        `yaml:"energy_above_hull_cutoff" validate:"gte=0"`
	IncludePolymorphs bool          `yaml:"include_polymorphs"`
	Workers           int           `yaml:"workers" validate:"gte=0"`
	BalanceTolerance  float64       `yaml:"balance_tolerance" validate:"gt=0"`
	BuildTimeout      time.Duration `yaml:"build_timeout" validate:"gte=0"`
	SearchTimeout     time.Duration `yaml:"search_timeout" validate:"gte=0"`
	SnapshotDir       string        `yaml:"snapshot_dir"`
	LogLevel          string        `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		MaxComponents:    network.DefaultMaxComponents,
		CostFunction:     string(network.DefaultCostFunction),
		ComplexLoopback:  true,
		K:                5,
		MaxCombos:        pathway.DefaultMaxCombos,
		Workers:          0,
		BalanceTolerance: pathway.DefaultTolerance,
		BuildTimeout:     5 * time.Minute,
		SearchTimeout:    time.Minute,
		LogLevel:         "info",
	}
}

// Cutoff is the energy-above-hull cutoff in eV/atom. The zero value means
// stable-only.
type Cutoff struct {
	v *float64
}

// CutoffAt returns a numeric cutoff.
func CutoffAt(ev float64) Cutoff { return Cutoff{v: &ev} }

// Value returns the cutoff, or nil for stable-only.
func (c Cutoff) Value() *float64 { return c.v }

// String returns the YAML spelling.
func (c Cutoff) String() string {
	if c.v == nil {
		return StableOnly
	}
	return strconv.FormatFloat(*c.v, 'g', -1, 64)
}

// UnmarshalYAML accepts a number or "stable-only".
func (c *Cutoff) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: energy_above_hull_cutoff: expected a scalar at line %d", node.Line)
	}
	if strings.EqualFold(strings.TrimSpace(node.Value), StableOnly) {
		c.v = nil
		return nil
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("config: energy_above_hull_cutoff: want a number or %q: %w", StableOnly, err)
	}
	c.v = &f
	return nil
}

// MarshalYAML writes the number or "stable-only".
func (c Cutoff) MarshalYAML() (interface{}, error) {
	if c.v == nil {
		return StableOnly, nil
	}
	return *c.v, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Stable-only validates as 0.
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		c := f.Interface().(Cutoff)
		if c.v == nil {
			return 0.0
		}
		return *c.v
	}, Cutoff{})
	_ = v.RegisterValidation("costfn", func(fl validator.FieldLevel) bool {
		return cost.Valid(cost.Name(fl.Field().String()))
	})
	return v
}

// Validate checks every field and returns the first failure as a
// *ConfigError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("config: validate: %w", err)
	}
	fe := verrs[0]
	return &ConfigError{Field: fe.Field(), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "costfn":
		names := cost.Names()
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = string(n)
		}
		return fmt.Sprintf("unknown cost function %q (want one of %s)", fe.Value(), strings.Join(out, ", "))
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// Parse decodes YAML over Default and validates the result. Empty input
// gives the defaults.
//
// Errors: *ConfigError, wrapped YAML errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. An empty path gives the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// SlogLevel maps LogLevel onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NetworkOptions translates c into network options. hull may be nil, in
// which case every entry counts as stable.
func (c *Config) NetworkOptions(hull chem.HullDistancer, logger *slog.Logger) []network.Option {
	opts := []network.Option{
		network.WithMaxComponents(c.MaxComponents),
		network.WithCostFunction(cost.Name(c.CostFunction)),
		network.WithComplexLoopback(c.ComplexLoopback),
		network.WithWorkerCount(c.Workers),
		network.WithTolerance(c.BalanceTolerance),
		network.WithEntryFilter(hull, c.Cutoff.Value(), c.IncludePolymorphs),
	}
	if logger != nil {
		opts = append(opts, network.WithLogger(logger))
	}
	return opts
}
