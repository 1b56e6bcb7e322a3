package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	gc "github.com/Keksclan/goRawrCache"
	"github.com/Keksclan/goRawrCache/ratelimit"
)

// Config is the daemon configuration. Values come from defaults, then the
// YAML file, then GORAWRCACHE_* environment variables, then flags.
type Config struct {
	Listen     string `yaml:"listen"`
	HTTPListen string `yaml:"http_listen"`
	Directory  string `yaml:"directory"`

	RateLimit    ratelimit.Rule            `yaml:"rate_limit"`
	MethodLimits map[string]ratelimit.Rule `yaml:"method_limits"`

	L1 struct {
		MaxCost int64 `yaml:"max_cost"`
	} `yaml:"l1"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Tracing struct {
		Stdout bool `yaml:"stdout"`
	} `yaml:"tracing"`

	Log struct {
		Verbosity int `yaml:"verbosity"`
	} `yaml:"log"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Listen:     ":50051",
		HTTPListen: ":9090",
	}
}

// LoadConfig reads path over the defaults. An empty path yields the
// defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"GORAWRCACHE_LISTEN":         &c.Listen,
		"GORAWRCACHE_HTTP_LISTEN":    &c.HTTPListen,
		"GORAWRCACHE_DIRECTORY":      &c.Directory,
		"GORAWRCACHE_REDIS_ADDR":     &c.Redis.Addr,
		"GORAWRCACHE_REDIS_PASSWORD": &c.Redis.Password,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GORAWRCACHE_REDIS_DB":      &c.Redis.DB,
		"GORAWRCACHE_LOG_VERBOSITY": &c.Log.Verbosity,
	}
	for name, dst := range ints {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.L1.MaxCost < 0 {
		errs = append(errs, errors.New("l1.max_cost must not be negative"))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ServerOptions translates the configuration into server options.
func (c *Config) ServerOptions() []gc.Option {
	opts := append(gc.DefaultOptions(), gc.WithDirectory(c.Directory))
	if c.RateLimit.RPS > 0 {
		opts = append(opts, gc.WithRateLimitGlobal(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	for method, rule := range c.MethodLimits {
		opts = append(opts, gc.WithRateLimitMethod(method, rule.RPS, rule.Burst))
	}
	if c.L1.MaxCost > 0 {
		opts = append(opts, gc.WithCacheL1(c.L1.MaxCost))
	}
	if c.Redis.Addr != "" {
		opts = append(opts, gc.WithCacheL2(c.Redis.Addr, c.Redis.Password, c.Redis.DB))
	}
	return opts
}
