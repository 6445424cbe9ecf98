package log

import (
	"fmt"
	"strings"
)

// Config declares a logger. Zero values mean info level, text format, stderr.
type Config struct {
	Level   string         `json:"level" yaml:"level"`
	Format  string         `json:"format" yaml:"format"`
	Outputs []OutputConfig `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Redact lists field keys whose values are masked.
	Redact   []string        `json:"redact,omitempty" yaml:"redact,omitempty"`
	Sampling *SamplingConfig `json:"sampling,omitempty" yaml:"sampling,omitempty"`
}

// OutputConfig selects one output: "console", "file" (requires Path) or "null".
type OutputConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type SamplingConfig struct {
	Initial    int `json:"initial" yaml:"initial"`
	Thereafter int `json:"thereafter" yaml:"thereafter"`
}

// ParseLevel accepts debug, info, warn/warning, error and fatal in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("log: unknown level %q", s)
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []LoggerOption{WithLevel(lvl)}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts = append(opts, WithFormatter(&TextFormatter{}))
	case "json":
		opts = append(opts, WithFormatter(&JSONFormatter{}))
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	for _, oc := range cfg.Outputs {
		switch strings.ToLower(oc.Type) {
		case "", "console", "stderr":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case "file":
			if oc.Path == "" {
				return nil, fmt.Errorf("log: file output requires a path")
			}
			fo, err := NewFileOutput(oc.Path)
			if err != nil {
				return nil, fmt.Errorf("log: open %s: %w", oc.Path, err)
			}
			opts = append(opts, WithOutput(fo))
		case "null":
			opts = append(opts, WithOutput(NullOutput{}))
		default:
			return nil, fmt.Errorf("log: unknown output type %q", oc.Type)
		}
	}
	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedactions(cfg.Redact...))
	}
	if cfg.Sampling != nil {
		opts = append(opts, WithSampling(cfg.Sampling.Initial, cfg.Sampling.Thereafter))
	}
	return NewLogger(opts...), nil
}
