package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-textfreq/internal/report"
	"github.com/example/go-textfreq/internal/text"
)

// EnvPrefix prefixes every environment override, e.g. TEXTFREQ_SOURCE_PATH.
const EnvPrefix = "TEXTFREQ"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Source   SourceConfig  `mapstructure:"source"`
	Output   OutputConfig  `mapstructure:"output"`
	Server   ServerConfig  `mapstructure:"server"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	LogLevel string        `mapstructure:"log_level"`
}

type SourceConfig struct {
	Path       string `mapstructure:"path"`
	Encoding   string `mapstructure:"encoding"`
	BufferSize int    `mapstructure:"buffer_size"`
	NFC        bool   `mapstructure:"nfc"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	Limit  int    `mapstructure:"limit"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	RootDir         string `mapstructure:"root_dir"`
	Workers         int    `mapstructure:"workers"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Path:       "",
			Encoding:   text.EncodingUTF8,
			BufferSize: 1024,
			NFC:        false,
		},
		Output: OutputConfig{
			Format: report.FormatText,
			Limit:  0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			RootDir:         ".",
			Workers:         2,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("source-path", defaults.Source.Path, "Path to the .txt source file")
	fs.String("source-encoding", defaults.Source.Encoding, "Source encoding: "+strings.Join(text.Encodings(), "|"))
	fs.Int("source-buffer-size", defaults.Source.BufferSize, "Tokenizer read chunk in runes")
	fs.Bool("source-nfc", defaults.Source.NFC, "Compose combining characters (Unicode NFC) before tokenizing")
	fs.String("output-format", defaults.Output.Format, "Output format: "+strings.Join(report.Formats(), "|"))
	fs.Int("output-limit", defaults.Output.Limit, "Max entries printed (0 = all)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.String("server-root-dir", defaults.Server.RootDir, "Directory HTTP requests may read source files from")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent analyses")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds (0 = none)")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("metrics-textfile", defaults.Metrics.Textfile, "Write Prometheus metrics to this file after the command")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("textfreq")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded values and canonicalizes the encoding and output
// format names in place.
func (c *Config) Validate() error {
	enc, err := text.NormalizeEncoding(c.Source.Encoding)
	if err != nil {
		return fmt.Errorf("%w: source.encoding: %w", ErrInvalidConfig, err)
	}
	c.Source.Encoding = enc

	if c.Source.BufferSize < 1 {
		return fmt.Errorf("%w: source.buffer_size must be at least 1, got %d", ErrInvalidConfig, c.Source.BufferSize)
	}

	format, err := report.NormalizeFormat(c.Output.Format)
	if err != nil {
		return fmt.Errorf("%w: output.format: %w", ErrInvalidConfig, err)
	}
	c.Output.Format = format

	if c.Output.Limit < 0 {
		return fmt.Errorf("%w: output.limit must not be negative, got %d", ErrInvalidConfig, c.Output.Limit)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("%w: server.workers must be at least 1, got %d", ErrInvalidConfig, c.Server.Workers)
	}
	if c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("source.path", c.Source.Path)
	v.SetDefault("source.encoding", c.Source.Encoding)
	v.SetDefault("source.buffer_size", c.Source.BufferSize)
	v.SetDefault("source.nfc", c.Source.NFC)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("output.limit", c.Output.Limit)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.root_dir", c.Server.RootDir)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("metrics.textfile", c.Metrics.Textfile)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to the flag names registered by RegisterFlags.
var flagKeys = map[string]string{
	"source.path":             "source-path",
	"source.encoding":         "source-encoding",
	"source.buffer_size":      "source-buffer-size",
	"source.nfc":              "source-nfc",
	"output.format":           "output-format",
	"output.limit":            "output-limit",
	"server.listen_addr":      "server-listen-addr",
	"server.root_dir":         "server-root-dir",
	"server.workers":          "server-workers",
	"server.request_timeout":  "server-request-timeout",
	"server.shutdown_timeout": "server-shutdown-timeout",
	"metrics.textfile":        "metrics-textfile",
	"log_level":               "log-level",
}

// bindFlags binds each config key to its flag so an explicitly set flag wins
// over env and file values. Flags missing from fs are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
