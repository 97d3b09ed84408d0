package config

import (
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"

	"github.com/gwos/sparkmon/clients"
	"github.com/gwos/sparkmon/logzer"
	"github.com/gwos/sparkmon/spark"
)

var (
	once sync.Once
	cfg  *Config
)

const SecVerPrefix = "_v1_"

// LogLevel defines levels in logrus-style
type LogLevel int

// Enum levels
const (
	Error LogLevel = iota
	Warn
	Info
	Debug
	Trace
)

func (l LogLevel) String() string {
	return [...]string{"Error", "Warn", "Info", "Debug", "Trace"}[min(max(int(l), 0), 4)]
}

// Spark defines the monitored backend
type Spark spark.Config

// AsClient returns as spark type
func (c *Spark) AsClient() spark.Config {
	return (spark.Config)(*c)
}

// MarshalYAML implements yaml.Marshaler interface
// overrides the token field
func (c Spark) MarshalYAML() (any, error) {
	type plain Spark
	p := plain(c)
	if s := os.Getenv(SecKeyEnv); s != "" && p.Token != "" {
		encrypted, err := Encrypt([]byte(p.Token), []byte(s))
		if err != nil {
			return nil, err
		}
		p.Token = fmt.Sprintf("%s%x", SecVerPrefix, encrypted)
	}
	return p, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
// overrides the token field
func (c *Spark) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Spark
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if strings.HasPrefix(c.Token, SecVerPrefix) {
		s := os.Getenv(SecKeyEnv)
		if s == "" {
			return fmt.Errorf("unmarshaler error: %s SecKeyEnv is empty", SecVerPrefix)
		}
		var encrypted []byte
		if _, err := fmt.Sscanf(c.Token, SecVerPrefix+"%x", &encrypted); err != nil {
			return err
		}
		decrypted, err := Decrypt(encrypted, []byte(s))
		if err != nil {
			return err
		}
		c.Token = string(decrypted)
	}
	return nil
}

// Transport defines HTTP policy toggles, retries and timeout are fixed
type Transport struct {
	// InsecureSkipVerify turns off TLS certificate validation, true by default
	InsecureSkipVerify bool `env:"INSECURESKIPVERIFY" yaml:"insecureSkipVerify"`
}

// Logger defines logging
type Logger struct {
	// Condense accepts time duration for condensing similar records
	// if 0 turn off condensing
	Condense time.Duration `env:"CONDENSE" yaml:"condense"`
	// File accepts file path to log in addition to stderr
	File        string `env:"FILE" yaml:"file"`
	FileMaxSize int64  `env:"FILEMAXSIZE" yaml:"fileMaxSize"`
	// Log files are rotated count times before being removed.
	// If count is 0, old versions are removed rather than rotated.
	FileRotate int      `env:"FILEROTATE" yaml:"fileRotate"`
	Level      LogLevel `env:"LEVEL" yaml:"level"`
	Colors     bool     `env:"COLORS" yaml:"colors"`
	TimeFormat string   `env:"TIMEFORMAT" yaml:"timeFormat"`
}

// Config defines sparkmon configuration
type Config struct {
	Spark     Spark     `envPrefix:"SPARK_" yaml:"spark"`
	Transport Transport `envPrefix:"TRANSPORT_" yaml:"transport"`
	Logger    Logger    `envPrefix:"LOGGER_" yaml:"logger"`
}

func defaults() Config {
	return Config{
		Spark: Spark{
			Backend: spark.BackendLocal,
			OrgID:   "0",
			UIPort:  spark.DefaultDatabricksUIPort,
		},
		Transport: Transport{
			InsecureSkipVerify: true,
		},
		Logger: Logger{
			Condense:    0,
			FileMaxSize: 1024 * 1024 * 10, // 10MB
			FileRotate:  5,
			Level:       Warn,
			Colors:      false,
			TimeFormat:  time.RFC3339,
		},
	}
}

// GetConfig implements Singleton pattern
func GetConfig() *Config {
	once.Do(func() {
		/* buffer the logging while configuring */
		logBuf := &logzer.LogBuffer{
			Level: zerolog.TraceLevel,
			Size:  16,
		}
		log.Logger = zerolog.New(logBuf).
			With().Timestamp().Caller().Logger()
		log.Info().Msgf("Build info: %s / %s", buildTag, buildTime)

		/* merge defaults, file, and env */
		applyFlags()
		cfg = new(Config)
		*cfg = defaults()
		if data, err := os.ReadFile(cfg.ConfigPath()); err != nil {
			log.Debug().Err(err).
				Str("configPath", cfg.ConfigPath()).
				Msg("could not read config")
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Err(err).
					Str("configData", string(data)).
					Str("configPath", cfg.ConfigPath()).
					Msg("could not parse config")
			}
		}
		if err := applyEnv(cfg); err != nil {
			log.Warn().Err(err).
				Msg("could not apply env vars")
		}

		/* init logger and flush buffer */
		cfg.initLogger()
		logzer.WriteLogBuffer(logBuf)
	})
	return cfg
}

// ConfigPath returns config file path
func (cfg Config) ConfigPath() string {
	configPath := os.Getenv(ConfigEnv)
	if configPath == "" {
		configPath = ConfigName
		if wd, err := os.Getwd(); err == nil {
			configPath = path.Join(wd, ConfigName)
		}
	}
	return configPath
}

// NewTransport returns transport with the configured TLS policy
func (cfg Config) NewTransport(opts ...clients.TransportOption) *clients.Transport {
	return clients.NewTransport(append([]clients.TransportOption{
		clients.WithInsecureSkipVerify(cfg.Transport.InsecureSkipVerify),
	}, opts...)...)
}

// NewClient returns the client variant of the configured backend
func (cfg Config) NewClient(opts ...clients.TransportOption) (spark.Client, error) {
	return spark.New(cfg.Spark.AsClient(), cfg.NewTransport(opts...))
}

// InitTracerProvider inits provider
func (cfg Config) InitTracerProvider() (*tracesdk.TracerProvider, error) {
	return initOTLP(fmt.Sprintf("sparkmon:%s", cfg.Spark.Backend))
}

func (cfg Config) initLogger() {
	if cfg.Logger.Level > Trace {
		cfg.Logger.Level = Trace
	}
	if cfg.Logger.Level < Error {
		cfg.Logger.Level = Error
	}
	lvl := [...]zerolog.Level{3, 2, 1, 0, -1}[cfg.Logger.Level]
	if lvl <= zerolog.DebugLevel {
		cfg.Logger.Condense = 0
	}
	opts := []logzer.Option{
		logzer.WithColors(cfg.Logger.Colors),
		logzer.WithCondense(cfg.Logger.Condense),
		logzer.WithLastErrors(10),
		logzer.WithLevel(lvl),
		logzer.WithTimeFormat(cfg.Logger.TimeFormat),
	}
	if cfg.Logger.File != "" {
		opts = append(opts, logzer.WithLogFile(&logzer.LogFile{
			FilePath: cfg.Logger.File,
			MaxSize:  cfg.Logger.FileMaxSize,
			Rotate:   cfg.Logger.FileRotate,
		}))
	}

	/* prevent writes in global logger */
	log.Logger = zerolog.Nop()
	/* reset to defaults */
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	/* apply options */
	w := logzer.NewLoggerWriter(opts...)
	/* set global logger */
	log.Logger = zerolog.New(w).
		With().Timestamp().Caller().
		Logger()
	/* route slog users */
	slog.SetDefault(slog.New(&logzer.SLogHandler{CallerSkipFrame: 3}))
	/* set as standard logger output */
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}
