package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrGraphURIRequired = errors.New("graph uri is required")

type Config struct {
	Debug            bool   `yaml:"debug"`
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	GraphURI         string `yaml:"graph_uri"`
	GraphUser        string `yaml:"graph_user"`
	GraphPassword    string `yaml:"graph_password"`
	GraphMaxRetries  int    `yaml:"graph_max_retries"`
	OtelCollectorUrl string `yaml:"otel_collector_url"`
	AllowOrigins     string `yaml:"allow_origins"`
}

func (c Config) Validate() error {
	if c.GraphURI == "" {
		return ErrGraphURIRequired
	}
	return nil
}

// Logger buffers config-time messages until zap is available, since the
// logger itself depends on the loaded config.
type Logger struct {
	entries []entry
}

type entry struct {
	level   string
	message string
	fields  []zap.Field
}

func (l *Logger) Info(message string, fields ...zap.Field) {
	l.entries = append(l.entries, entry{level: "info", message: message, fields: fields})
}

func (l *Logger) Warn(message string, fields ...zap.Field) {
	l.entries = append(l.entries, entry{level: "warn", message: message, fields: fields})
}

func (l *Logger) FlushToZap(logger *zap.Logger) {
	for _, e := range l.entries {
		switch e.level {
		case "warn":
			logger.Warn(e.message, e.fields...)
		default:
			logger.Info(e.message, e.fields...)
		}
	}
	l.entries = nil
}

// Load assembles the configuration from, in increasing precedence,
// defaults, config.yaml, the environment (with .env applied) and flags.
func Load() (Config, *Logger) {
	logger := &Logger{}

	cfg := Config{
		Host:            "localhost",
		Port:            "8080",
		GraphMaxRetries: 5,
	}

	cfg = loadConfigFile(cfg, "config.yaml", logger)
	cfg = loadEnv(cfg, logger)
	cfg = loadFlags(cfg)

	return cfg, logger
}

func loadConfigFile(cfg Config, path string, logger *Logger) Config {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read config file", zap.String("path", path), zap.Error(err))
		}
		return cfg
	}

	fileCfg := cfg
	if err := yaml.Unmarshal(content, &fileCfg); err != nil {
		logger.Warn("Failed to parse config file, ignoring it", zap.String("path", path), zap.Error(err))
		return cfg
	}

	logger.Info("Loaded config file", zap.String("path", path))
	return fileCfg
}

func loadEnv(cfg Config, logger *Logger) Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load .env file", zap.Error(err))
		}
	} else {
		logger.Info("Loaded .env file")
	}

	applyString := func(key string, target *string) {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*target = value
		}
	}

	applyString("HOST", &cfg.Host)
	applyString("PORT", &cfg.Port)
	applyString("GRAPH_URI", &cfg.GraphURI)
	applyString("GRAPH_USER", &cfg.GraphUser)
	applyString("GRAPH_PASSWORD", &cfg.GraphPassword)
	applyString("OTEL_COLLECTOR_URL", &cfg.OtelCollectorUrl)
	applyString("ALLOW_ORIGINS", &cfg.AllowOrigins)

	if value, ok := os.LookupEnv("DEBUG"); ok && value != "" {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			logger.Warn("Invalid DEBUG value, expected a boolean", zap.String("value", value))
		} else {
			cfg.Debug = debug
		}
	}

	if value, ok := os.LookupEnv("GRAPH_MAX_RETRIES"); ok && value != "" {
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			logger.Warn("Invalid GRAPH_MAX_RETRIES value, expected a non-negative integer", zap.String("value", value))
		} else {
			cfg.GraphMaxRetries = retries
		}
	}

	return cfg
}

func loadFlags(cfg Config) Config {
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug mode")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "server host")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.StringVar(&cfg.GraphURI, "graph-uri", cfg.GraphURI, "bolt uri of the graph database")
	flag.StringVar(&cfg.GraphUser, "graph-user", cfg.GraphUser, "graph database user")
	flag.StringVar(&cfg.GraphPassword, "graph-password", cfg.GraphPassword, "graph database password")
	flag.IntVar(&cfg.GraphMaxRetries, "graph-max-retries", cfg.GraphMaxRetries, "connection attempts before giving up")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", cfg.OtelCollectorUrl, "OTLP gRPC collector url")
	flag.StringVar(&cfg.AllowOrigins, "allow-origins", cfg.AllowOrigins, "comma separated list of allowed CORS origins")
	flag.Parse()

	return cfg
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
