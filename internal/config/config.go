package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/objnode/internal/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".objnode"
	envPrefix  = "OBJNODE"
)

const (
	KeyNodeHost            = "node.host"
	KeyNodePort            = "node.port"
	KeyNodeDataDir         = "node.data_dir"
	KeyMetadataURL         = "metadata.url"
	KeyMetadataPath        = "metadata.path"
	KeySessionLifecycle    = "session.lifecycle"
	KeySessionTTL          = "session.ttl"
	KeyGCInterval          = "gc.interval"
	KeyDispatchCallTimeout = "dispatch.call_timeout"
	KeyShards              = "shards"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
)

type Config struct {
	Node     NodeConfig     `toml:"node"`
	Metadata MetadataConfig `toml:"metadata"`
	Session  SessionConfig  `toml:"session"`
	GC       GCConfig       `toml:"gc"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Shards   int            `toml:"shards"`
	Log      LogConfig      `toml:"log"`
}

type NodeConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	DataDir string `toml:"data_dir"`
}

type MetadataConfig struct {
	// URL of a remote naming service. Empty means this node keeps the
	// registry in a local TOML file and serves it to peers.
	URL  string `toml:"url"`
	Path string `toml:"path"`
}

type SessionConfig struct {
	Lifecycle bool          `toml:"lifecycle"`
	TTL       time.Duration `toml:"ttl"`
}

type GCConfig struct {
	Interval time.Duration `toml:"interval"`
}

type DispatchConfig struct {
	CallTimeout time.Duration `toml:"call_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Load reads ~/.objnode/config.toml when present, applies OBJNODE_* environment
// overrides and validates the result. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, homeDir)

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Node: NodeConfig{
			Host:    v.GetString(KeyNodeHost),
			Port:    v.GetInt(KeyNodePort),
			DataDir: v.GetString(KeyNodeDataDir),
		},
		Metadata: MetadataConfig{
			URL:  v.GetString(KeyMetadataURL),
			Path: v.GetString(KeyMetadataPath),
		},
		Session: SessionConfig{
			Lifecycle: v.GetBool(KeySessionLifecycle),
			TTL:       v.GetDuration(KeySessionTTL),
		},
		GC:       GCConfig{Interval: v.GetDuration(KeyGCInterval)},
		Dispatch: DispatchConfig{CallTimeout: v.GetDuration(KeyDispatchCallTimeout)},
		Shards:   v.GetInt(KeyShards),
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}

	if cfg.Node.DataDir != "" {
		dataDir, err := filepath.Abs(cfg.Node.DataDir)
		if err != nil {
			return Config{}, fmt.Errorf("resolve data directory: %w", err)
		}
		cfg.Node.DataDir = filepath.Clean(dataDir)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func SetDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault(KeyNodeHost, "127.0.0.1")
	v.SetDefault(KeyNodePort, 7400)
	v.SetDefault(KeyNodeDataDir, filepath.Join(homeDir, configDir, "data"))
	v.SetDefault(KeyMetadataURL, "")
	v.SetDefault(KeyMetadataPath, "")
	v.SetDefault(KeySessionLifecycle, true)
	v.SetDefault(KeySessionTTL, 5*time.Minute)
	v.SetDefault(KeyGCInterval, 30*time.Second)
	v.SetDefault(KeyDispatchCallTimeout, 10*time.Second)
	v.SetDefault(KeyShards, 64)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Node.Host) == "" {
		errs = append(errs, errors.New("node.host is required"))
	}
	if c.Node.Port < 1 || c.Node.Port > 65535 {
		errs = append(errs, fmt.Errorf("node.port %d is out of range", c.Node.Port))
	}
	if c.Node.DataDir == "" {
		errs = append(errs, errors.New("node.data_dir is required"))
	}
	if c.Metadata.URL != "" {
		parsed, err := url.Parse(c.Metadata.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("metadata.url %q must be an http or https url", c.Metadata.URL))
		}
	}
	if c.Session.Lifecycle && c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive when session.lifecycle is enabled"))
	}
	if c.GC.Interval < 0 {
		errs = append(errs, errors.New("gc.interval must not be negative"))
	}
	if c.Dispatch.CallTimeout < 0 {
		errs = append(errs, errors.New("dispatch.call_timeout must not be negative"))
	}
	if c.Shards < 1 {
		errs = append(errs, fmt.Errorf("shards must be at least 1, got %d", c.Shards))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be console or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) Self() domain.NodeID {
	return domain.NodeID{Host: c.Node.Host, Port: c.Node.Port}
}

// NodeURL is the base URL of this node's HTTP API.
func (c Config) NodeURL() string {
	return "http://" + c.Self().String()
}
