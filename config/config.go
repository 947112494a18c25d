package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Host string
		Port int
	}
	Admin struct {
		Addr string // empty disables the admin API
	}
	Websocket struct {
		Enabled bool
	}
	Matchmaker struct {
		Backend string // memory | redis
		RoomTTL int    // seconds
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Database struct {
		DSN string // empty disables the game archive
	}
	JWT struct {
		Secret string
	}
	Log struct {
		Level string
	}
}

var C Config

const envPrefix = "WAR"

// ListenAddr is the host:port the game acceptor binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Flags declares the command-line overrides understood by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "config/config.yaml", "path to the YAML config file")
	fs.String("host", "", "address to listen on")
	fs.Int("port", 0, "port to listen on")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4444)
	v.SetDefault("admin.addr", "")
	v.SetDefault("websocket.enabled", false)
	v.SetDefault("matchmaker.backend", "memory")
	v.SetDefault("matchmaker.roomTTL", 3600)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.dsn", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.level", "info")
}

// Load reads the file named by the "config" flag (a missing file is not an
// error), then applies WAR_* environment overrides and explicitly set flags.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := "config/config.yaml"
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = f.Value.String()
		}
		bind := map[string]string{
			"server.host": "host",
			"server.port": "port",
			"log.level":   "log-level",
		}
		for key, name := range bind {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch c.Matchmaker.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown matchmaker backend %q", c.Matchmaker.Backend)
	}
	C = c
	return &c, nil
}
