package config

import (
	"time"

	"github.com/spf13/viper"

	"arena-game/game"
)

// Config holds all server settings
type Config struct {
	Addr      string `mapstructure:"addr"`
	PublicURL string `mapstructure:"publicUrl"`
	DBPath    string `mapstructure:"dbPath"`
	LogLevel  string `mapstructure:"logLevel"`

	MaxConnsPerIP int `mapstructure:"maxConnsPerIp"`
	MaxConns      int `mapstructure:"maxConns"`

	RespawnDelaySec float64 `mapstructure:"respawnDelaySec"`

	World struct {
		MinX   float64 `mapstructure:"minX"`
		MaxX   float64 `mapstructure:"maxX"`
		MinZ   float64 `mapstructure:"minZ"`
		MaxZ   float64 `mapstructure:"maxZ"`
		SpawnY float64 `mapstructure:"spawnY"`
	} `mapstructure:"world"`
}

// Load reads configuration from arena.yaml (optional) with ARENA_*
// environment overrides and defaults for everything.
func Load(configDir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("publicUrl", "http://localhost:8080")
	v.SetDefault("dbPath", "arena.db")
	v.SetDefault("logLevel", "info")
	v.SetDefault("maxConnsPerIp", 5)
	v.SetDefault("maxConns", 1000)
	v.SetDefault("respawnDelaySec", 3.0)
	v.SetDefault("world.minX", -50.0)
	v.SetDefault("world.maxX", 50.0)
	v.SetDefault("world.minZ", -50.0)
	v.SetDefault("world.maxZ", 50.0)
	v.SetDefault("world.spawnY", 1.6)

	v.SetConfigName("arena")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("ARENA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine — defaults and env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RespawnDelay returns the respawn delay as a duration
func (c *Config) RespawnDelay() time.Duration {
	return time.Duration(c.RespawnDelaySec * float64(time.Second))
}

// SpawnBounds returns the configured world spawn region
func (c *Config) SpawnBounds() game.SpawnBounds {
	return game.SpawnBounds{
		MinX: c.World.MinX,
		MaxX: c.World.MaxX,
		MinZ: c.World.MinZ,
		MaxZ: c.World.MaxZ,
		Y:    c.World.SpawnY,
	}
}
