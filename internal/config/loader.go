package config

import (
	"fmt"

	"github.com/merchops/supplier-mdm/internal/db"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// EngineConfig selects the schema inference and mapping policies.
type EngineConfig struct {
	DetectionPolicy string
	FuzzyPolicy     string
}

// Config is the full application configuration.
type Config struct {
	Database  db.Config
	Server    ServerConfig
	Engine    EngineConfig
	UploadDir string
}

// Load reads config.yaml from configPath, with environment overrides under
// the MDM prefix (MDM_DATABASE_HOST, MDM_SERVER_ADDR, ...). Missing files are
// fine; defaults and env vars apply.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Engine: EngineConfig{
			DetectionPolicy: "value_sampling",
			FuzzyPolicy:     "similarity",
		},
		UploadDir: "./uploads",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	v.SetEnvPrefix("MDM")

	// Map nested keys to flat env vars
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("upload.dir")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("engine.detection_policy") {
		cfg.Engine.DetectionPolicy = v.GetString("engine.detection_policy")
	}
	if v.IsSet("engine.fuzzy_policy") {
		cfg.Engine.FuzzyPolicy = v.GetString("engine.fuzzy_policy")
	}
	if v.IsSet("upload.dir") {
		cfg.UploadDir = v.GetString("upload.dir")
	}

	return cfg, nil
}
