package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string // inmem (default), postgres, pgx
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	ServerConfig struct {
		Address        string
		Host           string
		DisableReqLogs bool
	}

	AuthConfig struct {
		Mode            string // jwt (default) | remote
		LoginServiceURL string
		Timeout         time.Duration
	}

	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string

		RedisURL string
		LockTTL  time.Duration

		StrictMultipleChoice bool
		ReconcileSchedule    string
		SearchMaxLimit       int

		Database DatabaseConfig
		Server   ServerConfig
		Auth     AuthConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig loads the configuration from the environment (and .env file if any) on top of the defaults.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Elimu")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "wq0-8bnx$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("grading.strictMultipleChoice", false)
	v.SetDefault("reconcile.schedule", "")
	v.SetDefault("search.maxLimit", 100)

	v.SetDefault("database.engine", "inmem")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "elimu")
	v.SetDefault("database.user", "elimu")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.loginServiceURL", "")
	v.SetDefault("auth.timeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:                v.GetBool("debug"),
		TestMode:             v.GetBool("testMode"),
		Env:                  env,
		AppName:              v.GetString("appName"),
		Build:                v.GetString("build"),
		SecretKey:            v.GetString("secretKey"),
		RollbarToken:         v.GetString("rollbarToken"),
		RedisURL:             v.GetString("redis.url"),
		LockTTL:              v.GetDuration("lock.ttl"),
		StrictMultipleChoice: v.GetBool("grading.strictMultipleChoice"),
		ReconcileSchedule:    v.GetString("reconcile.schedule"),
		SearchMaxLimit:       v.GetInt("search.maxLimit"),
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Server: ServerConfig{
			Address:        v.GetString("server.address"),
			Host:           v.GetString("server.host"),
			DisableReqLogs: v.GetBool("server.disableReqLogs"),
		},
		Auth: AuthConfig{
			Mode:            strings.ToLower(v.GetString("auth.mode")),
			LoginServiceURL: v.GetString("auth.loginServiceURL"),
			Timeout:         v.GetDuration("auth.timeout"),
		},
	}
}
