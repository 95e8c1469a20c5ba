package config

import (
	"time"

	"github.com/spf13/viper"
)

// Auth modes selectable via the AUTH_MODE environment variable.
const (
	AuthModeBasic = "basic"
	AuthModeToken = "token"
)

// Config holds all environment-sourced settings. It is loaded once at
// startup and passed to the components that need it; nothing reads the
// environment at request time.
type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string
	Port       string

	AuthMode string

	// Strategy A: static Basic credentials.
	BasicUser     string
	BasicPassword string

	// Strategy B: signed bearer tokens.
	SecretKey         string
	Algorithm         string
	TokenLifetime     time.Duration
	SuperuserName     string
	SuperuserPassword string

	GinLogging string
}

// Load reads the configuration from the environment. Missing variables fall
// back to the documented defaults; credentials and the signing secret have no
// defaults and stay empty when unset.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DBNAME", "phonebook")
	v.SetDefault("AUTH_MODE", AuthModeBasic)
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 15)

	return Config{
		DBUser:            v.GetString("DBUSER"),
		DBPassword:        v.GetString("DBPWD"),
		DBHost:            v.GetString("DBHOST"),
		DBName:            v.GetString("DBNAME"),
		Port:              v.GetString("PORT"),
		AuthMode:          v.GetString("AUTH_MODE"),
		BasicUser:         v.GetString("BASIC_USER"),
		BasicPassword:     v.GetString("BASIC_PASSWORD"),
		SecretKey:         v.GetString("SECRET_KEY"),
		Algorithm:         v.GetString("ALGORITHM"),
		TokenLifetime:     time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		SuperuserName:     v.GetString("SUPERUSER_NAME"),
		SuperuserPassword: v.GetString("SUPERUSER_PASSWORD"),
		GinLogging:        v.GetString("GIN_LOGGING"),
	}
}
