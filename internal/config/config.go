// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON holds a JSON document overriding the file configuration.
	EnvConfigJSON = "MEALDESK_CONFIG_JSON"

	// MainFile is the name of the main configuration file.
	MainFile = "main.toml"

	defaultShutDownTime    = 5
	defaultCookieName      = "mealdesk_sid"
	defaultSessionExpiry   = 24 * time.Hour
	defaultSessionTable    = "mealdesk_sessions"
	defaultBackendTimeout  = 10 * time.Second
	defaultLoadingWait     = 2 * time.Second
	defaultOutcomeTTL      = 5 * time.Second
	defaultDefaultRedirect = "/dashboard"
	defaultCheckAliveURI   = "/checkalive"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, MainFile))
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings needed to start and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Backend.URL == "" {
		return errors.Wrap(ErrEmptyBackendURL, invalidErrMessage)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	setDefaults(c)

	return nil
}

func setDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.CheckAliveURI == "" {
		c.Webserver.CheckAliveURI = defaultCheckAliveURI
	}

	if c.Session.CookieName == "" {
		c.Session.CookieName = defaultCookieName
	}

	if c.Session.ExpiryTime == 0 {
		c.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Session.Storage.Driver == "" {
		c.Session.Storage.Driver = DriverSQLite
	}

	if c.Session.Storage.Table == "" {
		c.Session.Storage.Table = defaultSessionTable
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}

	if c.Guard.DefaultRedirect == "" {
		c.Guard.DefaultRedirect = defaultDefaultRedirect
	}

	if c.Guard.LoadingWait == 0 {
		c.Guard.LoadingWait = defaultLoadingWait
	}

	if c.Guard.OutcomeTTL == 0 {
		c.Guard.OutcomeTTL = defaultOutcomeTTL
	}
}
