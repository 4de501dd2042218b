// Package config loads the service configuration from defaults, a config
// file, the environment and command-line flags.
package config

import (
	"os"
	"path"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. TEAMCHAT_AUTH_SIGNINGKEY.
const EnvPrefix = "TEAMCHAT"

// MinSigningKeyLen is the shortest accepted HS256 signing key, in bytes.
const MinSigningKeyLen = 32

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Hub      HubConfig      `mapstructure:"hub"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Bind            string        `mapstructure:"bind"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type AuthConfig struct {
	SigningKey     string        `mapstructure:"signingKey"`
	Issuer         string        `mapstructure:"issuer"`
	TokenTTL       time.Duration `mapstructure:"tokenTTL"`
	Leeway         time.Duration `mapstructure:"leeway"`
	AllowDevTokens bool          `mapstructure:"allowDevTokens"`
}

type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"autoMigrate"`
}

// RedisConfig configures presence and the membership bus. An empty Addr
// disables both.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HubConfig struct {
	SendBuffer     int           `mapstructure:"sendBuffer"`
	PushTimeout    time.Duration `mapstructure:"pushTimeout"`
	Shards         int           `mapstructure:"shards"`
	MaxMessageSize int64         `mapstructure:"maxMessageSize"`
	PingPeriod     time.Duration `mapstructure:"pingPeriod"`
	PongWait       time.Duration `mapstructure:"pongWait"`
	WriteWait      time.Duration `mapstructure:"writeWait"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.bind", ":8080")
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 15*time.Second)

	v.SetDefault("auth.signingKey", "")
	v.SetDefault("auth.issuer", "teamchat")
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("auth.leeway", 30*time.Second)
	v.SetDefault("auth.allowDevTokens", false)

	v.SetDefault("database.dsn", "host=localhost user=user password=password dbname=teamchat port=5432 sslmode=disable")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("hub.sendBuffer", 64)
	v.SetDefault("hub.pushTimeout", 5*time.Second)
	v.SetDefault("hub.shards", 32)
	v.SetDefault("hub.maxMessageSize", 64*1024)
	v.SetDefault("hub.pingPeriod", 54*time.Second)
	v.SetDefault("hub.pongWait", 60*time.Second)
	v.SetDefault("hub.writeWait", 10*time.Second)
	v.SetDefault("hub.allowedOrigins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultDir returns $HOME/.config/teamchat.
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "find home directory")
	}
	return path.Join(home, ".config", "teamchat"), nil
}

// Load prepares v with Prepare and decodes it with Decode.
func Load(v *viper.Viper, dir string) (*Config, error) {
	if err := Prepare(v, dir); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Prepare registers the defaults on v, enables TEAMCHAT_* environment
// overrides and reads teamchat.(yaml|toml|json) from dir when present.
// Flags bound to v take precedence over all of them.
func Prepare(v *viper.Viper, dir string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir == "" {
		return nil
	}
	v.AddConfigPath(dir)
	v.SetConfigName("teamchat")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config file")
		}
	}
	return nil
}

// Decode builds a validated Config from the settings in v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	shards := 1
	for shards < c.Hub.Shards {
		shards <<= 1
	}
	c.Hub.Shards = shards

	if c.Hub.PingPeriod >= c.Hub.PongWait {
		c.Hub.PingPeriod = (c.Hub.PongWait * 9) / 10
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case len(c.Auth.SigningKey) < MinSigningKeyLen:
		return errors.Errorf("auth.signingKey must be at least %d bytes", MinSigningKeyLen)
	case c.Auth.TokenTTL <= 0:
		return errors.New("auth.tokenTTL must be positive")
	case c.Auth.Leeway < 0:
		return errors.New("auth.leeway must not be negative")
	case c.Database.DSN == "":
		return errors.New("database.dsn is required")
	case c.Hub.SendBuffer <= 0:
		return errors.New("hub.sendBuffer must be positive")
	case c.Hub.PushTimeout <= 0:
		return errors.New("hub.pushTimeout must be positive")
	case c.Hub.MaxMessageSize <= 0:
		return errors.New("hub.maxMessageSize must be positive")
	case c.Hub.PongWait <= 0 || c.Hub.WriteWait <= 0:
		return errors.New("hub.pongWait and hub.writeWait must be positive")
	case c.Log.Format != "text" && c.Log.Format != "json":
		return errors.Errorf("log.format must be text or json, not %q", c.Log.Format)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// NewLogger builds the process logger described by c.
func NewLogger(c LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}

	log := logrus.New()
	log.Out = os.Stderr
	log.Level = level
	if c.Format == "json" {
		log.Formatter = new(logrus.JSONFormatter)
	} else {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return log, nil
}
