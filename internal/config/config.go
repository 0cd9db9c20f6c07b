// Package config resolves the service configuration once at startup.
//
// Values come from defaults, an optional YAML file named by CONFIG_FILE and
// environment variables, in increasing order of precedence. Keys use dots in
// files ("gateway.api_key") and underscores in the environment
// ("GATEWAY_API_KEY").
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	CORS       CORSConfig       `mapstructure:"cors"`
	DB         DBConfig         `mapstructure:"db"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Callback   CallbackConfig   `mapstructure:"callback"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Mail       MailConfig       `mapstructure:"mail"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Mailtrap   MailtrapConfig   `mapstructure:"mailtrap"`
	Email      EmailConfig      `mapstructure:"email"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Local      LocalConfig      `mapstructure:"local"`
	S3         S3Config         `mapstructure:"s3"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	CallbackURL string        `mapstructure:"callback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Configured reports whether outbound charges can be attempted.
func (g GatewayConfig) Configured() bool {
	return g.BaseURL != "" && g.APIKey != ""
}

type CallbackConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
}

// SimulationConfig gates the simulated completion used for integration
// testing. Both Enabled and a TestPhone are required for it to fire.
type SimulationConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TestPhone string        `mapstructure:"test_phone"`
	Delay     time.Duration `mapstructure:"delay"`
}

func (s SimulationConfig) Active() bool {
	return s.Enabled && s.TestPhone != ""
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
}

type MailConfig struct {
	Driver string `mapstructure:"driver"` // none|smtp|mailtrap
}

type SMTPConfig struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Pass          string `mapstructure:"pass"`
	TLSMode       string `mapstructure:"tls_mode"` // none|tls|starttls
	SkipVerifyTLS bool   `mapstructure:"skip_verify_tls"`
}

type MailtrapConfig struct {
	APIURL   string `mapstructure:"api_url"`
	APIToken string `mapstructure:"api_token"`
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // local|s3
}

type LocalConfig struct {
	UploadDir       string `mapstructure:"upload_dir"`
	UploadURLPrefix string `mapstructure:"upload_url_prefix"`
}

type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// defaults doubles as the list of recognised keys: viper only resolves
// environment overrides during Unmarshal for keys it already knows about.
var defaults = map[string]any{
	"http.addr":               ":8080",
	"cors.allowed_origins":    []string{},
	"db.dsn":                  "",
	"gateway.base_url":        "https://zenoapi.com",
	"gateway.api_key":         "",
	"gateway.callback_url":    "",
	"gateway.timeout":         30 * time.Second,
	"callback.signing_secret": "",
	"simulation.enabled":      false,
	"simulation.test_phone":   "",
	"simulation.delay":        3 * time.Second,
	"admin.username":          "admin",
	"admin.password_hash":     "",
	"mail.driver":             "none",
	"smtp.host":               "localhost",
	"smtp.port":               "1025",
	"smtp.user":               "",
	"smtp.pass":               "",
	"smtp.tls_mode":           "none",
	"smtp.skip_verify_tls":    false,
	"mailtrap.api_url":        "",
	"mailtrap.api_token":      "",
	"email.from":              "no-reply@localhost",
	"email.from_name":         "",
	"storage.driver":          "local",
	"local.upload_dir":        "./storage/exports",
	"local.upload_url_prefix": "/exports",
	"s3.region":               "",
	"s3.bucket":               "",
	"s3.prefix":               "exports",
	"s3.public_base_url":      "",
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if c.Simulation.Delay < 0 {
		return fmt.Errorf("simulation.delay must not be negative")
	}
	switch c.Mail.Driver {
	case "none", "smtp", "mailtrap":
	default:
		return fmt.Errorf("unknown mail.driver: %s", c.Mail.Driver)
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage.driver: %s", c.Storage.Driver)
	}
	return nil
}

// splitList accepts both YAML lists and a comma separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
