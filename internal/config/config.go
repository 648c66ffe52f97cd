// Package config loads configs/config.yml through viper. Every Load builds a
// fresh viper instance so site calibration edits are picked up without a
// restart.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pump_control/internal/models"
)

const (
	DefaultPath = "configs/config.yml"
	envPrefix   = "PUMP"
)

type Config struct {
	Port       string     `mapstructure:"port"`
	Log        Log        `mapstructure:"log"`
	DB         DB         `mapstructure:"db"`
	Auth       Auth       `mapstructure:"auth"`
	Session    Session    `mapstructure:"session"`
	Sensaphone Sensaphone `mapstructure:"sensaphone"`
	Secrets    Secrets    `mapstructure:"secrets"`
	Cycle      Cycle      `mapstructure:"cycle"`
	MQTT       MQTT       `mapstructure:"mqtt"`
	Influx     Influx     `mapstructure:"influx"`
	Alarms     Alarms     `mapstructure:"alarms"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DB struct {
	Path string `mapstructure:"path"`
}

type Auth struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type Session struct {
	SafetyMargin time.Duration `mapstructure:"safety_margin"`
	Store        string        `mapstructure:"store"` // sqlite | dynamodb
	DynamoTable  string        `mapstructure:"dynamo_table"`
	Region       string        `mapstructure:"region"`
}

type Sensaphone struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Simulate bool          `mapstructure:"simulate"`
	SimTick  time.Duration `mapstructure:"sim_tick"`
	Breaker  Breaker       `mapstructure:"breaker"`
}

type Breaker struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	ResetWindow time.Duration `mapstructure:"reset_window"`
}

type Secrets struct {
	Provider       string `mapstructure:"provider"` // static | kms
	CiphertextFile string `mapstructure:"ciphertext_file"`
	Region         string `mapstructure:"region"`
}

type Cycle struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"` // 0 leaves scheduling to an external trigger
}

type MQTT struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Topic          string        `mapstructure:"topic"`
	QoS            byte          `mapstructure:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type Influx struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

type Alarms struct {
	Routes []models.AlarmRoute `mapstructure:"routes"`
}

// newViper reads path into a fresh instance. Env vars override file values,
// e.g. PUMP_SENSAPHONE_PASSWORD for sensaphone.password.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "pump_control.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("session.safety_margin", 60*time.Minute)
	v.SetDefault("session.store", "sqlite")
	v.SetDefault("session.dynamo_table", "")
	v.SetDefault("session.region", "")
	v.SetDefault("sensaphone.base_url", "https://rest.sensaphone.net/api/v1")
	v.SetDefault("sensaphone.username", "")
	v.SetDefault("sensaphone.password", "")
	v.SetDefault("sensaphone.timeout", 15*time.Second)
	v.SetDefault("sensaphone.simulate", false)
	v.SetDefault("sensaphone.sim_tick", time.Second)
	v.SetDefault("sensaphone.breaker.max_failures", 5)
	v.SetDefault("sensaphone.breaker.open_timeout", 30*time.Second)
	v.SetDefault("sensaphone.breaker.reset_window", time.Duration(0))
	v.SetDefault("secrets.provider", "static")
	v.SetDefault("secrets.ciphertext_file", "")
	v.SetDefault("secrets.region", "")
	v.SetDefault("cycle.timeout", 25*time.Second)
	v.SetDefault("cycle.interval", time.Duration(0))
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "pump-control")
	v.SetDefault("mqtt.topic", "pump_control/audit")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.connect_timeout", 30*time.Second)
	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
}

// Load reads the application settings.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Session.SafetyMargin < 0 {
		return nil, errors.New("session.safety_margin must not be negative")
	}
	return &cfg, nil
}

// Source reads site policies from the config file on every call.
type Source struct {
	Path string
}

func NewSource(path string) *Source {
	return &Source{Path: path}
}

// defaultPolicy is the base every site's YAML is decoded over.
func defaultPolicy(site string) models.Policy {
	return models.Policy{
		Site:            site,
		LevelUnit:       "Ft",
		NoonWindow:      models.HourWindow{Start: 12, End: 21, EndExclusive: true},
		FillWindow:      models.HourWindow{Start: 22, End: 4},
		OnHour:          -1,
		OnWindowMinutes: 30,
		Timezone:        "UTC",
	}
}

// Policy returns the calibration of site, or models.ErrUnknownSite.
func (s *Source) Policy(site string) (models.Policy, error) {
	v, err := newViper(s.Path)
	if err != nil {
		return models.Policy{}, err
	}
	key := "sites." + strings.ToLower(site)
	if !v.IsSet(key) {
		return models.Policy{}, fmt.Errorf("%w: %q", models.ErrUnknownSite, site)
	}
	pol := defaultPolicy(strings.ToLower(site))
	if err := v.UnmarshalKey(key, &pol); err != nil {
		return models.Policy{}, fmt.Errorf("decode site %q: %w", site, err)
	}
	if pol.MonitoredDevice == "" || pol.OutputZone == "" {
		return models.Policy{}, fmt.Errorf("%w: site %q has no monitored_device/output_zone", models.ErrInvalidInput, site)
	}
	return pol, nil
}

// Sites lists the configured site names.
func (s *Source) Sites() ([]string, error) {
	v, err := newViper(s.Path)
	if err != nil {
		return nil, err
	}
	var out []string
	for name := range v.GetStringMap("sites") {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// AlarmRoutes returns the sentinel-to-sites table.
func (s *Source) AlarmRoutes() ([]models.AlarmRoute, error) {
	v, err := newViper(s.Path)
	if err != nil {
		return nil, err
	}
	var a Alarms
	if err := v.UnmarshalKey("alarms", &a); err != nil {
		return nil, fmt.Errorf("decode alarm routes: %w", err)
	}
	return a.Routes, nil
}
