// Package app assembles the services from configuration. The HTTP server,
// the Lambda handler and the CLI all start here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/sony/gobreaker"

	"pump_control/internal/audit"
	"pump_control/internal/config"
	"pump_control/internal/logger"
	"pump_control/internal/metrics"
	"pump_control/internal/repository"
	"pump_control/internal/repository/db"
	"pump_control/internal/repository/dynamo"
	"pump_control/internal/secrets"
	"pump_control/internal/sensaphone"
	"pump_control/internal/service"
)

const (
	storeDynamo  = "dynamodb"
	secretsKMS   = "kms"
	breakerLabel = "sensaphone"
)

type App struct {
	Config    *config.Config
	Source    *config.Source
	Services  *service.Service
	Metrics   *metrics.Metrics
	Stream    *audit.Broadcaster
	Simulator *sensaphone.Simulator // set when sensaphone.simulate is on
	Log       *logger.Logger

	db      *sql.DB
	closers []func()
}

// New loads path and wires every dependency. ctx bounds background work such
// as the MQTT connection; Close releases the rest.
func New(ctx context.Context, path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	a := &App{
		Config:  cfg,
		Source:  config.NewSource(path),
		Metrics: metrics.New(),
		Stream:  audit.NewBroadcaster(),
		Log:     log,
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	a.db = conn
	repos := repository.NewRepository(conn)

	creds, err := a.credentialStore(ctx)
	if err != nil {
		return err
	}
	provider, err := a.secretProvider(ctx)
	if err != nil {
		return err
	}
	sink, err := a.sinks(ctx)
	if err != nil {
		return err
	}

	a.Services = service.NewService(service.Deps{
		Repos:        repos,
		Credentials:  creds,
		API:          a.deviceAPI(),
		Secrets:      provider,
		Source:       a.Source,
		Sink:         sink,
		Metrics:      a.Metrics,
		Log:          a.Log,
		SafetyMargin: cfg.Session.SafetyMargin,
		CycleTimeout: cfg.Cycle.Timeout,
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
	})
	return nil
}

// credentialStore returns nil for the SQLite default held by the repository.
func (a *App) credentialStore(ctx context.Context) (repository.CredentialRepo, error) {
	s := a.Config.Session
	if !strings.EqualFold(s.Store, storeDynamo) {
		return nil, nil
	}
	client, err := dynamo.NewClient(ctx, s.Region)
	if err != nil {
		return nil, err
	}
	store, err := dynamo.NewCredentialStore(client, s.DynamoTable)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *App) secretProvider(ctx context.Context) (service.SecretProvider, error) {
	cfg := a.Config
	if !strings.EqualFold(cfg.Secrets.Provider, secretsKMS) {
		return secrets.Static{Username: cfg.Sensaphone.Username, Password: cfg.Sensaphone.Password}, nil
	}
	client, err := secrets.NewKMSClient(ctx, cfg.Secrets.Region)
	if err != nil {
		return nil, err
	}
	return secrets.NewKMS(client, cfg.Sensaphone.Username, cfg.Secrets.CiphertextFile), nil
}

func (a *App) deviceAPI() service.DeviceAPI {
	sc := a.Config.Sensaphone
	if sc.Simulate {
		user, pass := sc.Username, sc.Password
		if !strings.EqualFold(a.Config.Secrets.Provider, "static") {
			// the simulator cannot decrypt; accept any login
			user, pass = "", ""
		}
		a.Simulator = sensaphone.NewSimulator(user, pass)
		a.Log.Infow("sensaphone_simulated", "devices", 3)
		return a.Simulator
	}
	return sensaphone.New(sensaphone.Config{
		BaseURL:     sc.BaseURL,
		Timeout:     sc.Timeout,
		MaxFailures: sc.Breaker.MaxFailures,
		OpenTimeout: sc.Breaker.OpenTimeout,
		ResetWindow: sc.Breaker.ResetWindow,
		OnBreakerChange: func(from, to gobreaker.State) {
			a.Metrics.SetBreakerState(breakerLabel, int(to))
			a.Log.Warnw("breaker_state_changed", "target", breakerLabel, "from", from.String(), "to", to.String())
		},
	})
}

// sinks always includes the in-process stream; MQTT and InfluxDB are optional.
func (a *App) sinks(ctx context.Context) (audit.Sink, error) {
	cfg := a.Config
	out := audit.Multi{a.Stream}

	if cfg.MQTT.Enabled {
		client, err := audit.ConnectMQTT(ctx, audit.MQTTConfig{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, a.Log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Disconnect(250) })
		out = append(out, audit.NewMQTTSink(client, cfg.MQTT.Topic, cfg.MQTT.QoS))
	}

	if cfg.Influx.Enabled {
		client := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
		a.closers = append(a.closers, client.Close)
		out = append(out, audit.NewInfluxSink(client, cfg.Influx.Org, cfg.Influx.Bucket))
	}
	return out, nil
}

// Close releases sinks and the database.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Log.Errorw("sqlite_close_failed", "err", err)
		}
	}
}
