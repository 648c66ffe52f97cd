// Package sensaphone talks to the Sensaphone.net REST API: login, a full
// device read, and output zone updates.
package sensaphone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"pump_control/internal/models"
)

const DefaultBaseURL = "https://rest.sensaphone.net/api/v1"

type Config struct {
	BaseURL string
	Timeout time.Duration

	// breaker
	MaxFailures uint32
	OpenTimeout time.Duration
	ResetWindow time.Duration

	// OnBreakerChange is told about breaker transitions, e.g. for a gauge.
	OnBreakerChange func(from, to gobreaker.State)
}

type Client struct {
	HTTP *resty.Client
	cb   *gobreaker.CircuitBreaker
	now  func() time.Time
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetTimeout(cfg.Timeout)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")

	return &Client{
		HTTP: r,
		cb:   newBreaker("sensaphone", cfg),
		now:  time.Now,
	}
}

// Login opens a session. An explicit rejection is models.ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (models.Credential, error) {
	env, err := c.post(ctx, "/login", loginRequest{
		RequestType: requestCreate,
		Resource:    resourceLogin,
		UserName:    username,
		Password:    password,
	})
	if err != nil {
		return models.Credential{}, err
	}
	if !env.Result.Success {
		return models.Credential{}, fmt.Errorf("%w: login code %d %s", models.ErrAuth, env.Result.Code, env.Result.Message)
	}

	var lr loginResponse
	if err := json.Unmarshal(env.Response, &lr); err != nil {
		return models.Credential{}, fmt.Errorf("%w: decode login response: %v", models.ErrTransport, err)
	}
	if lr.Session == "" {
		return models.Credential{}, fmt.Errorf("%w: login successful but no session returned", models.ErrTransport)
	}
	return lr.credential(c.now()), nil
}

// FetchSnapshot reads every device on the account.
func (c *Client) FetchSnapshot(ctx context.Context, cred models.Credential) (models.Snapshot, error) {
	env, err := c.post(ctx, "/device", deviceRequest{
		RequestType: requestRead,
		Resource:    resourceDevice,
		AcctID:      cred.AccountID,
		Session:     cred.Token,
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	if err := sessionErr(env.Result); err != nil {
		return models.Snapshot{}, err
	}
	if !env.Result.Success {
		return models.Snapshot{}, fmt.Errorf("%w: device read code %d %s", models.ErrTransport, env.Result.Code, env.Result.Message)
	}

	var dr deviceResponse
	if err := json.Unmarshal(env.Response, &dr); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decode device response: %v", models.ErrTransport, err)
	}
	if dr.Device == nil {
		return models.Snapshot{}, fmt.Errorf("%w: response has no device list", models.ErrTransport)
	}
	return toSnapshot(*dr.Device, c.now())
}

// SetOutput writes value to one output zone. A remote rejection returns the
// result together with models.ErrUpstream.
func (c *Client) SetOutput(ctx context.Context, cred models.Credential, deviceID, zoneID int64, value int) (WriteResult, error) {
	env, err := c.post(ctx, "/device/zone", deviceRequest{
		RequestType: requestUpdate,
		Resource:    resourceDevice,
		AcctID:      cred.AccountID,
		Session:     cred.Token,
		Device: []deviceWrite{{
			DeviceID: deviceID,
			Zone:     []zoneWrite{{ZoneID: zoneID, OutputZone: outputValue{Value: value}}},
		}},
	})
	if err != nil {
		return WriteResult{}, err
	}
	if err := sessionErr(env.Result); err != nil {
		return WriteResult{}, err
	}

	raw, _ := json.Marshal(env)
	res := WriteResult{
		Success: env.Result.Success,
		Code:    env.Result.Code,
		Message: env.Result.Message,
		Raw:     raw,
	}
	if !res.Success {
		return res, fmt.Errorf("%w: code %d %s", models.ErrUpstream, res.Code, res.Message)
	}
	return res, nil
}

// post sends body through the breaker and decodes the envelope. Only transport
// problems (network, non-JSON, missing result) are returned as errors here.
func (c *Client) post(ctx context.Context, path string, body any) (envelope, error) {
	out, err := c.cb.Execute(func() (any, error) {
		resp, err := c.HTTP.R().
			SetContext(ctx).
			SetBody(body).
			Post(path)
		if err != nil {
			return nil, fmt.Errorf("%w: POST %s: %v", models.ErrTransport, path, err)
		}

		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil || env.Result == nil {
			return nil, fmt.Errorf("%w: POST %s: status %d, unreadable body", models.ErrTransport, path, resp.StatusCode())
		}
		return env, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return envelope{}, fmt.Errorf("%w: %v", models.ErrTransport, err)
		}
		return envelope{}, err
	}
	return out.(envelope), nil
}

func sessionErr(r *result) error {
	if !r.Success && r.Code == codeSessionInvalid {
		return fmt.Errorf("%w: %s", models.ErrSessionExpired, r.Message)
	}
	return nil
}
