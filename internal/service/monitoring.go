package service

import (
	"context"
	"errors"
	"fmt"

	"pump_control/internal/models"
)

// SnapshotReader fetches device state with a session.
type SnapshotReader interface {
	FetchSnapshot(ctx context.Context, cred models.Credential) (models.Snapshot, error)
}

type MonitoringService struct {
	sessions *SessionManager
	api      SnapshotReader
}

func NewMonitoringService(sessions *SessionManager, api SnapshotReader) *MonitoringService {
	return &MonitoringService{sessions: sessions, api: api}
}

// GetSnapshot returns the live state of every device on the account.
func (s *MonitoringService) GetSnapshot(ctx context.Context) (models.Snapshot, error) {
	snap, _, err := fetchWithRenew(ctx, s.sessions, s.api)
	return snap, err
}

// fetchWithRenew reads a snapshot, logging in again once if the remote side
// rejects the session. The credential that worked is returned with it.
func fetchWithRenew(ctx context.Context, sessions *SessionManager, api SnapshotReader) (models.Snapshot, models.Credential, error) {
	cred, err := sessions.EnsureSession(ctx)
	if err != nil {
		return models.Snapshot{}, models.Credential{}, err
	}
	snap, err := api.FetchSnapshot(ctx, cred)
	if !errors.Is(err, models.ErrSessionExpired) {
		return snap, cred, err
	}

	if cred, err = sessions.Renew(ctx, cred); err != nil {
		return models.Snapshot{}, models.Credential{}, err
	}
	snap, err = api.FetchSnapshot(ctx, cred)
	if errors.Is(err, models.ErrSessionExpired) {
		return models.Snapshot{}, models.Credential{}, fmt.Errorf("%w: session rejected after re-login", models.ErrAuth)
	}
	return snap, cred, err
}
