package service

import (
	"context"
	"fmt"
	"strings"

	"pump_control/internal/models"
	"pump_control/internal/repository"
)

// PolicyService resolves a site's policy: the configuration file, re-read on
// every call, overlaid with stored key/value overrides.
type PolicyService struct {
	source PolicySource
	params repository.ParamRepo
}

func NewPolicyService(source PolicySource, params repository.ParamRepo) *PolicyService {
	return &PolicyService{source: source, params: params}
}

func (s *PolicyService) Fetch(ctx context.Context, site string) (models.Policy, error) {
	site = normalizeSite(site)
	pol, err := s.source.Policy(site)
	if err != nil {
		return models.Policy{}, err
	}
	overrides, err := s.params.List(ctx, site)
	if err != nil {
		return models.Policy{}, fmt.Errorf("load overrides for %s: %w", site, err)
	}
	for k, v := range overrides {
		if err := pol.Set(k, v); err != nil {
			return models.Policy{}, fmt.Errorf("site %s: %w", site, err)
		}
	}
	return pol, nil
}

// Override stores one key/value after checking it applies cleanly.
func (s *PolicyService) Override(ctx context.Context, site, key, value string) (models.Policy, error) {
	site = normalizeSite(site)
	key = strings.ToLower(strings.TrimSpace(key))

	pol, err := s.Fetch(ctx, site)
	if err != nil {
		return models.Policy{}, err
	}
	if err := pol.Set(key, value); err != nil {
		return models.Policy{}, err
	}
	if err := s.params.Set(ctx, site, key, value); err != nil {
		return models.Policy{}, fmt.Errorf("store override %s.%s: %w", site, key, err)
	}
	return pol, nil
}

func normalizeSite(site string) string {
	return strings.ToLower(strings.TrimSpace(site))
}
