package services

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"insurance-service/internal/models"
	"insurance-service/internal/repository"
)

// ============================================================================
// IN-MEMORY FAKES
// ============================================================================

// memStore is an in-memory repository.Store. WithinTx applies fn directly;
// conditional status transitions behave like the SQL conditional update.
type memStore struct {
	registry  *models.GlobalRegistry
	policies  map[string]*models.ClimatePolicy
	providers map[string]*models.OracleProviderRecord
	accounts  map[string]*models.Account
}

func newMemStore() *memStore {
	return &memStore{
		policies:  make(map[string]*models.ClimatePolicy),
		providers: make(map[string]*models.OracleProviderRecord),
		accounts:  make(map[string]*models.Account),
	}
}

func policyKey(owner string, policyID uint64) string {
	return owner + "/" + strconv.FormatUint(policyID, 10)
}

func (s *memStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *memStore) InitializeRegistry(_ context.Context, authority string) error {
	if s.registry != nil {
		return models.ErrAlreadyInitialized
	}
	s.registry = &models.GlobalRegistry{Authority: authority}
	return nil
}

func (s *memStore) GetRegistry(_ context.Context) (*models.GlobalRegistry, error) {
	if s.registry == nil {
		return nil, models.ErrNotInitialized
	}
	cp := *s.registry
	return &cp, nil
}

func (s *memStore) GetRegistryLocked(ctx context.Context) (*models.GlobalRegistry, error) {
	return s.GetRegistry(ctx)
}

func (s *memStore) SetPaused(_ context.Context, paused bool) error {
	if s.registry == nil {
		return models.ErrNotInitialized
	}
	s.registry.IsPaused = paused
	return nil
}

func (s *memStore) UpdateRegistryCounters(_ context.Context, registry *models.GlobalRegistry) error {
	if s.registry == nil {
		return models.ErrNotInitialized
	}
	s.registry.TotalPolicies = registry.TotalPolicies
	s.registry.TotalPremiumsCollected = registry.TotalPremiumsCollected
	s.registry.TotalPayouts = registry.TotalPayouts
	return nil
}

func (s *memStore) CreatePolicy(_ context.Context, policy *models.ClimatePolicy) error {
	key := policyKey(policy.Owner, policy.PolicyID)
	if _, exists := s.policies[key]; exists {
		return models.ErrDuplicatePolicy
	}
	cp := *policy
	s.policies[key] = &cp
	return nil
}

func (s *memStore) GetPolicy(_ context.Context, owner string, policyID uint64) (*models.ClimatePolicy, error) {
	policy, ok := s.policies[policyKey(owner, policyID)]
	if !ok {
		return nil, models.ErrPolicyNotFound
	}
	cp := *policy
	return &cp, nil
}

func (s *memStore) ListPoliciesByOwner(_ context.Context, owner string) ([]models.ClimatePolicy, error) {
	var result []models.ClimatePolicy
	for _, policy := range s.policies {
		if policy.Owner == owner {
			result = append(result, *policy)
		}
	}
	return result, nil
}

func (s *memStore) ListActivePastEnd(_ context.Context, now int64) ([]models.ClimatePolicy, error) {
	var result []models.ClimatePolicy
	for _, policy := range s.policies {
		if policy.Status == models.PolicyActive && policy.EndTimestamp < now {
			result = append(result, *policy)
		}
	}
	return result, nil
}

func (s *memStore) TransitionPolicyStatus(_ context.Context, owner string, policyID uint64, from, to models.PolicyStatus) (bool, error) {
	policy, ok := s.policies[policyKey(owner, policyID)]
	if !ok || policy.Status != from {
		return false, nil
	}
	policy.Status = to
	return true, nil
}

func (s *memStore) CreateProvider(_ context.Context, record *models.OracleProviderRecord) error {
	cp := *record
	s.providers[record.Provider] = &cp
	return nil
}

func (s *memStore) GetProvider(_ context.Context, provider string) (*models.OracleProviderRecord, error) {
	record, ok := s.providers[provider]
	if !ok {
		return nil, models.ErrUnregisteredOracle
	}
	cp := *record
	return &cp, nil
}

func (s *memStore) ListProviders(_ context.Context) ([]models.OracleProviderRecord, error) {
	var result []models.OracleProviderRecord
	for _, record := range s.providers {
		result = append(result, *record)
	}
	return result, nil
}

func (s *memStore) UpdateProviderStats(_ context.Context, record *models.OracleProviderRecord) error {
	cp := *record
	s.providers[record.Provider] = &cp
	return nil
}

func (s *memStore) EnsureAccount(_ context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		s.accounts[id] = &models.Account{ID: id}
	}
	return nil
}

func (s *memStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, models.ErrInsufficientFunds
	}
	cp := *account
	return &cp, nil
}

func (s *memStore) GetAccountLocked(ctx context.Context, id string) (*models.Account, error) {
	return s.GetAccount(ctx, id)
}

func (s *memStore) SetAccountBalance(_ context.Context, id string, balance uint64) error {
	account, ok := s.accounts[id]
	if !ok {
		return models.ErrInsufficientFunds
	}
	account.Balance = balance
	return nil
}

// memClimateStore keeps readings in a slice, ignoring TTL.
type memClimateStore struct {
	points []models.ClimateDataPoint
}

func (s *memClimateStore) SaveDataPoint(_ context.Context, dp *models.ClimateDataPoint, _ time.Duration) error {
	s.points = append(s.points, *dp)
	return nil
}

func (s *memClimateStore) ListBySources(_ context.Context, sources []string) ([]models.ClimateDataPoint, error) {
	allowed := make(map[string]bool, len(sources))
	for _, source := range sources {
		allowed[source] = true
	}
	var result []models.ClimateDataPoint
	for _, dp := range s.points {
		if allowed[dp.SourceID] {
			result = append(result, dp)
		}
	}
	return result, nil
}

// memReplayGuard accepts any slothash in its retained list.
type memReplayGuard struct {
	history [][]byte
	rotated int
}

func (g *memReplayGuard) Contains(_ context.Context, slothash []byte) (bool, error) {
	for _, entry := range g.history {
		if bytes.Equal(entry, slothash) {
			return true, nil
		}
	}
	return false, nil
}

func (g *memReplayGuard) Rotate(_ context.Context) ([]byte, error) {
	g.rotated++
	head := []byte{byte(g.rotated)}
	g.history = append([][]byte{head}, g.history...)
	return head, nil
}

func (g *memReplayGuard) Current(_ context.Context) ([]byte, error) {
	if len(g.history) == 0 {
		return nil, nil
	}
	return g.history[0], nil
}

// memPublisher records published events.
type memPublisher struct {
	events []string
}

func (p *memPublisher) PublishPolicyEvent(_ context.Context, eventType string, _ any) error {
	p.events = append(p.events, eventType)
	return nil
}

// memArchiver records archived evidence.
type memArchiver struct {
	archived []*models.TriggerEvidence
}

func (a *memArchiver) ArchiveEvidence(_ context.Context, evidence *models.TriggerEvidence) error {
	a.archived = append(a.archived, evidence)
	return nil
}

// acceptAllVerifier treats every signature as valid.
type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(_, _, _ []byte) bool { return true }

// rejectAllVerifier treats every signature as invalid.
type rejectAllVerifier struct{}

func (rejectAllVerifier) Verify(_, _, _ []byte) bool { return false }
