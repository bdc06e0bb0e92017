package nzbn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	LookupPageSize     = 5
	SuggestionPageSize = 10
	BatchPageSize      = 1
)

// Registry is the subset of the NZBN API the service depends on.
type Registry interface {
	SearchEntities(ctx context.Context, term string, pageSize int) (*SearchResponse, error)
	GetEntity(ctx context.Context, nzbn string) (*EntityResponse, error)
}

var _ Registry = (*Client)(nil)

type Service struct {
	registry Registry
	logger   *zap.Logger
}

func NewService(registry Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// FindCompany resolves name to a registry entity. A nil match with a nil
// error means the registry returned no items.
func (s *Service) FindCompany(ctx context.Context, name string, mode MatchMode, pageSize int) (*RegistryMatch, error) {
	resp, err := s.registry.SearchEntities(ctx, name, pageSize)
	if err != nil {
		s.checkKey(err)
		return nil, err
	}

	match := SelectMatch(resp.Items, name, mode)
	if match == nil {
		s.logger.Info("no registry match", zap.String("name", name), zap.Stringer("mode", mode))
		return nil, nil
	}

	s.logger.Info("registry match",
		zap.String("name", name),
		zap.String("nzbn", match.NZBN),
		zap.String("entity_name", match.EntityName),
		zap.Stringer("mode", mode))

	return match, nil
}

// GetDirectors returns the active directors of the entity identified by nzbn.
func (s *Service) GetDirectors(ctx context.Context, nzbn string, nameCase NameCase) ([]Director, error) {
	entity, err := s.registry.GetEntity(ctx, nzbn)
	if err != nil {
		s.checkKey(err)
		return nil, err
	}

	directors := ActiveDirectors(entity.Roles, nameCase)

	s.logger.Info("active directors",
		zap.String("nzbn", nzbn),
		zap.Int("roles", len(entity.Roles)),
		zap.Int("directors", len(directors)))

	return directors, nil
}

// Lookup runs the interactive search: a strict match over a small page, then
// the director fetch. Any failure is reported through LookupResult.Error.
func (s *Service) Lookup(ctx context.Context, companyName string) *LookupResult {
	companyName = strings.TrimSpace(companyName)

	result := &LookupResult{
		Query:     companyName,
		Directors: []Director{},
	}

	if companyName == "" {
		result.Error = "Please enter a company name."
		return result
	}

	match, err := s.FindCompany(ctx, companyName, MatchStrict, LookupPageSize)
	if err != nil {
		s.logger.Warn("lookup search failed", zap.String("name", companyName), zap.Error(err))
		result.Error = searchErrorMessage(err)

		return result
	}

	if match == nil || match.NZBN == "" {
		result.Error = "No company found with that name."
		return result
	}

	result.Match = match

	directors, err := s.GetDirectors(ctx, match.NZBN, NameCaseAsIs)
	if err != nil {
		s.logger.Warn("lookup entity failed", zap.String("nzbn", match.NZBN), zap.Error(err))
		result.Error = entityErrorMessage(err)

		return result
	}

	result.Directors = directors

	return result
}

// Suggest returns typeahead entries for q. A blank query never reaches the
// registry.
func (s *Service) Suggest(ctx context.Context, q string) ([]Suggestion, error) {
	suggestions := []Suggestion{}

	q = strings.TrimSpace(q)
	if q == "" {
		return suggestions, nil
	}

	resp, err := s.registry.SearchEntities(ctx, q, SuggestionPageSize)
	if err != nil {
		s.checkKey(err)
		return suggestions, err
	}

	for _, item := range resp.Items {
		if item.EntityName == "" || item.NZBN == "" {
			continue
		}

		suggestions = append(suggestions, Suggestion{Name: item.EntityName, NZBN: item.NZBN})
	}

	return suggestions, nil
}

// checkKey logs a rejected subscription key at error level.
func (s *Service) checkKey(err error) {
	if errors.Is(err, ErrUnauthorized) {
		s.logger.Error("registry rejected the subscription key; check NZBN_API_KEY", zap.Error(err))
	}
}

func searchErrorMessage(err error) string {
	var statusErr *StatusError

	switch {
	case errors.Is(err, ErrMissingSubscriptionKey):
		return "Registry subscription key is not configured."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("API error: %d %s", statusErr.StatusCode, statusErr.Reason())
	default:
		return fmt.Sprintf("Request failed: %v", err)
	}
}

func entityErrorMessage(err error) string {
	var statusErr *StatusError

	switch {
	case errors.Is(err, ErrMissingSubscriptionKey):
		return "Registry subscription key is not configured."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Failed to get entity details: %d %s", statusErr.StatusCode, statusErr.Reason())
	default:
		return fmt.Sprintf("Request failed: %v", err)
	}
}
