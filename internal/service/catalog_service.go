package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/repository"
)

// defaultSearchLimit caps catalog search results when the caller passes 0.
const defaultSearchLimit = 50

// CatalogService exposes the bundled exercise catalog: a read-only dataset
// seeded into the local store on first launch and looked up by the plan and
// workout screens.
type CatalogService interface {
	// SeedIfEmpty loads the bundled dataset once. Launches after the first
	// are no-ops, so calling it on every startup is safe.
	SeedIfEmpty(ctx context.Context, dataset []domain.Exercise) error
	GetExercise(ctx context.Context, id string) (*domain.Exercise, error)
	SearchExercises(ctx context.Context, nameQuery, muscle string, limit int) ([]domain.Exercise, error)
}

// catalogService implements the CatalogService interface.
type catalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(catalog repository.CatalogRepository) CatalogService {
	return &catalogService{catalog: catalog}
}

// SeedIfEmpty populates the catalog from the bundled dataset when the table
// is empty.
func (s *catalogService) SeedIfEmpty(ctx context.Context, dataset []domain.Exercise) error {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return translate(err, msgUnableToLoad, "failed to count catalog rows")
	}
	if count > 0 {
		return nil
	}
	if len(dataset) == 0 {
		return domain.NewValidationError("The exercise catalog is unavailable.",
			"seed called with an empty dataset")
	}
	if err := s.catalog.Seed(ctx, dataset); err != nil {
		return translate(err, msgUnableToSave, fmt.Sprintf("failed to seed catalog with %d exercises", len(dataset)))
	}
	log.Printf("Seeded exercise catalog with %d entries", len(dataset))
	return nil
}

// GetExercise looks up one catalog entry by ID.
func (s *catalogService) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	ex, err := s.catalog.Find(ctx, id)
	if err != nil {
		return nil, loadErr(err, "failed to find catalog exercise %s", id)
	}
	return ex, nil
}

// SearchExercises filters the catalog by name substring and/or muscle group.
// Both filters empty returns the full catalog up to the limit.
func (s *catalogService) SearchExercises(ctx context.Context, nameQuery, muscle string, limit int) ([]domain.Exercise, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := s.catalog.Search(ctx, strings.TrimSpace(nameQuery), strings.TrimSpace(muscle), limit)
	if err != nil {
		return nil, loadErr(err, "failed to search catalog (query=%q muscle=%q)", nameQuery, muscle)
	}
	return results, nil
}
