package category

import (
	"log/slog"
)

type RepositoryAPI interface {
	GetAll() ([]*Category, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllCategories() ([]CategoryResponse, error) {
	categories, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		if c.IsActiveCategory() {
			responses = append(responses, c.ToResponse())
		}
	}

	s.logger.Debug("retrieved categories", "count", len(responses))
	return responses, nil
}

// Names lists the active category names in catalog order.
func (s *Service) Names() []string {
	categories, err := s.GetAllCategories()
	if err != nil {
		return nil
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// IsValidCategory matches names exactly; "food" is not "Food".
func (s *Service) IsValidCategory(name string) bool {
	for _, n := range s.Names() {
		if n == name {
			return true
		}
	}
	return false
}
