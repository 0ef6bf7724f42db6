package kickinfra

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	kicksdk "github.com/glichtv/kick-sdk"
	optional "github.com/glichtv/kick-sdk/optional"

	"zhatCmd/internal/domain"
)

type KickStreamServiceConfig struct {
	AccessToken string
}

type KickStreamService struct {
	client *kicksdk.Client
}

func NewStreamService(cfg KickStreamServiceConfig) (*KickStreamService, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("kick access token vacío")
	}
	return &KickStreamService{client: newClient(cfg.AccessToken)}, nil
}

func newClient(token string) *kicksdk.Client {
	return kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: token,
		}),
	)
}

// Cambiar título del directo en Kick
func (s *KickStreamService) SetTitle(ctx context.Context, newTitle string) error {
	if strings.TrimSpace(newTitle) == "" {
		return fmt.Errorf("título vacío")
	}

	input := kicksdk.UpdateStreamInput{
		StreamTitle: optional.From(newTitle),
	}

	if _, err := s.getClient().Channels().UpdateStream(ctx, input); err != nil {
		return fmt.Errorf("kick: error al actualizar título: %w", err)
	}

	return nil
}

func (s *KickStreamService) SetCategory(ctx context.Context, categoryName string) error {
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return fmt.Errorf("categoría vacía")
	}

	categories, err := s.search(ctx, categoryName)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("kick: %w: %q", domain.ErrCategoryNotFound, categoryName)
	}

	input := kicksdk.UpdateStreamInput{
		CategoryID: optional.From(categories[0].ID),
	}

	if _, err := s.getClient().Channels().UpdateStream(ctx, input); err != nil {
		return fmt.Errorf("kick: error actualizando categoría: %w", err)
	}

	return nil
}

func (s *KickStreamService) SearchCategories(ctx context.Context, query string) ([]domain.CategoryOption, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("categoría vacía")
	}

	categories, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	options := make([]domain.CategoryOption, 0, len(categories))
	for _, cat := range categories {
		options = append(options, domain.CategoryOption{
			ID:   strconv.Itoa(cat.ID),
			Name: cat.Name,
		})
	}

	return options, nil
}

func (s *KickStreamService) search(ctx context.Context, query string) ([]kicksdk.Category, error) {
	resp, err := s.getClient().Categories().Search(ctx, kicksdk.SearchCategoriesInput{
		Query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("kick: error buscando categorías: %w", err)
	}
	return resp.Payload, nil
}

func (s *KickStreamService) getClient() *kicksdk.Client {
	return s.client
}

var _ domain.StreamService = (*KickStreamService)(nil)
