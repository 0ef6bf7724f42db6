package twitchinfra

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicklaw5/helix/v2"

	"zhatCmd/internal/domain"
)

// ErrGameNotFound envuelve domain.ErrCategoryNotFound.
var ErrGameNotFound = fmt.Errorf("game not found: %w", domain.ErrCategoryNotFound)

type TwitchStreamService struct {
	client *helix.Client
}

func NewStreamService(clientID, userAccessToken string) (*TwitchStreamService, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:        clientID,
		UserAccessToken: userAccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("helix: NewClient: %w", err)
	}

	return &TwitchStreamService{
		client: client,
	}, nil
}

func (s *TwitchStreamService) SetTitle(ctx context.Context, broadcasterID, newTitle string) error {
	if strings.TrimSpace(newTitle) == "" {
		return fmt.Errorf("empty title")
	}

	resp, err := s.getClient().EditChannelInformation(&helix.EditChannelInformationParams{
		BroadcasterID: broadcasterID,
		Title:         newTitle,
	})
	if err != nil {
		return fmt.Errorf("helix: EditChannelInformation: %w", err)
	}

	// El endpoint de "Modify Channel Information" devuelve 204 No Content en éxito.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helix: EditChannelInformation failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	return nil
}

func (s *TwitchStreamService) UpdateCategory(ctx context.Context, broadcasterID, gameName string) error {
	gameName = strings.TrimSpace(gameName)
	if gameName == "" {
		return fmt.Errorf("empty game name")
	}

	client := s.getClient()
	gamesResp, err := client.GetGames(&helix.GamesParams{
		Names: []string{gameName},
	})
	if err != nil {
		return fmt.Errorf("helix: GetGames: %w", err)
	}

	if gamesResp.StatusCode != http.StatusOK {
		return fmt.Errorf("helix: GetGames failed (%d: %s) %s",
			gamesResp.StatusCode, gamesResp.Error, gamesResp.ErrorMessage)
	}

	if len(gamesResp.Data.Games) == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameName)
	}

	editResp, err := client.EditChannelInformation(&helix.EditChannelInformationParams{
		BroadcasterID: broadcasterID,
		GameID:        gamesResp.Data.Games[0].ID,
	})
	if err != nil {
		return fmt.Errorf("helix: EditChannelInformation (category): %w", err)
	}

	if editResp.StatusCode != http.StatusNoContent && editResp.StatusCode != http.StatusOK {
		return fmt.Errorf("helix: EditChannelInformation (category) failed (%d: %s) %s",
			editResp.StatusCode, editResp.Error, editResp.ErrorMessage)
	}

	return nil
}

func (s *TwitchStreamService) SearchCategories(ctx context.Context, query string) ([]domain.CategoryOption, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	resp, err := s.getClient().SearchCategories(&helix.SearchCategoriesParams{
		Query: query,
		First: 25,
	})
	if err != nil {
		return nil, fmt.Errorf("helix: SearchCategories: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helix: SearchCategories failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	options := make([]domain.CategoryOption, 0, len(resp.Data.Categories))
	for _, cat := range resp.Data.Categories {
		options = append(options, domain.CategoryOption{
			ID:   cat.ID,
			Name: cat.Name,
		})
	}

	return options, nil
}

func (s *TwitchStreamService) GetStreamStatus(ctx context.Context, broadcasterID string) (domain.StreamStatus, error) {
	resp, err := s.getClient().GetStreams(&helix.StreamsParams{
		UserIDs: []string{broadcasterID},
	})
	if err != nil {
		return domain.StreamStatus{}, fmt.Errorf("helix: GetStreams: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.StreamStatus{}, fmt.Errorf("helix: GetStreams failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	status := domain.StreamStatus{Platform: domain.PlatformTwitch}
	if len(resp.Data.Streams) == 0 {
		return status, nil
	}

	stream := resp.Data.Streams[0]
	status.IsLive = stream.Type == "live"
	status.Title = stream.Title
	status.GameTitle = stream.GameName
	status.ViewerCount = stream.ViewerCount
	status.StartedAt = stream.StartedAt
	status.URL = "https://twitch.tv/" + stream.UserLogin
	return status, nil
}

// ResolveBroadcasterID busca el ID numérico de un login.
func (s *TwitchStreamService) ResolveBroadcasterID(ctx context.Context, login string) (string, error) {
	login = strings.TrimPrefix(strings.TrimSpace(login), "#")
	if login == "" {
		return "", fmt.Errorf("twitch username vacío")
	}

	resp, err := s.getClient().GetUsers(&helix.UsersParams{
		Logins: []string{login},
	})
	if err != nil {
		return "", fmt.Errorf("helix: GetUsers: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("helix: GetUsers failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	if len(resp.Data.Users) == 0 {
		return "", fmt.Errorf("usuario de Twitch no encontrado: %s", login)
	}

	return resp.Data.Users[0].ID, nil
}

func (s *TwitchStreamService) getClient() *helix.Client {
	return s.client
}

var _ domain.TwitchChannelService = (*TwitchStreamService)(nil)
