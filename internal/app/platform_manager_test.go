package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/config"
	"zhatCmd/internal/interface/outs"
	"zhatCmd/internal/usecase/stream"
)

func TestRegisterStreams(t *testing.T) {
	resolver := stream.NewResolver(nil)
	m := NewPlatformManager(ManagerConfig{
		Context: t.Context(),
		Config: &config.Config{
			TwitchClientId:      "client",
			TwitchApiToken:      "token",
			TwitchBroadcasterId: "1234",
			KickToken:           "kick-token",
		},
		Resolver: resolver,
	})

	assert.Empty(t, m.registerStreams(t.Context()))
	assert.Equal(t, []domain.Platform{domain.PlatformKick, domain.PlatformTwitch}, resolver.Platforms())
	assert.NotNil(t, resolver.ForPlatform(domain.PlatformTwitch))
}

func TestStartWithoutCredentials(t *testing.T) {
	resolver := stream.NewResolver(nil)
	multiOut := outs.NewMultiSender()
	m := NewPlatformManager(ManagerConfig{Resolver: resolver, MultiOut: multiOut})

	require.NoError(t, m.Start())
	assert.Empty(t, resolver.Platforms())
	assert.Empty(t, multiOut.Platforms())
	m.Shutdown()
}

func TestDispatchFillsChannel(t *testing.T) {
	m := NewPlatformManager(ManagerConfig{})
	m.channels[domain.PlatformKick] = "42"

	var got domain.Message
	m.SetHandler(func(_ context.Context, msg domain.Message) error {
		got = msg
		return nil
	})

	require.NoError(t, m.dispatch(t.Context(), domain.Message{Platform: domain.PlatformKick, Text: "!ping"}))
	assert.Equal(t, "42", got.ChannelID)

	require.NoError(t, m.dispatch(t.Context(), domain.Message{Platform: domain.PlatformKick, ChannelID: "7"}))
	assert.Equal(t, "7", got.ChannelID)
}

func TestTwitchHelpers(t *testing.T) {
	assert.Equal(t, "oauth:abc", formatTwitchOAuthToken("abc"))
	assert.Equal(t, "oauth:abc", formatTwitchOAuthToken("oauth:abc"))
	assert.Empty(t, formatTwitchOAuthToken(""))

	assert.Equal(t, []string{"#zero", "#otro"}, sanitizeTwitchChannels([]string{"Zero", " #zero ", "", "otro"}))
}
