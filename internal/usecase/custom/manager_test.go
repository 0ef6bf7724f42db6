package custom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/commands"
)

type memoryRepo struct {
	items   map[string]*domain.CustomCommand
	failing error
}

func newMemoryRepo(cmds ...*domain.CustomCommand) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]*domain.CustomCommand)}
	for _, cmd := range cmds {
		repo.items[cmd.Name] = cmd
	}
	return repo
}

func (r *memoryRepo) UpsertCustomCommand(_ context.Context, cmd *domain.CustomCommand) error {
	if r.failing != nil {
		return r.failing
	}
	r.items[cmd.Name] = clone(cmd)
	return nil
}

func (r *memoryRepo) GetCustomCommand(_ context.Context, name string) (*domain.CustomCommand, error) {
	return clone(r.items[name]), nil
}

func (r *memoryRepo) ListCustomCommands(context.Context) ([]*domain.CustomCommand, error) {
	out := make([]*domain.CustomCommand, 0, len(r.items))
	for _, cmd := range r.items {
		out = append(out, clone(cmd))
	}
	return out, nil
}

func (r *memoryRepo) DeleteCustomCommand(_ context.Context, name string) error {
	delete(r.items, name)
	return nil
}

func ptr(s string) *string { return &s }

func TestNewManagerLoadsRepository(t *testing.T) {
	repo := newMemoryRepo(
		&domain.CustomCommand{Name: "Discord", Response: "discord.gg/x", Aliases: []string{"dc"}},
		&domain.CustomCommand{Name: "  ", Response: "ignorado"},
	)
	mgr, err := NewManager(t.Context(), repo, nil)
	require.NoError(t, err)

	require.Len(t, mgr.List(), 1)
	found := mgr.Find("DC")
	require.NotNil(t, found)
	assert.Equal(t, "discord.gg/x", found.Response)
	assert.Nil(t, mgr.Find("nada"))
}

func TestCreateUpdateDelete(t *testing.T) {
	repo := newMemoryRepo()
	mgr, err := NewManager(t.Context(), repo, nil)
	require.NoError(t, err)

	cmd, err := mgr.Create(t.Context(), Update{
		Name:           "Redes",
		Response:       ptr("  twitter y kick  "),
		Aliases:        []string{"social", "SOCIAL", "", "redes"},
		HasAliases:     true,
		Platforms:      []domain.Platform{"Twitch"},
		HasPlatforms:   true,
		Permissions:    []domain.CommandAccessRole{"vips", "vips"},
		HasPermissions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "redes", cmd.Name)
	assert.Equal(t, "twitter y kick", cmd.Response)
	assert.Equal(t, []string{"social"}, cmd.Aliases)
	assert.Equal(t, []domain.Platform{domain.PlatformTwitch}, cmd.Platforms)
	assert.Equal(t, []domain.CommandAccessRole{domain.CommandAccessVIPs}, cmd.Permissions)
	assert.Contains(t, repo.items, "redes")

	_, err = mgr.Create(t.Context(), Update{Name: "redes", Response: ptr("x")})
	require.ErrorIs(t, err, ErrExists)

	updated, err := mgr.Update(t.Context(), Update{Name: "redes", Response: ptr("solo kick")})
	require.NoError(t, err)
	assert.Equal(t, "solo kick", updated.Response)
	assert.Equal(t, []string{"social"}, updated.Aliases)

	_, err = mgr.Update(t.Context(), Update{Name: "otro", Response: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)

	deleted, err := mgr.Delete(t.Context(), "social")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, repo.items)
	assert.Nil(t, mgr.Find("redes"))

	deleted, err = mgr.Delete(t.Context(), "redes")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestValidation(t *testing.T) {
	mgr, err := NewManager(t.Context(), nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Update
		want error
	}{
		{"empty name", Update{Name: " ", Response: ptr("x")}, ErrInvalidName},
		{"spaced name", Update{Name: "a b", Response: ptr("x")}, ErrInvalidName},
		{"empty response", Update{Name: "a", Response: ptr("  ")}, ErrEmptyResponse},
		{"no response", Update{Name: "a"}, ErrEmptyResponse},
		{"platform", Update{Name: "a", Response: ptr("x"), Platforms: []domain.Platform{"youtube"}, HasPlatforms: true}, ErrUnknownPlatform},
		{"role", Update{Name: "a", Response: ptr("x"), Permissions: []domain.CommandAccessRole{"admins"}, HasPermissions: true}, ErrUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := mgr.Upsert(t.Context(), tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConflicts(t *testing.T) {
	mgr, err := NewManager(t.Context(), nil, nil)
	require.NoError(t, err)
	mgr.SetReservedChecker(func(name string) bool { return name == "ping" })

	_, err = mgr.Create(t.Context(), Update{Name: "ping", Response: ptr("x")})
	require.ErrorContains(t, err, "reservado")
	require.ErrorIs(t, err, ErrConflict)

	_, err = mgr.Create(t.Context(), Update{Name: "uno", Response: ptr("1"), Aliases: []string{"u"}, HasAliases: true})
	require.NoError(t, err)

	_, err = mgr.Create(t.Context(), Update{Name: "dos", Response: ptr("2"), Aliases: []string{"ping"}, HasAliases: true})
	require.ErrorContains(t, err, "reservado")

	_, err = mgr.Create(t.Context(), Update{Name: "dos", Response: ptr("2"), Aliases: []string{"uno"}, HasAliases: true})
	require.ErrorContains(t, err, "coincide")

	_, err = mgr.Create(t.Context(), Update{Name: "dos", Response: ptr("2"), Aliases: []string{"u"}, HasAliases: true})
	require.ErrorContains(t, err, "en uso")

	_, err = mgr.Create(t.Context(), Update{Name: "u", Response: ptr("2")})
	require.ErrorContains(t, err, "alias")

	// re-guardar los propios alias no es conflicto
	_, err = mgr.Update(t.Context(), Update{Name: "uno", Aliases: []string{"u"}, HasAliases: true})
	require.NoError(t, err)
}

func TestRepositoryErrorKeepsState(t *testing.T) {
	repo := newMemoryRepo()
	mgr, err := NewManager(t.Context(), repo, nil)
	require.NoError(t, err)

	repo.failing = errors.New("disco lleno")
	_, err = mgr.Create(t.Context(), Update{Name: "x", Response: ptr("y")})
	require.ErrorIs(t, err, repo.failing)
	assert.Nil(t, mgr.Find("x"))
}

func TestTryHandle(t *testing.T) {
	mgr, err := NewManager(t.Context(), nil, nil)
	require.NoError(t, err)
	_, err = mgr.Create(t.Context(), Update{
		Name: "vip", Response: ptr("hola vip"),
		Platforms: []domain.Platform{domain.PlatformKick}, HasPlatforms: true,
		Permissions: []domain.CommandAccessRole{domain.CommandAccessVIPs, domain.CommandAccessSubscribers}, HasPermissions: true,
	})
	require.NoError(t, err)

	var replies []string
	reply := func(text string) error {
		replies = append(replies, text)
		return nil
	}

	handled, err := mgr.TryHandle(t.Context(), "vip", domain.Message{Platform: domain.PlatformTwitch, IsPlatformVip: true}, reply)
	require.NoError(t, err)
	assert.False(t, handled)

	handled, err = mgr.TryHandle(t.Context(), "vip", domain.Message{Platform: domain.PlatformKick}, reply)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Empty(t, replies)

	handled, err = mgr.TryHandle(t.Context(), "VIP", domain.Message{Platform: domain.PlatformKick, IsSubscriber: true}, reply)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"hola vip"}, replies)
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name  string
		roles []domain.CommandAccessRole
		msg   domain.Message
		want  bool
	}{
		{"no roles", nil, domain.Message{}, true},
		{"everyone", []domain.CommandAccessRole{domain.CommandAccessEveryone}, domain.Message{}, true},
		{"mods accept admin", []domain.CommandAccessRole{domain.CommandAccessModerators}, domain.Message{IsPlatformAdmin: true}, true},
		{"mods reject viewer", []domain.CommandAccessRole{domain.CommandAccessModerators}, domain.Message{}, false},
		{"owner", []domain.CommandAccessRole{domain.CommandAccessOwner}, domain.Message{IsPlatformOwner: true}, true},
		{"followers never", []domain.CommandAccessRole{domain.CommandAccessFollowers}, domain.Message{IsPlatformOwner: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllowed(tt.roles, tt.msg))
		})
	}
}

func TestExtensionAnswersThroughFallback(t *testing.T) {
	var sent []string
	root := commands.New("bot", commands.DefaultConfig()).
		SetPrefixes("!").
		SetSend(func(_ context.Context, _ any, message string) error {
			sent = append(sent, message)
			return nil
		})
	root.Command("ping").ActionFunc(func(inv *commands.Invocation) error {
		return inv.Reply("pong")
	})

	mgr, err := NewManager(t.Context(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, root.Use(mgr))

	_, err = mgr.Create(t.Context(), Update{Name: "ping", Response: ptr("x")})
	require.ErrorContains(t, err, "reservado")
	_, err = mgr.Create(t.Context(), Update{Name: "help", Response: ptr("x")})
	require.ErrorContains(t, err, "reservado")

	_, err = mgr.Create(t.Context(), Update{Name: "discord", Response: ptr("discord.gg/x"), Aliases: []string{"dc"}, HasAliases: true})
	require.NoError(t, err)

	msg := domain.Message{Platform: domain.PlatformTwitch, Text: "!dc"}
	require.NoError(t, root.Parse(t.Context(), "!dc ahora", msg))
	require.NoError(t, root.Parse(t.Context(), "!nada", msg))
	require.NoError(t, root.Parse(t.Context(), "!discord", "sin mensaje"))
	require.NoError(t, root.Parse(t.Context(), "!ping", msg))

	assert.Equal(t, []string{"discord.gg/x", "pong"}, sent)
}
