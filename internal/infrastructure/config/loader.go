package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotName             string
	Prefixes            []string
	AllowUnknownOptions bool
	ShowHelpOnError     bool
	ShowHelpOnEmpty     bool
	LogLevel            string
	DatabasePath        string
	WSAddr              string
	TTSEnabled          bool

	TwitchUsername      string
	TwitchToken         string
	TwitchChannels      []string
	TwitchApiToken      string
	TwitchClientId      string
	TwitchBroadcasterId string

	KickToken             string
	KickBroadcasterUserID int
	KickChatroomID        int
}

// HasTwitchChat indica si hay credenciales para el chat de Twitch.
func (c *Config) HasTwitchChat() bool {
	return c.TwitchUsername != "" && c.TwitchToken != "" && len(c.TwitchChannels) > 0
}

// HasTwitchAPI indica si hay credenciales para Helix.
func (c *Config) HasTwitchAPI() bool {
	return c.TwitchClientId != "" && c.TwitchApiToken != ""
}

func (c *Config) HasKick() bool {
	return c.KickToken != "" && c.KickBroadcasterUserID != 0 && c.KickChatroomID != 0
}

// Load lee .env (si existe) y luego el entorno. Los archivos se cargan en
// orden y no pisan variables ya definidas.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return FromEnv(os.Getenv)
}

// FromEnv construye la configuración a partir de una función de lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		BotName:        orDefault(get("BOT_NAME"), "zhatcmd"),
		Prefixes:       splitList(orDefault(get("BOT_PREFIXES"), "!")),
		LogLevel:       orDefault(get("LOG_LEVEL"), "info"),
		DatabasePath:   orDefault(get("DATABASE_PATH"), "data/zhatcmd.db"),
		WSAddr:         orDefault(get("WS_ADDR"), ":8080"),
		TwitchUsername: get("TWITCH_BOT_USERNAME"),
		TwitchToken:    get("TWITCH_BOT_ACCESS_TOKEN"),
		TwitchChannels: splitList(get("TWITCH_BOT_CHANNELS")),
		TwitchApiToken: get("TWITCH_API_ACCESS_TOKEN"),
		TwitchClientId: get("TWITCH_CLIENT_ID"),

		TwitchBroadcasterId: get("TWITCH_BROADCASTER_ID"),
		KickToken:           get("KICK_BOT_TOKEN"),
	}

	var err error
	if cfg.AllowUnknownOptions, err = parseBool("BOT_ALLOW_UNKNOWN_OPTIONS", get("BOT_ALLOW_UNKNOWN_OPTIONS"), false); err != nil {
		return nil, err
	}
	if cfg.ShowHelpOnError, err = parseBool("BOT_HELP_ON_ERROR", get("BOT_HELP_ON_ERROR"), true); err != nil {
		return nil, err
	}
	if cfg.ShowHelpOnEmpty, err = parseBool("BOT_HELP_ON_EMPTY", get("BOT_HELP_ON_EMPTY"), false); err != nil {
		return nil, err
	}
	if cfg.TTSEnabled, err = parseBool("TTS_ENABLED", get("TTS_ENABLED"), true); err != nil {
		return nil, err
	}
	if cfg.KickBroadcasterUserID, err = parseInt("KICK_BROADCASTER_USER_ID", get("KICK_BROADCASTER_USER_ID")); err != nil {
		return nil, err
	}
	if cfg.KickChatroomID, err = parseInt("KICK_CHATROOM_ID", get("KICK_CHATROOM_ID")); err != nil {
		return nil, err
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(key, raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s inválido (%q): %w", key, raw, err)
	}
	return v, nil
}

func parseInt(key, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s inválido (%q): %w", key, raw, err)
	}
	return n, nil
}
