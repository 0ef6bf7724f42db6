package domain

type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformKick   Platform = "kick"
	// PlatformWeb es la consola local (WebSocket).
	PlatformWeb Platform = "web"
)

type Message struct {
	Platform  Platform
	ChannelID string
	UserID    string
	Username  string
	Text      string
	IsPrivate bool

	// Flags que vienen de la plataforma (los rellenamos en el adapter)
	IsPlatformOwner bool
	IsPlatformAdmin bool
	IsPlatformMod   bool
	IsPlatformVip   bool
	IsSubscriber    bool
}

// MessageFrom recupera el mensaje que viaja como metadato de una línea de
// comando.
func MessageFrom(meta any) (Message, bool) {
	switch m := meta.(type) {
	case Message:
		return m, true
	case *Message:
		if m == nil {
			return Message{}, false
		}
		return *m, true
	default:
		return Message{}, false
	}
}
