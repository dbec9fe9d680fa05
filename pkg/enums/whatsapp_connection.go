package enums

// WhatsAppConnectionState mirrors the gateway's connection state strings.
type WhatsAppConnectionState string

const (
	WhatsAppConnectionOpen       WhatsAppConnectionState = "open"
	WhatsAppConnectionClosed     WhatsAppConnectionState = "close"
	WhatsAppConnectionConnecting WhatsAppConnectionState = "connecting"
)

// IsValid reports whether the value is a known gateway connection state.
func (s WhatsAppConnectionState) IsValid() bool {
	switch s {
	case WhatsAppConnectionOpen, WhatsAppConnectionClosed, WhatsAppConnectionConnecting:
		return true
	}
	return false
}

// ParseWhatsAppConnectionState converts a raw gateway string into a typed state.
func ParseWhatsAppConnectionState(value string) (WhatsAppConnectionState, bool) {
	state := WhatsAppConnectionState(value)
	if state.IsValid() {
		return state, true
	}
	return "", false
}
