package domain

import "time"

type InboundMessage struct {
	Channel    string
	ChatID     string
	SenderID   string
	Text       string
	LocaleHint string // user-declared locale from the transport, may be empty
	Timestamp  time.Time
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Text    string
}
