package actor

// Stop asks a machine actor to end its loop after the messages queued before it.
type Stop struct{}

// ChannelClosed is the last message a channel subscriber receives.
type ChannelClosed struct {
	Channel string
}
