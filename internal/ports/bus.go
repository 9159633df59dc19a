package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	// Signal publie un broadcast-and-forget sans payload.
	Signal(topic string)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}

// Topics process-wide. Les signaux auth/server sont broadcast-and-forget,
// sans payload.
const (
	TopicForceLogout  = "auth.logout"
	TopicServerDown   = "server.down"
	TopicNavigate     = "ui.navigate"
	TopicWatchUpdated = "watch.updated"
)
