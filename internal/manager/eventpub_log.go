package manager

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger at info level.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher { return &LogPublisher{log: log} }

func (p *LogPublisher) Publish(e Event) {
	ev := p.log.Info().Str("event", e.Name).Str("conversation", e.Conversation)
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("manager event")
}
