package sink

import (
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// LogSink writes status events to a logger. Failures are logged as
// warnings, inbound traffic at debug and everything else at info.
type LogSink struct {
	logger ports.Logger
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger ports.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs ev.
func (s *LogSink) Publish(ev domain.StatusEvent) {
	fields := []ports.Field{
		ports.String("event", string(ev.Type)),
		ports.String("id", ev.ID),
	}
	if ev.Err != nil {
		fields = append(fields, ports.Err(ev.Err))
	}

	switch ev.Type {
	case domain.EventConnectFailed, domain.EventConnectionLost, domain.EventSendFailed, domain.EventUnparsed:
		s.logger.Warn(ev.Message, fields...)
	case domain.EventReceived, domain.EventStateChanged:
		s.logger.Debug(ev.Message, fields...)
	default:
		s.logger.Info(ev.Message, fields...)
	}
}
