package kafka

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// KgoZapLogger forwards franz-go client logs to zap. Everything below warn is logged at debug
// level because the client is chatty about metadata refreshes.
type KgoZapLogger struct {
	logger *zap.SugaredLogger
}

// Level implements kgo.Logger.
func (k KgoZapLogger) Level() kgo.LogLevel {
	return kgo.LogLevelInfo
}

// Log implements kgo.Logger.
func (k KgoZapLogger) Log(level kgo.LogLevel, msg string, keyvals ...interface{}) {
	switch level {
	case kgo.LogLevelError:
		k.logger.Errorw(msg, keyvals...)
	case kgo.LogLevelWarn:
		k.logger.Warnw(msg, keyvals...)
	default:
		k.logger.Debugw(msg, keyvals...)
	}
}
