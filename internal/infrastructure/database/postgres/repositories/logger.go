package repositories

import (
	"fmt"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
)

// Logger is the minimal logging contract required by repository
// implementations. Key/value pairs follow the sugared convention:
// alternating string keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// fieldAdapter bridges the platform logger to the key/value contract.
type fieldAdapter struct {
	l logging.Logger
}

// NewLoggerAdapter wraps the platform logger for repository use.
func NewLoggerAdapter(l logging.Logger) Logger {
	if l == nil {
		l = logging.NewNopLogger()
	}
	return &fieldAdapter{l: l}
}

func kvToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		var val interface{}
		if i+1 < len(keysAndValues) {
			val = keysAndValues[i+1]
		}
		fields = append(fields, logging.Any(key, val))
	}
	return fields
}

func (a *fieldAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.l.Debug(msg, kvToFields(keysAndValues)...)
}

func (a *fieldAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.l.Info(msg, kvToFields(keysAndValues)...)
}

func (a *fieldAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.l.Warn(msg, kvToFields(keysAndValues)...)
}

func (a *fieldAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.l.Error(msg, kvToFields(keysAndValues)...)
}
