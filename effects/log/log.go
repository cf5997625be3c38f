package log

import (
	"context"
	"sort"

	"github.com/on-the-ground/effect_ive_sheet/effects"
	effectmodel "github.com/on-the-ground/effect_ive_sheet/effects/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogPayload is the payload structure for logging effect.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

func (lp LogPayload) PartitionKey() string {
	return "unpartitioned"
}

// WithZapEffectHandler registers a fire-and-forget log effect handler writing to logger.
// Payloads are written one at a time in the order they were performed.
// The returned teardown closes the handler and syncs the logger; the context it returns
// is the one passed in here.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, 1),
		effectmodel.EffectLog,
		func(ctx context.Context, payload LogPayload) {
			write(logger, payload)
		},
		func() {
			// stdout and stderr cores return EINVAL on sync on some platforms
			_ = logger.Sync()
		},
	)
}

// Effect performs a fire-and-forget log effect using the EffectLog handler in the context.
// Without a registered handler the entry goes straight to zap's global logger.
func Effect(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	payload := LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	}
	if !effects.HasHandler(ctx, effectmodel.EffectLog) {
		write(zap.L(), payload)
		return
	}
	effects.FireAndForgetEffect(ctx, effectmodel.EffectLog, payload)
}

func write(logger *zap.Logger, payload LogPayload) {
	ce := logger.Check(payload.Level.zapLevel(), payload.Message)
	if ce == nil {
		return
	}
	keys := make([]string, 0, len(payload.Fields))
	for k := range payload.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload.Fields[k]))
	}
	ce.Write(fields...)
}
