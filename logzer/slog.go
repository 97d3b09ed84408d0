package logzer

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// SLogHandler writes slog records into the global zerolog logger,
// so libraries logging via slog share level and output
type SLogHandler struct {
	attrs  []slog.Attr
	groups []string

	CallerSkipFrame int
	GroupsFieldName string
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (h *SLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return zerologLevel(level) >= zerolog.GlobalLevel()
}

func (h *SLogHandler) Handle(_ context.Context, r slog.Record) error {
	e := zlog.WithLevel(zerologLevel(r.Level))
	if len(h.groups) > 0 {
		name := h.GroupsFieldName
		if name == "" {
			name = "logger"
		}
		e.Strs(name, h.groups)
	}
	for _, attr := range h.attrs {
		appendAttr(e, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		appendAttr(e, attr)
		return true
	})
	e.CallerSkipFrame(h.CallerSkipFrame).Msg(r.Message)
	return nil
}

func appendAttr(e *zerolog.Event, attr slog.Attr) {
	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		e.Bool(attr.Key, v.Bool())
	case slog.KindDuration:
		e.Dur(attr.Key, v.Duration())
	case slog.KindFloat64:
		e.Float64(attr.Key, v.Float64())
	case slog.KindInt64:
		e.Int64(attr.Key, v.Int64())
	case slog.KindString:
		e.Str(attr.Key, v.String())
	case slog.KindTime:
		e.Time(attr.Key, v.Time())
	case slog.KindUint64:
		e.Uint64(attr.Key, v.Uint64())
	case slog.KindGroup:
		d := zerolog.Dict()
		for _, a := range v.Group() {
			appendAttr(d, a)
		}
		e.Dict(attr.Key, d)
	default:
		e.Any(attr.Key, v.Any())
	}
}

func (h *SLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nested := h.clone()
	nested.attrs = append(nested.attrs, attrs...)
	return nested
}

func (h *SLogHandler) WithGroup(name string) slog.Handler {
	nested := h.clone()
	nested.groups = append(nested.groups, name)
	return nested
}

func (h *SLogHandler) clone() *SLogHandler {
	return &SLogHandler{
		attrs:           append([]slog.Attr(nil), h.attrs...),
		groups:          append([]string(nil), h.groups...),
		CallerSkipFrame: h.CallerSkipFrame,
		GroupsFieldName: h.GroupsFieldName,
	}
}
