package log

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// InstallZerologWarnings routes library warnings (UndefinedMetricWarning,
// DataConversionWarning, ...) to w as zerolog JSON events. Warnings that
// implement zerolog.LogObjectMarshaler contribute their structured fields.
// The returned function restores the previous fallback handler.
func InstallZerologWarnings(w io.Writer) func() {
	zl := zerolog.New(w).With().Timestamp().Str(ComponentKey, "classigo").Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
	return func() { errors.SetZerologWarnFunc(nil) }
}
