package elev

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"elevsim/src/types"
)

// InitLogger sets up the default logger with compact timestamps and file:line sources.
// When logFile is set, records are also written there. The returned closer releases the file.
func InitLogger(level slog.Level, logFile string) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("15:04:05"))
				}
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					file := source.File
					if lastSlash := strings.LastIndexByte(file, '/'); lastSlash >= 0 {
						file = file[lastSlash+1:]
					}
					a.Value = slog.StringValue(fmt.Sprintf("%s:%d", file, source.Line))
				}
			}
			return a
		},
	})

	slog.SetDefault(slog.New(handler))
	return closer, nil
}

func FormatStep(ev types.StepEvent) string {
	switch {
	case ev.Floor < ev.Target:
		return fmt.Sprintf("Car%d %d^%d (%d)", ev.CarID, ev.Floor, ev.Target, ev.Power)
	case ev.Floor > ev.Target:
		return fmt.Sprintf("Car%d %dv%d (%d)", ev.CarID, ev.Floor, ev.Target, ev.Power)
	}
	return fmt.Sprintf("Car%d @%d (%d)", ev.CarID, ev.Floor, ev.Power)
}
