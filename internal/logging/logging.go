// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// formatter stamps default fields onto every entry that does not set them.
type formatter struct {
	format log.Formatter
	fields log.Fields
}

func (f formatter) Format(entry *log.Entry) ([]byte, error) {
	for k, v := range f.fields {
		if _, exists := entry.Data[k]; !exists {
			entry.Data[k] = v
		}
	}
	return f.format.Format(entry)
}

// Init configures the standard logger. Format is "json" or "text"; level is
// any logrus level name.
func Init(level, format string) error {
	return Configure(log.StandardLogger(), level, format, log.Fields{"app": "bugboard"})
}

// Configure applies level, format and default fields to l.
func Configure(l *log.Logger, level, format string, fields log.Fields) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	var (
		f      log.Formatter
		caller bool
	)
	switch format {
	case "json":
		f = &log.JSONFormatter{}
		caller = true
	case "text", "":
		f = &log.TextFormatter{FullTimestamp: true}
	default:
		return fmt.Errorf("logging: unknown format %q", format)
	}

	if fields == nil {
		fields = log.Fields{}
	}
	l.SetFormatter(formatter{format: f, fields: fields})
	l.SetLevel(lvl)
	l.SetReportCaller(caller)
	return nil
}

// New returns a logger writing to out, for components that must not share
// the standard logger.
func New(out io.Writer, level, format string) (*log.Logger, error) {
	l := log.New()
	l.SetOutput(out)
	if err := Configure(l, level, format, nil); err != nil {
		return nil, err
	}
	return l, nil
}
