package logging

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New builds the process logger. level is a logrus level name; format is
// "json" or "text".
func New(w io.Writer, level, format string) (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(w)

	lvl := log.WarnLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := log.ParseLevel(s)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
