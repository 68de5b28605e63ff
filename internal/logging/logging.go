package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Configure sets up the standard logrus logger. format is "text" or "json".
func Configure(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}

	var f logrus.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		f = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"}
	case "json":
		f = &logrus.JSONFormatter{}
	default:
		return errors.Errorf("unknown log format %q", format)
	}

	if out == nil {
		out = os.Stderr
	}

	logrus.SetLevel(lvl)
	logrus.SetFormatter(f)
	logrus.SetOutput(out)
	return nil
}
