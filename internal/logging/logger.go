package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/garminpartner/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	Environment   string
	SentryEnabled bool
	SentryDSN     string
	Release       string
	RunID         string
}

// Setup configures the global logrus logger. The returned io.Closer
// flushes sentry and closes the rotated log file, call it before exit.
func Setup(params LoggerSetupParams) io.Closer {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.RunID != "" {
		logrus.AddHook(NewFieldsHook(logrus.Fields{"run_id": params.RunID}))
	}

	closers := &closer{}
	if params.SentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Environment: params.Environment,
			Dsn:         params.SentryDSN,
			Release:     params.Release,
		})
		if err != nil {
			logrus.Errorf("sentry.Init: %s", err)
		} else {
			logrus.AddHook(NewSentryHook([]logrus.Level{
				logrus.PanicLevel,
				logrus.FatalLevel,
				logrus.ErrorLevel,
			}))
			closers.sentry = true
			logrus.Debugln("sentry set up successfully")
		}
	}

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stderr)
		return closers
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}

	if err := pkg.EnsureDir(filepath.Dir(params.LogFileName), 0o700); err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.Errorf("create logs dir: %s", err)
		return closers
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   params.LogFileName,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		LocalTime:  false, // false -> use UTC
		Compress:   true,
	}
	closers.file = lumberJackLogger

	if params.LogToStdout {
		logrus.SetOutput(pkg.NewCombinedWriter(os.Stderr, lumberJackLogger))
	} else {
		logrus.SetOutput(lumberJackLogger)
	}

	return closers
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "info":
		return logrus.InfoLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

type closer struct {
	sentry bool
	file   io.Closer
}

func (c *closer) Close() error {
	if c.sentry {
		sentry.Flush(sentryFlushTimeout)
	}
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}
