package launcher

import (
	"os"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

// setupLogging configures the process logger from the log.* flags. When
// SENTRY_DSN is set, errors are shipped to Sentry as well.
func setupLogging(ctx *cli.Context) error {

	switch ctx.GlobalString("log.format") {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	switch ctx.GlobalInt("log.verbosity") {
	case 0:
		logrus.SetLevel(logrus.FatalLevel)
	case 1:
		logrus.SetLevel(logrus.ErrorLevel)
	case 2:
		logrus.SetLevel(logrus.WarnLevel)
	case 3:
		logrus.SetLevel(logrus.InfoLevel)
	case 4:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.TraceLevel)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return err
		}
		logrus.AddHook(hook)
	}

	return nil
}
