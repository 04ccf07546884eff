package config

import (
	"context"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/quotes_backend/appctx"
	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logLevelFromEnv())
	logg.SetOutput(os.Stdout)
}

func logLevelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// RequestLogger returns an entry tagged with the request's correlation id and client ip.
func RequestLogger(ctx context.Context) *logrus.Entry {
	return WithRequestFields(ctx, logg)
}

// WithRequestFields adds correlation_id and client_ip from ctx to logger.
func WithRequestFields(ctx context.Context, logger logrus.FieldLogger) *logrus.Entry {
	fields := logrus.Fields{}
	if cid, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok && cid != "" {
		fields["correlation_id"] = cid
	}
	if ip, ok := appctx.GetString(ctx, appctx.ContextKeyClientIP); ok && ip != "" {
		fields["client_ip"] = ip
	}
	return logger.WithFields(fields)
}

func LogError(logger logrus.FieldLogger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}
