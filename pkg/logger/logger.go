package logger

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"oggpcm/pkg/config"
)

// New builds a JSON logger. With log.Path set output goes to a daily
// rotated file, otherwise to stderr.
func New(log config.Log) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(log.Level)); err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	w := zapcore.Lock(os.Stderr)
	if log.Path != "" {
		rotator, err := newRotator(log)
		if err != nil {
			return nil, errors.Wrap(err, "create log rotator")
		}
		w = zapcore.AddSync(rotator)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		w,
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}

func newRotator(log config.Log) (*rotatelogs.RotateLogs, error) {
	logPath, err := filepath.Abs(log.Path)
	if err != nil {
		return nil, errors.Wrap(err, "get abs log path")
	}

	age := log.Age
	if age <= 0 {
		age = 7
	}
	maxAge := time.Duration(age) * 24 * time.Hour

	rotationTime := log.RotationTime
	if rotationTime <= 0 {
		rotationTime = 24 * time.Hour
	}

	return rotatelogs.New(
		logPath+"_%Y%m%d",
		rotatelogs.WithLinkName(logPath),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
}
