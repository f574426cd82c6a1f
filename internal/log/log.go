package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Параметры ротации файла логов
const (
	maxLogSizeMB  = 100
	maxLogBackups = 5
	maxLogAgeDays = 30
)

// encoderConfig возвращает общую конфигурацию JSON-энкодера
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewLogger создаёт и возвращает настроенный zap.Logger.
// Пустой level означает info. Если filePath задан, логи пишутся в файл с ротацией,
// иначе в stdout.
func NewLogger(level, filePath string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
	if filePath != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		})
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, lvl)
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}
