package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "eventdao"

var log *zap.Logger

func init() {
	log = NewLogger("development")
}

// NewLogger は環境に応じたロガーを生成する
// production 以外はすべて開発用設定になる
func NewLogger(env string) *zap.Logger {
	var cfg zap.Config
	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(level)
		}
	}

	l, err := cfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init はグローバルロガーを環境に合わせて差し替える
func Init(env string) {
	Set(NewLogger(env))
}

func Get() *zap.Logger {
	return log
}

func Set(l *zap.Logger) {
	log = l
}

// EventID はイベントIDのフィールド
func EventID(id uint32) zap.Field {
	return zap.Uint32("event_id", id)
}

// Account はアドレス系フィールド（registry / event / ticket）
func Account(key string, addr fmt.Stringer) zap.Field {
	return zap.Stringer(key, addr)
}

// Identity は呼び出し元のIDフィールド
func Identity(key, id string) zap.Field {
	return zap.String(key, id)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return log.With(fields...)
}

func Sync() error {
	return log.Sync()
}
