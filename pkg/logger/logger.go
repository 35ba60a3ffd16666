package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   = zap.NewNop()
	logLevel = zap.NewAtomicLevel()
)

// Options 日志输出配置
type Options struct {
	Dir        string // 日志目录，默认 logs
	MaxSizeMB  int    // 单文件大小上限
	MaxBackups int
	MaxAgeDays int
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = "logs"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 500
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 7
	}
	return o
}

// NewLogger 创建 JSON 文件 + 控制台双输出的 logger
func NewLogger(serviceName string, opts Options) *zap.Logger {
	opts = opts.withDefaults()
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		panic(err)
	}

	logFile := filepath.Join(opts.Dir, serviceName+".log")

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// 使用lumberjack进行日志轮转
	var writer io.Writer = &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), logLevel)
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(os.Stdout), logLevel)

	logger = zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
	return logger
}

func SetLogLevel(level string) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return
	}
	if logLevel.Level() == zapLevel {
		return
	}
	logLevel.SetLevel(zapLevel)
	logger.Info("Log level set to", zap.String("level", level))
}

// WithTrace 注入当前 span 的 trace_id / span_id，无有效 span 时原样返回
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
