// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package genericconf

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	ErrInvalidLogType  = errors.New("invalid log type")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

var globalFileLoggerFactory = fileLoggerFactory{}

type fileLoggerFactory struct {
	// writerMutex is to avoid parallel writes to the file-logger
	writerMutex sync.Mutex
	writer      *lumberjack.Logger

	cancel context.CancelFunc

	// writeStartPing and writeDonePing hand records to the consumer goroutine
	// the way a buffered channel of BufSize would.
	writeStartPing chan struct{}
	writeDonePing  chan struct{}
}

// Write drops p when BufSize records are already in flight.
func (l *fileLoggerFactory) Write(p []byte) (n int, err error) {
	select {
	case l.writeStartPing <- struct{}{}:
		l.writerMutex.Lock()
		_, _ = l.writer.Write(p)
		l.writerMutex.Unlock()
		l.writeDonePing <- struct{}{}
	default:
	}
	return len(p), nil
}

// newFileWriter is not threadsafe
func (l *fileLoggerFactory) newFileWriter(config *FileLoggingConfig, filename string) io.Writer {
	_ = l.close()
	l.writer = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		LocalTime:  config.LocalTime,
		Compress:   config.Compress,
	}
	l.writeStartPing = make(chan struct{}, config.BufSize)
	l.writeDonePing = make(chan struct{}, config.BufSize)
	writeStartPing := l.writeStartPing
	writeDonePing := l.writeDonePing
	var consumerCtx context.Context
	consumerCtx, l.cancel = context.WithCancel(context.Background())
	go func() {
		for {
			select {
			case <-writeStartPing:
				<-writeDonePing
			case <-consumerCtx.Done():
				return
			}
		}
	}()
	return l
}

// close is not threadsafe
func (l *fileLoggerFactory) close() error {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.writer != nil {
		if err := l.writer.Close(); err != nil {
			return err
		}
		l.writer = nil
	}
	return nil
}

// ToSlogLevel accepts the level names CRIT, ERROR, WARN, INFO, DEBUG and
// TRACE in any case, as well as geth's numeric verbosities 0 to 5.
func ToSlogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "crit", "0":
		return log.LevelCrit, nil
	case "error", "1":
		return log.LevelError, nil
	case "warn", "2":
		return log.LevelWarn, nil
	case "info", "3":
		return log.LevelInfo, nil
	case "debug", "4":
		return log.LevelDebug, nil
	case "trace", "5":
		return log.LevelTrace, nil
	}
	return 0, errors.Wrapf(ErrInvalidLogLevel, "%q", level)
}

func HandlerFromLogType(logType string, output io.Writer) (slog.Handler, error) {
	switch logType {
	case "plaintext":
		return log.NewTerminalHandler(output, false), nil
	case "json":
		return log.JSONHandler(output), nil
	}
	return nil, errors.Wrapf(ErrInvalidLogType, "%q", logType)
}

// InitLog installs the default logger. It is not threadsafe.
func InitLog(config *LogConfig, pathResolver func(string) string) error {
	// always close previous instance of file logger
	if err := globalFileLoggerFactory.close(); err != nil {
		return errors.Wrap(err, "failed to close file writer")
	}
	output := io.Writer(os.Stderr)
	if config.FileLogging.Enable {
		output = io.MultiWriter(
			output,
			// on overflow writeStartPing are dropped silently
			globalFileLoggerFactory.newFileWriter(&config.FileLogging, pathResolver(config.FileLogging.File)),
		)
	}
	handler, err := HandlerFromLogType(config.Type, output)
	if err != nil {
		return errors.Wrap(err, "error parsing log type when creating handler")
	}
	level, err := ToSlogLevel(config.Level)
	if err != nil {
		return errors.Wrap(err, "error parsing log level")
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(level)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}
