package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crytic/codetwin/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger describes a Logger that is disabled by default and is replaced when the CLI starts. Each package should
// derive its own sub-logger so that log output can be filtered by module.
var GlobalLogger = NewLogger(zerolog.Disabled, false)

// Logger describes a custom logging object that can log events to any arbitrary channel and can handle specialized
// output to console as well
type Logger struct {
	// level describes the log level
	level zerolog.Level

	// context describes the key-value pairs attached to every event emitted by this logger and its sub-loggers.
	context [][2]string

	// structuredLogger outputs logs to the registered writers in either structured or unstructured format.
	structuredLogger zerolog.Logger

	// consoleLogger outputs colorized, unstructured logs to stdout. It is separate from structuredLogger so that it can
	// carry its own formatting.
	consoleLogger zerolog.Logger

	// consoleEnabled describes whether consoleLogger writes anywhere.
	consoleEnabled bool

	// writers describes the io.Writer objects structured output is sent to, after any format wrapping.
	writers []io.Writer

	// destinations describes the io.Writer objects as they were provided, used to detect duplicates.
	destinations []io.Writer
}

// LogFormat describes what format to log in
type LogFormat string

const (
	// STRUCTURED describes that logging should be done in structured JSON format
	STRUCTURED LogFormat = "structured"
	// UNSTRUCTURED describes that logging should be done in an unstructured format
	UNSTRUCTURED LogFormat = "unstructured"
)

// StructuredLogInfo describes a key-value mapping that can be used to log structured data
type StructuredLogInfo map[string]any

// NewLogger will create a new Logger object with a specific log level. The Logger can output to console, if enabled,
// and output logs to any number of arbitrary io.Writer channels
func NewLogger(level zerolog.Level, consoleEnabled bool, writers ...io.Writer) *Logger {
	l := &Logger{
		level:          level,
		consoleEnabled: consoleEnabled,
		writers:        writers,
		destinations:   writers,
	}
	l.rebuild()
	return l
}

// rebuild recreates the underlying zerolog loggers from the current level, writers and context.
func (l *Logger) rebuild() {
	// Loggers without a destination are disabled rather than nil so that events can always be created safely.
	structured := zerolog.New(io.Discard).Level(zerolog.Disabled)
	if len(l.writers) > 0 {
		structured = zerolog.New(zerolog.MultiLevelWriter(l.writers...)).Level(l.level).With().Timestamp().Logger()
	}

	console := zerolog.New(io.Discard).Level(zerolog.Disabled)
	if l.consoleEnabled {
		console = zerolog.New(setupDefaultFormatting(zerolog.ConsoleWriter{Out: os.Stdout}, l.level)).Level(l.level)
	}

	for _, kv := range l.context {
		structured = structured.With().Str(kv[0], kv[1]).Logger()
		console = console.With().Str(kv[0], kv[1]).Logger()
	}

	l.structuredLogger = structured
	l.consoleLogger = console
}

// NewSubLogger will create a new Logger with unique context in the form of a key-value pair. The expected use of this
// function is for each package to have their own unique logger so that parsing of logs is "grep-able" based on some key
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	context := make([][2]string, len(l.context), len(l.context)+1)
	copy(context, l.context)

	sub := &Logger{
		level:          l.level,
		context:        append(context, [2]string{key, value}),
		consoleEnabled: l.consoleEnabled,
		writers:        l.writers,
		destinations:   l.destinations,
	}
	sub.rebuild()
	return sub
}

// AddWriter will add a writer to the list of channels where log output will be sent. Adding a writer twice is a no-op.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat) {
	for _, w := range l.destinations {
		if w == writer {
			return
		}
	}
	l.destinations = append(l.destinations, writer)

	// Unstructured output is wrapped in a console writer without ANSI coloring
	if format == UNSTRUCTURED {
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: true}
	}
	l.writers = append(l.writers, writer)
	l.rebuild()
}

// EnableConsole turns console output on or off.
func (l *Logger) EnableConsole(enabled bool) {
	l.consoleEnabled = enabled
	l.rebuild()
}

// Level will get the log level of the Logger
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel will update the log level of the Logger
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
	l.rebuild()
}

// Trace is a wrapper function that will log a trace event
func (l *Logger) Trace(args ...any) {
	l.emit(l.consoleLogger.Trace(), l.structuredLogger.Trace(), args)
}

// Debug is a wrapper function that will log a debug event
func (l *Logger) Debug(args ...any) {
	l.emit(l.consoleLogger.Debug(), l.structuredLogger.Debug(), args)
}

// Info is a wrapper function that will log an info event
func (l *Logger) Info(args ...any) {
	l.emit(l.consoleLogger.Info(), l.structuredLogger.Info(), args)
}

// Warn is a wrapper function that will log a warning event
func (l *Logger) Warn(args ...any) {
	l.emit(l.consoleLogger.Warn(), l.structuredLogger.Warn(), args)
}

// Error is a wrapper function that will log an error event
func (l *Logger) Error(args ...any) {
	l.emit(l.consoleLogger.Error(), l.structuredLogger.Error(), args)
}

// Panic is a wrapper function that will log a panic event
func (l *Logger) Panic(args ...any) {
	l.emit(l.consoleLogger.Panic(), l.structuredLogger.Panic(), args)
}

// emit attaches the error and structured info found in args to both events and sends them. Events for disabled levels
// are nil, which zerolog treats as no-ops.
func (l *Logger) emit(consoleEvent *zerolog.Event, structuredEvent *zerolog.Event, args []any) {
	consoleMsg, structuredMsg, err, info := buildMsgs(args...)

	if err != nil {
		consoleEvent.Err(err)
		structuredEvent.Err(err)
		// Stack traces are only useful while debugging
		if l.level <= zerolog.DebugLevel {
			consoleEvent.Stack()
			structuredEvent.Stack()
		}
	}
	if info != nil {
		consoleEvent.Any("info", info)
		structuredEvent.Any("info", info)
	}

	// The structured event is sent last so that it still goes out if the console event panics.
	defer structuredEvent.Msg(structuredMsg)
	consoleEvent.Msg(consoleMsg)
}

// buildMsgs takes a variadic list of arguments of any type and returns a colorized string for console output, a plain
// string for structured output, and optionally an error and a StructuredLogInfo found among the arguments.
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	colorCtx := colors.Reset
	var consoleOutput, plainOutput strings.Builder
	var info StructuredLogInfo
	var err error

	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			colorCtx = t
		case StructuredLogInfo:
			// Only one structured log info is kept per message
			info = t
		case error:
			// Only one error is kept per message
			err = t
		default:
			consoleOutput.WriteString(colorCtx(t))
			plainOutput.WriteString(fmt.Sprintf("%v", t))
		}
	}
	return consoleOutput.String(), plainOutput.String(), err, info
}

// setupDefaultFormatting will update the console logger's formatting to the codetwin standard
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	// Get rid of the timestamp for console output
	writer.FormatTimestamp = func(i any) string {
		return ""
	}

	writer.FormatLevel = func(i any) string {
		levelStr, _ := i.(string)
		parsed, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return levelStr
		}

		switch parsed {
		case zerolog.TraceLevel:
			return colors.CyanBold(zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return colors.BlueBold(zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return colors.GreenBold(colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return colors.YellowBold(zerolog.LevelWarnValue)
		case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
			return colors.RedBold(levelStr)
		default:
			return levelStr
		}
	}

	// Above debug level, the module context is noise on the console
	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{"module", "request"}
	}
	return writer
}
