package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/crytic/solbuild/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger describes a Logger that is disabled by default and is instantiated when the CLI starts. Each
// module/package should create its own sub-logger. This allows to create unique logging instances depending on the
// use case.
var GlobalLogger = NewLogger(zerolog.Disabled)

// Logger describes a custom logging object that can log events to any arbitrary channel in structured, unstructured,
// or unstructured-and-colorized format.
type Logger struct {
	// level describes the log level
	level zerolog.Level

	// context describes the key-value pairs attached to every event emitted by this logger. Sub-loggers extend it.
	context []string

	// structuredLogger is the logger used to emit JSON events to structuredWriters.
	structuredLogger zerolog.Logger

	// unstructuredLogger is the logger used to emit human-readable, non-colorized events to unstructuredWriters.
	unstructuredLogger zerolog.Logger

	// unstructuredColorLogger is the logger used to emit human-readable, colorized events to
	// unstructuredColorWriters.
	unstructuredColorLogger zerolog.Logger

	// unstructuredColorFallbackLogger emits to unstructuredColorWriters without escape codes. It is used instead of
	// unstructuredColorLogger while colors are disabled.
	unstructuredColorFallbackLogger zerolog.Logger

	// structuredWriters describes the writers receiving structured (JSON) output.
	structuredWriters []io.Writer

	// unstructuredWriters describes the writers receiving unstructured, non-colorized output.
	unstructuredWriters []io.Writer

	// unstructuredColorWriters describes the writers receiving unstructured, colorized output.
	unstructuredColorWriters []io.Writer
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

// NewLogger will create a new Logger object with a specific log level. Output is discarded until writers are added
// with AddWriter.
func NewLogger(level zerolog.Level, writers ...io.Writer) *Logger {
	logger := &Logger{
		level:                    level,
		structuredWriters:        make([]io.Writer, 0),
		unstructuredWriters:      make([]io.Writer, 0),
		unstructuredColorWriters: make([]io.Writer, 0),
	}
	logger.structuredWriters = append(logger.structuredWriters, writers...)
	logger.rebuild()
	return logger
}

// NewSubLogger will create a new Logger with unique context in the form of a key-value pair. The expected use of this
// function is for each package to have their own unique logger so that parsing of logs is "grep-able" based on some key
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	subLogger := &Logger{
		level:                    l.level,
		context:                  append(append([]string{}, l.context...), key, value),
		structuredWriters:        l.structuredWriters,
		unstructuredWriters:      l.unstructuredWriters,
		unstructuredColorWriters: l.unstructuredColorWriters,
	}
	subLogger.rebuild()
	return subLogger
}

// AddWriter will add a writer to the list of channels where log output will be sent. Adding a writer that is already
// registered for the given format is a no-op.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat, colored bool) {
	writers := l.writersFor(format, colored)
	for _, w := range *writers {
		if w == writer {
			return
		}
	}
	*writers = append(*writers, writer)
	l.rebuild()
}

// RemoveWriter will remove a writer from the list of writers that the logger manages. If the writer does not exist,
// this function is a no-op
func (l *Logger) RemoveWriter(writer io.Writer, format LogFormat, colored bool) {
	writers := l.writersFor(format, colored)
	for i, w := range *writers {
		if w == writer {
			*writers = append((*writers)[:i:i], (*writers)[i+1:]...)
			l.rebuild()
			return
		}
	}
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

// writersFor returns a pointer to the writer list matching the given format and color option.
func (l *Logger) writersFor(format LogFormat, colored bool) *[]io.Writer {
	if format == STRUCTURED {
		return &l.structuredWriters
	}
	if colored {
		return &l.unstructuredColorWriters
	}
	return &l.unstructuredWriters
}

// rebuild re-creates the underlying zerolog loggers after the writer lists, level or context changed.
func (l *Logger) rebuild() {
	l.structuredLogger = l.withContext(zerolog.New(zerolog.MultiLevelWriter(l.structuredWriters...)).Level(l.level).With().Timestamp())

	unstructured := make([]io.Writer, 0, len(l.unstructuredWriters))
	for _, w := range l.unstructuredWriters {
		unstructured = append(unstructured, setupDefaultFormatting(zerolog.ConsoleWriter{Out: w, NoColor: true}, l.level))
	}
	l.unstructuredLogger = l.withContext(zerolog.New(zerolog.MultiLevelWriter(unstructured...)).Level(l.level).With())

	colored := make([]io.Writer, 0, len(l.unstructuredColorWriters))
	fallback := make([]io.Writer, 0, len(l.unstructuredColorWriters))
	for _, w := range l.unstructuredColorWriters {
		colored = append(colored, setupDefaultFormatting(zerolog.ConsoleWriter{Out: w}, l.level))
		fallback = append(fallback, setupDefaultFormatting(zerolog.ConsoleWriter{Out: w, NoColor: true}, l.level))
	}
	l.unstructuredColorLogger = l.withContext(zerolog.New(zerolog.MultiLevelWriter(colored...)).Level(l.level).With())
	l.unstructuredColorFallbackLogger = l.withContext(zerolog.New(zerolog.MultiLevelWriter(fallback...)).Level(l.level).With())
}

// withContext applies the logger's key-value context to a zerolog context and returns the resulting logger.
func (l *Logger) withContext(ctx zerolog.Context) zerolog.Logger {
	for i := 0; i+1 < len(l.context); i += 2 {
		ctx = ctx.Str(l.context[i], l.context[i+1])
	}
	return ctx.Logger()
}

// Trace is a wrapper function that will log a trace event
func (l *Logger) Trace(args ...any) {
	l.log(zerolog.TraceLevel, args...)
}

// Debug is a wrapper function that will log a debug event
func (l *Logger) Debug(args ...any) {
	l.log(zerolog.DebugLevel, args...)
}

// Info is a wrapper function that will log an info event
func (l *Logger) Info(args ...any) {
	l.log(zerolog.InfoLevel, args...)
}

// Warn is a wrapper function that will log a warning event
func (l *Logger) Warn(args ...any) {
	l.log(zerolog.WarnLevel, args...)
}

// Error is a wrapper function that will log an error event.
func (l *Logger) Error(args ...any) {
	l.log(zerolog.ErrorLevel, args...)
}

// Panic is a wrapper function that will log a panic event and then panic.
func (l *Logger) Panic(args ...any) {
	l.log(zerolog.PanicLevel, args...)
}

// log builds the messages for every output channel and sends the event at the provided level.
func (l *Logger) log(level zerolog.Level, args ...any) {
	// Build the messages and retrieve any error or associated structured log info
	colorMsg, noColorMsg, err, info := buildMsgs(args...)

	// Instantiate log events
	structuredLog := l.structuredLogger.WithLevel(level)
	unstructuredLog := l.unstructuredLogger.WithLevel(level)
	// Colors can be turned off after writers were registered, so the choice is made per event
	colorLog := l.unstructuredColorLogger.WithLevel(level)
	if !colors.Enabled() {
		colorLog = l.unstructuredColorFallbackLogger.WithLevel(level)
		colorMsg = noColorMsg
	}

	// Chain the error, with stack traces when debugging
	debug := level == zerolog.PanicLevel || l.level <= zerolog.DebugLevel
	for _, event := range []*zerolog.Event{structuredLog, unstructuredLog, colorLog} {
		if debug {
			event.Stack()
		}
		event.Err(err)
		if info != nil {
			event.Any("info", info)
		}
	}

	// Send the events. The structured event is deferred so that a panic still reaches every channel first.
	defer structuredLog.Msg(noColorMsg)
	unstructuredLog.Msg(noColorMsg)
	colorLog.Msg(colorMsg)
	if level == zerolog.PanicLevel {
		panic(noColorMsg)
	}
}

// buildMsgs describes a function that takes in a variadic list of arguments of any type and returns two strings and,
// optionally, an error and a StructuredLogInfo object. The first string will be a colorized-string that can be used for
// console logging while the second string will be a non-colorized one that can be used for file/structured logging.
// The error and the StructuredLogInfo can be used to add additional context to log messages
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	// Guard clause
	if len(args) == 0 {
		return "", "", nil, nil
	}

	// Initialize the base color context, the string buffers and the structured log info object
	colorCtx := colors.Reset
	colorOutput := make([]string, 0)
	noColorOutput := make([]string, 0)
	var info StructuredLogInfo
	var err error

	// Iterate through each argument in the list and switch on type
	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			// If the argument is a color function, switch the current color context
			colorCtx = t
		case StructuredLogInfo:
			// Note that only one structured log info can be provided for each log message
			info = t
		case error:
			// Note that only one error can be provided for each log message
			err = t
		default:
			colorOutput = append(colorOutput, colorCtx(t))
			noColorOutput = append(noColorOutput, fmt.Sprintf("%v", t))
		}
	}

	return strings.Join(colorOutput, ""), strings.Join(noColorOutput, ""), err, info
}

// setupDefaultFormatting will update the console logger's formatting to the solbuild standard
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	// Get rid of the timestamp for console output
	writer.FormatTimestamp = func(i any) string {
		return ""
	}

	// We will define a custom format for each level
	writer.FormatLevel = func(i any) string {
		levelStr, _ := i.(string)
		parsed, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return levelStr
		}

		// Unstructured, non-colorized writers still get the same glyphs without escape codes
		paint := func(colorFunc colors.ColorFunc, s any) string {
			if writer.NoColor {
				return colors.Reset(s)
			}
			return colorFunc(s)
		}

		switch parsed {
		case zerolog.TraceLevel:
			return paint(colors.CyanBold, zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return paint(colors.BlueBold, zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return paint(colors.GreenBold, colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return paint(colors.YellowBold, zerolog.LevelWarnValue)
		case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
			return paint(colors.RedBold, levelStr)
		default:
			return levelStr
		}
	}

	// If we are above debug level, we want to get rid of the `module` component when logging to console
	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{"module", "compilation"}
	}

	return writer
}
