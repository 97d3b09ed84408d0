package logzer

import (
	"container/ring"
	"io"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// secrets masks values of password and token fields,
// the Databricks token travels in request headers logged on debug
var secrets = map[*regexp.Regexp][]byte{
	regexp.MustCompile(`((?i:password|token|authorization)"[^:]*:[^"]*)"(?:[^\\"]*(?:\\")*[\\]*)*"`): []byte(`${1}"***"`),
	regexp.MustCompile(`((?i:bearer) )[^"\s\\]+`): []byte(`${1}***`),
}

var (
	mu       sync.Mutex
	current  *LoggerWriter
	lastErrs = &LogBuffer{Level: zerolog.ErrorLevel, Size: 10}
)

// LoggerWriter is the writer chain behind the global logger:
// condense, filter secrets, then console formatter with last errors buffer
type LoggerWriter struct {
	zerolog.LevelWriter

	condenser *CondenseWriter
	filter    *FilterWriter
	formatter *zerolog.ConsoleWriter
	logFile   io.WriteCloser
	out       io.Writer
}

// Option defines writer option
type Option func(*LoggerWriter)

// NewLoggerWriter builds the writer chain and makes it current for WriteLogBuffer.
// The log file of the previous writer is closed.
func NewLoggerWriter(opts ...Option) *LoggerWriter {
	w := &LoggerWriter{
		formatter: &zerolog.ConsoleWriter{
			NoColor:    true,
			TimeFormat: time.RFC3339,
		},
		condenser: &CondenseWriter{},
		out:       os.Stderr,
	}

	mu.Lock()
	defer mu.Unlock()
	prev := lastErrs
	for _, opt := range opts {
		opt(w)
	}
	if lastErrs != prev {
		for _, p := range prev.Records() {
			_, _ = lastErrs.WriteLevel(p.lvl, p.buf)
		}
	}

	w.formatter.Out = w.out
	if w.logFile != nil {
		w.formatter.Out = io.MultiWriter(w.out, w.logFile)
	}
	w.filter = &FilterWriter{
		LevelWriter: zerolog.MultiLevelWriter(w.formatter, lastErrs),
		Re:          secrets,
	}
	w.condenser.LevelWriter = w.filter
	w.LevelWriter = w.condenser

	if current != nil && current.logFile != nil && current.logFile != w.logFile {
		_ = current.logFile.Close()
	}
	current = w
	return w
}

// WithColors sets formatter option
func WithColors(b bool) Option {
	return func(w *LoggerWriter) { w.formatter.NoColor = !b }
}

// WithCondense enables condensing similar records
func WithCondense(d time.Duration) Option {
	return func(w *LoggerWriter) { w.condenser.Condense = d }
}

// WithLastErrors sets count of buffered error records
func WithLastErrors(n int) Option {
	return func(*LoggerWriter) {
		lastErrs = &LogBuffer{Level: zerolog.ErrorLevel, Size: max(n, 1)}
	}
}

// WithLevel sets global level
func WithLevel(lvl zerolog.Level) Option {
	return func(*LoggerWriter) { zerolog.SetGlobalLevel(lvl) }
}

// WithLogFile duplicates output into file
func WithLogFile(f io.WriteCloser) Option {
	return func(w *LoggerWriter) { w.logFile = f }
}

// WithOut sets console output, stderr by default as stdout carries command results
func WithOut(out io.Writer) Option {
	return func(w *LoggerWriter) { w.out = out }
}

// WithTimeFormat sets formatter option
func WithTimeFormat(s string) Option {
	return func(w *LoggerWriter) {
		if s != "" {
			w.formatter.TimeFormat = s
		}
	}
}

// LastErrors returns last error records
func LastErrors() []LogRecord {
	mu.Lock()
	lb := lastErrs
	mu.Unlock()
	return lb.Records()
}

// WriteLogBuffer replays buffered records passing the global level into the current writer
func WriteLogBuffer(lb *LogBuffer) {
	mu.Lock()
	w := current
	mu.Unlock()
	if w == nil {
		return
	}
	lvl := zerolog.GlobalLevel()
	for _, p := range lb.Records() {
		if p.lvl >= lvl {
			_, _ = w.filter.WriteLevel(p.lvl, p.buf)
		}
	}
}

// CondenseWriter holds back records repeated by level and caller
// and reports their count on expiration
type CondenseWriter struct {
	zerolog.LevelWriter
	mu       sync.Mutex
	once     sync.Once
	cache    *cache.Cache
	callerRe *regexp.Regexp
	Condense time.Duration
}

// Write implements io.Writer interface
func (w *CondenseWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter interface
func (w *CondenseWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	if w.Condense <= 0 {
		return w.LevelWriter.WriteLevel(lvl, p)
	}
	w.once.Do(func() {
		w.cache = cache.New(w.Condense*2, w.Condense/4)
		w.cache.OnEvicted(w.flush)
		w.callerRe = regexp.MustCompile(`"` + zerolog.CallerFieldName + `":"[^"]*"`)
	})
	w.mu.Lock()
	defer w.mu.Unlock()

	key := string(append([]byte{byte(lvl), ':'}, w.callerRe.Find(p)...))
	// go-cache returns expired items until cleanup runs
	w.cache.DeleteExpired()
	if _, ok := w.cache.Get(key); ok {
		_ = w.cache.Increment(key, 1)
		return len(p), nil
	}
	_ = w.cache.Add(key, uint16(0), w.Condense)
	return w.LevelWriter.WriteLevel(lvl, p)
}

func (w *CondenseWriter) flush(key string, v any) {
	n, _ := v.(uint16)
	if n == 0 {
		return
	}
	lvl, caller := zerolog.Level(key[0]), key[2:]
	buf := append(make([]byte, 0, 200), '{')
	buf = append(buf, `"`+zerolog.LevelFieldName+`":"`...)
	buf = append(buf, lvl.String()...)
	buf = append(buf, `","`+zerolog.TimestampFieldName+`":`...)
	buf = appendTime(buf, time.Now())
	if caller != "" {
		buf = append(buf, ',')
		buf = append(buf, caller...)
	}
	buf = append(buf, `,"`+zerolog.MessageFieldName+`":"[condensed `...)
	buf = strconv.AppendInt(buf, int64(n), 10)
	buf = append(buf, ` more entries last `...)
	buf = strconv.AppendInt(buf, int64(w.Condense.Seconds()), 10)
	buf = append(buf, ` seconds]"}`...)
	buf = append(buf, '\n')
	_, _ = w.LevelWriter.WriteLevel(lvl, buf)
}

func appendTime(dst []byte, ts time.Time) []byte {
	switch zerolog.TimeFieldFormat {
	case zerolog.TimeFormatUnix:
		return strconv.AppendInt(dst, ts.Unix(), 10)
	case zerolog.TimeFormatUnixMs:
		return strconv.AppendInt(dst, ts.UnixMilli(), 10)
	case zerolog.TimeFormatUnixMicro:
		return strconv.AppendInt(dst, ts.UnixMicro(), 10)
	}
	dst = append(dst, '"')
	dst = ts.AppendFormat(dst, zerolog.TimeFieldFormat)
	return append(dst, '"')
}

// FilterWriter rewrites records by Regexp map
type FilterWriter struct {
	zerolog.LevelWriter
	mu sync.Mutex
	Re map[*regexp.Regexp][]byte
}

// Write implements io.Writer interface
func (w *FilterWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter interface
func (w *FilterWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(p)
	for re, repl := range w.Re {
		p = re.ReplaceAll(p, repl)
	}
	if _, err := w.LevelWriter.WriteLevel(lvl, p); err != nil {
		return 0, err
	}
	return n, nil
}

// LogBuffer keeps the last Size records passing Level
type LogBuffer struct {
	mu    sync.Mutex
	once  sync.Once
	ring  *ring.Ring
	Level zerolog.Level
	Size  int
}

func (lb *LogBuffer) init() {
	lb.once.Do(func() { lb.ring = ring.New(max(lb.Size, 1)) })
}

// Records returns buffered records, oldest first
func (lb *LogBuffer) Records() []LogRecord {
	lb.init()
	lb.mu.Lock()
	defer lb.mu.Unlock()
	rec := []LogRecord{}
	lb.ring.Do(func(p any) {
		if p != nil {
			rec = append(rec, p.(LogRecord))
		}
	})
	return rec
}

// Write implements io.Writer interface
func (lb *LogBuffer) Write(p []byte) (int, error) {
	return lb.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter interface
func (lb *LogBuffer) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	lb.init()
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lvl >= lb.Level && lvl != zerolog.NoLevel {
		// zerolog reuses p
		cp := make([]byte, len(p))
		copy(cp, p)
		lb.ring.Value = LogRecord{cp, lvl}
		lb.ring = lb.ring.Next()
	}
	return len(p), nil
}

// LogRecord wraps JSON data from logger
type LogRecord struct {
	buf []byte
	lvl zerolog.Level
}

// Level returns record level
func (p LogRecord) Level() zerolog.Level { return p.lvl }

// MarshalJSON implements json.Marshaler interface
func (p LogRecord) MarshalJSON() ([]byte, error) { return p.buf, nil }
