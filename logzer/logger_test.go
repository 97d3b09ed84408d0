package logzer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLogger(t *testing.T, opts ...Option) string {
	logFile, err := os.CreateTemp("", "log")
	require.NoError(t, err)
	require.NoError(t, logFile.Close())
	t.Cleanup(func() { _ = os.Remove(logFile.Name()) })

	lf := &LogFile{FilePath: logFile.Name()}
	t.Cleanup(func() { _ = lf.Close() })
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	w := NewLoggerWriter(append([]Option{WithOut(io.Discard), WithLogFile(lf)}, opts...)...)
	log.Logger = zerolog.New(w).
		With().Timestamp().Caller().
		Logger()
	return logFile.Name()
}

func TestLogCondense(t *testing.T) {
	fileName := setLogger(t, WithLevel(zerolog.DebugLevel), WithCondense(time.Millisecond*2))
	logfun := func(lvl zerolog.Level, msg string) { log.WithLevel(lvl).Msg(msg) }
	logfun(zerolog.DebugLevel, "message debug")
	logfun(zerolog.InfoLevel, "message info")
	logfun(zerolog.InfoLevel, "message info") // expect condense
	logfun(zerolog.InfoLevel, "message info") // expect condense

	content, err := os.ReadFile(fileName)
	assert.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(content, []byte("\n")))

	time.Sleep(time.Millisecond * 400) // expect condense output
	content, err = os.ReadFile(fileName)
	assert.NoError(t, err)
	assert.Equal(t, 3, bytes.Count(content, []byte("\n")))
	assert.Contains(t, string(content), `condensed 2 more entries`)
}

func TestLogFilter(t *testing.T) {
	fileName := setLogger(t, WithLevel(zerolog.DebugLevel))
	payload, _ := json.Marshal(struct{ Password, Token string }{
		Password: `PASS
		WORD`,
		Token: `TOK-EN`,
	})
	log.Debug().
		Str("token", "TOKen").
		Interface("headers", map[string]string{"Authorization": "Bearer dapi-SECRET"}).
		RawJSON("payload", payload).
		Str("note", "Bearer dapi-SECRET2").
		Msg("spark monitoring request")

	content, err := os.ReadFile(fileName)
	assert.NoError(t, err)
	assert.Contains(t, string(content), "spark monitoring request")
	assert.NotContains(t, string(content), "PASS")
	assert.NotContains(t, string(content), "TOK")
	assert.NotContains(t, string(content), "SECRET")
	assert.Contains(t, string(content), `"Password":"***"`)
	assert.Contains(t, string(content), `"Authorization":"***"`)
}

func TestLastErrors(t *testing.T) {
	setLogger(t, WithLevel(zerolog.InfoLevel), WithLastErrors(2))
	log.Error().Msg("first failure")
	log.Warn().Msg("not an error")
	log.Error().Msg("second failure")
	log.Error().Msg("third failure")

	recs := LastErrors()
	require.Len(t, recs, 2)
	assert.Equal(t, zerolog.ErrorLevel, recs[0].Level())
	b, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "first failure")
	assert.Contains(t, string(b), "second failure")
	assert.Contains(t, string(b), "third failure")

	// records survive writer replacement with another size
	setLogger(t, WithLastErrors(5))
	assert.Len(t, LastErrors(), 2)
}

func TestWriteLogBuffer(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	lb := &LogBuffer{Level: zerolog.TraceLevel, Size: 4}
	log.Logger = zerolog.New(lb).With().Timestamp().Logger()
	log.Debug().Msg("buffered debug")
	log.Info().Msg("buffered info")

	fileName := setLogger(t, WithLevel(zerolog.InfoLevel))
	WriteLogBuffer(lb)

	content, err := os.ReadFile(fileName)
	assert.NoError(t, err)
	assert.Contains(t, string(content), "buffered info")
	assert.NotContains(t, string(content), "buffered debug")
}

func TestLogRotate(t *testing.T) {
	logFile, _ := os.CreateTemp("", "log")
	assert.NoError(t, logFile.Close())
	name := logFile.Name()
	defer func() {
		for _, suffix := range []string{"", ".1", ".2", ".3"} {
			_ = os.Remove(name + suffix)
		}
	}()

	lf := &LogFile{FilePath: name, MaxSize: 20, Rotate: 2}
	defer lf.Close()
	line := func(s string) {
		_, err := lf.Write([]byte(s + strings.Repeat(".", 9-len(s)) + "\n"))
		assert.NoError(t, err)
	}
	for _, s := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		line(s)
	}

	read := func(suffix string) string {
		b, err := os.ReadFile(name + suffix)
		assert.NoError(t, err)
		return string(b)
	}
	assert.Equal(t, "seven....\n", read(""))
	assert.Equal(t, "five.....\nsix......\n", read(".1"))
	assert.Equal(t, "three....\nfour.....\n", read(".2"))
	_, err := os.Stat(name + ".3")
	assert.True(t, os.IsNotExist(err))
}
