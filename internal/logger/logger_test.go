package logger

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// bufSyncer adapts a *bytes.Buffer to zapcore.WriteSyncer.
type bufSyncer struct{ *bytes.Buffer }

func (bufSyncer) Sync() error { return nil }

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	s := bufio.NewScanner(buf)
	var out []map[string]any
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), "invalid JSON line: %s", line)
		out = append(out, m)
	}
	require.NoError(t, s.Err())
	return out
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(bufSyncer{&buf})
	require.NoError(t, SetLevel("info"))

	Logger().Sugar().Debug("debug message should be filtered")
	Logger().Sugar().Infow("info message", "k", 1)

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "info message", records[0]["msg"])

	buf.Reset()
	require.NoError(t, SetLevel("debug"))
	Logger().Sugar().Debugw("visible debug", "a", 2)
	records = decodeLines(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "debug", records[0]["level"])
}

func TestWithConnAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(bufSyncer{&buf})
	require.NoError(t, SetLevel("debug"))

	l := WithConn(Logger(), "c1", "127.0.0.1:1234")
	l.Sugar().Infow("hello world", "extra", 42)

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	rec := records[0]
	require.Equal(t, "c1", rec["conn_id"])
	require.Equal(t, "127.0.0.1:1234", rec["peer_addr"])
}

func TestParseLevelRoundTrip(t *testing.T) {
	cases := map[string]string{
		"debug": "debug",
		"info":  "info",
		"warn":  "warn",
		"error": "error",
	}
	for in, expect := range cases {
		require.NoError(t, SetLevel(in))
		require.Equal(t, expect, Level())
	}
	require.Error(t, SetLevel("bogus"))
}

var _ zapcore.WriteSyncer = bufSyncer{}
