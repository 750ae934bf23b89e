package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, false, &bytes.Buffer{})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func Test_New_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", false, &buf)

	l.Debug().Msg("hidden")
	l.Info().Str("table", "users").Msg("paginated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "paginated", entry["message"])
	assert.Equal(t, "users", entry["table"])
	assert.Contains(t, entry, "time")
}

func Test_New_Pretty(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", true, &buf)
	l.Info().Str("table", "users").Msg("paginated")

	assert.Contains(t, buf.String(), "paginated")
	assert.Contains(t, buf.String(), "table=users")
}
