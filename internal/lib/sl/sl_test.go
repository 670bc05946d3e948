package sl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	err := errors.New("something went wrong")
	attr := Err(err)

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("something went wrong"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.Panics(t, func() {
		_ = Err(nil)
	})
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
		wantJSON  bool
	}{
		{env: envLocal, wantDebug: true, wantJSON: false},
		{env: envDev, wantDebug: true, wantJSON: true},
		{env: envProd, wantDebug: false, wantJSON: true},
		{env: "unknown", wantDebug: false, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(tt.env, &buf)

			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))

			log.Info("hello", slog.String("k", "v"))
			if tt.wantJSON {
				var got map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
				assert.Equal(t, "hello", got["msg"])
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}
