package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
)

func TestRollbarLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		log       func(l *RollbarLogger)
		wantLines []string
	}{
		{
			name:      "debug hidden",
			log:       func(l *RollbarLogger) { l.Debug("resolving principal", map[string]interface{}{"status": 401}) },
			wantLines: nil,
		},
		{
			name:      "debug shown",
			debug:     true,
			log:       func(l *RollbarLogger) { l.Debug("resolving principal", map[string]interface{}{"status": 401}) },
			wantLines: []string{"resolving principal", "map[status:401]"},
		},
		{
			name: "principal not printed",
			log: func(l *RollbarLogger) {
				l.Warn("inconsistent list", map[string]interface{}{"id": 7}, auth.Principal{ID: 1, Email: "a@test.cd"})
			},
			wantLines: []string{"inconsistent list", "map[id:7]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", Debug: tt.debug, TestMode: true})
			tt.log(l)

			var lines []string
			for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
				if len(line) > 0 {
					lines = append(lines, string(line))
				}
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestRollbarLogger_Prepare(t *testing.T) {
	l := RollbarLogger{}
	p := &auth.Principal{ID: 3, FirstName: "Ada", Email: "ada@test.cd"}
	args := l.prepare("msg", []interface{}{errors.New("boom"), p, auth.Principal{ID: 4}})
	assert.Len(t, args, 2)
	assert.Equal(t, "msg", args[0])
}
