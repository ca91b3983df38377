package consolesvc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"

	"github.com/givehub/console/core"
)

type storeMock struct {
	clears int
	err    error
}

func (m *storeMock) Clear() error {
	m.clears++
	return m.err
}

func init() {
	pterm.DisableStyling()
}

func TestNavigator_Redirect(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		storeErr   error
		wantClears int
		wantOut    []string
	}{
		{name: "other screen", path: "/admin/users"},
		{name: "login", path: core.LoginPath, wantClears: 1, wantOut: []string{SessionExpiredText}},
		{name: "login, clear failed", path: core.LoginPath, storeErr: errors.New("read-only fs"), wantClears: 1, wantOut: []string{SessionExpiredText, "read-only fs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			store := &storeMock{err: tt.storeErr}
			nav := NewNavigator("/admin", store, &buf)

			nav.Redirect(tt.path)
			assert.Equal(t, tt.path, nav.Location())
			assert.Equal(t, tt.wantClears, store.clears)
			for _, s := range tt.wantOut {
				assert.Contains(t, buf.String(), s)
			}
			if len(tt.wantOut) == 0 {
				assert.Empty(t, buf.String())
			}
		})
	}

	t.Run("no store", func(t *testing.T) {
		var buf bytes.Buffer
		nav := NewNavigator("/", nil, &buf)
		nav.Redirect(core.LoginPath)
		assert.Equal(t, core.LoginPath, nav.Location())
		assert.Contains(t, buf.String(), SessionExpiredText)
	})
}

func TestNotifier_Notify(t *testing.T) {
	levels := []core.NoticeLevel{core.NoticeInfo, core.NoticeSuccess, core.NoticeWarning, core.NoticeError}
	for _, level := range levels {
		var buf bytes.Buffer
		NewNotifier(&buf, false).Notify(level, "user created")
		assert.Contains(t, buf.String(), "user created")
	}

	var buf bytes.Buffer
	NewNotifier(&buf, true).Notify(core.NoticeError, "hidden")
	assert.Empty(t, buf.String())
}
