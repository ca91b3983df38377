package view

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/givehub/console/core"
)

// user-facing copy
const (
	PermissionDeniedText = "You do not have permission to perform this action."
	TryAgainLaterText    = "Something went wrong. Please try again later."
)

// MessageFor derives the user-facing message of a failed operation from its error kind.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}
	if core.IsAuthorization(err) {
		return PermissionDeniedText
	}
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		if len(vErr.Fields) == 0 {
			return capitalize(vErr.Error()) + "."
		}
		msgs := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			msgs = append(msgs, f.Field+": "+f.Error)
		}
		sort.Strings(msgs)
		return strings.Join(msgs, "\n")
	}
	return TryAgainLaterText
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
