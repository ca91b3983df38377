package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  Strength
	}{
		{name: "too short", pwd: "aB1!", want: StrengthWeak},
		{name: "common", pwd: "Password123", want: StrengthWeak},
		{name: "similar to name", pwd: "janedoe", attrs: []string{"Jane Doe"}, want: StrengthWeak},
		{name: "similar to email", pwd: "janedoe", attrs: []string{"janedoe@x.com"}, want: StrengthWeak},
		{name: "letters and digits", pwd: "secret123", want: StrengthFair},
		{name: "three classes", pwd: "Secret123", attrs: []string{"Jane Doe", "jane@x.com"}, want: StrengthFair},
		{name: "four classes", pwd: "Secret-123", want: StrengthGood},
		{name: "four classes long", pwd: "Secret-123-Donor", want: StrengthStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PasswordStrength(tt.pwd, tt.attrs...)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestIsCommonPassword(t *testing.T) {
	assert.True(t, isCommonPassword("QWERTY"))
	assert.True(t, isCommonPassword("123456"))
	assert.False(t, isCommonPassword("Secret-123-Donor"))
	assert.False(t, isCommonPassword("# most common leaked passwords, lower-cased"))
}
