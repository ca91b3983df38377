package auth

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Role
		wantErr bool
	}{
		{name: "donor", in: "DONOR", want: RoleDonor},
		{name: "recipient lower", in: "recipient", want: RoleRecipient},
		{name: "admin padded", in: " Admin ", want: RoleAdmin},
		{name: "empty", in: "", want: RoleUnknown, wantErr: true},
		{name: "unknown", in: "ROOT", want: RoleUnknown, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownRole))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRole_JSON(t *testing.T) {
	for _, role := range Roles {
		data, err := json.Marshal(role)
		assert.NoError(t, err)

		var got Role
		assert.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, role, got)
	}

	_, err := json.Marshal(RoleUnknown)
	assert.Error(t, err)

	var p Principal
	err = json.Unmarshal([]byte(`{"id": 1, "userType": "SUPERUSER"}`), &p)
	assert.Error(t, err)
	assert.Equal(t, RoleUnknown, p.Role)

	// a missing role does not fail the whole record
	for _, raw := range []string{`{"id": 2, "userType": null}`, `{"id": 2, "userType": ""}`} {
		p = Principal{Role: RoleAdmin}
		assert.NoError(t, json.Unmarshal([]byte(raw), &p), raw)
		assert.Equal(t, 2, p.ID)
		assert.Equal(t, RoleUnknown, p.Role)
	}
}

func TestRole_Labels(t *testing.T) {
	assert.Equal(t, "DONOR", RoleDonor.String())
	assert.Equal(t, "Recipient", RoleRecipient.Label())
	assert.Equal(t, "", RoleUnknown.String())
	assert.Equal(t, "Unknown", Role(42).Label())
	assert.False(t, Role(42).Valid())
}
