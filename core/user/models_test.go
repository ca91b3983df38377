package user

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core/auth"
)

func TestNewUser_Payload(t *testing.T) {
	nu := NewUser{
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "jane@x.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
		UserType:        auth.RoleDonor,
	}
	data, err := json.Marshal(nu.Payload())
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, map[string]interface{}{
		"firstName":    "Jane",
		"lastName":     "Doe",
		"email":        "jane@x.com",
		"passwordHash": "secret123",
		"userType":     "DONOR",
	}, body)
}

func TestUpdateUser_Fields(t *testing.T) {
	admin := auth.RoleAdmin

	tests := []struct {
		name string
		uu   UpdateUser
		want map[string]interface{}
	}{
		{name: "empty", uu: UpdateUser{}, want: map[string]interface{}{}},
		{
			name: "omitted vs cleared",
			uu:   UpdateUser{Address: null.StringFrom(""), Phone: null.NewString("+243", false)},
			want: map[string]interface{}{"address": ""},
		},
		{
			name: "password renamed",
			uu:   UpdateUser{Password: null.StringFrom("n3wsecret")},
			want: map[string]interface{}{"passwordHash": "n3wsecret"},
		},
		{
			name: "role",
			uu:   UpdateUser{UserType: &admin, FirstName: null.StringFrom("Ada")},
			want: map[string]interface{}{"userType": "ADMIN", "firstName": "Ada"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.uu.Fields())
			assert.Equal(t, len(tt.want) == 0, tt.uu.IsEmpty())
			assert.NotContains(t, tt.uu.Fields(), "password")
		})
	}
}

func TestUpdateUser_Apply(t *testing.T) {
	usr := User{ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", UserType: auth.RoleDonor}
	got := UpdateUser{Email: null.StringFrom("jane2@x.com")}.Apply(usr)

	want := usr
	want.Email = "jane2@x.com"
	assert.Equal(t, want, got)
}

func TestQueryFilter_Values(t *testing.T) {
	qf := QueryFilter{Search: "  jane ", Role: auth.RoleRecipient}
	qf.Clean()
	assert.Equal(t, url.Values{"search": {"jane"}, "userType": {"RECIPIENT"}}, qf.Values())
	assert.True(t, QueryFilter{}.IsEmpty())
	assert.Empty(t, QueryFilter{}.Values())
}
