package user

import (
	"net/url"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
)

// User is an administrable account: the Principal shape plus a soft-deletion marker.
type User struct {
	ID        int        `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	UserType  auth.Role  `json:"userType"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (u User) EntityID() int { return u.ID }

func (u User) IsDeleted() bool { return u.DeletedAt != nil }

func (u User) FullName() string {
	return auth.Principal{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}.DisplayName()
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName       string    `json:"firstName" validate:"required"`
	LastName        string    `json:"lastName" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"required,pwdminlen,pwdnospace,pwdnotallnum"`
	PasswordConfirm string    `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
	UserType        auth.Role `json:"userType" validate:"required,role"`
	Phone           string    `json:"phone" validate:"omitempty,phone"`
	Address         string    `json:"address"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Address = core.CleanString(nu.Address)
	return validate.Struct(nu)
}

// Payload returns the wire form of nu. The password travels as `passwordHash`; the plaintext
// `password` key is never sent. Hashing itself is the server's job.
func (nu NewUser) Payload() CreatePayload {
	return CreatePayload{
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        nu.Email,
		PasswordHash: nu.Password,
		UserType:     nu.UserType,
		Phone:        nu.Phone,
		Address:      nu.Address,
	}
}

// CreatePayload is the body of the create-profile request.
type CreatePayload struct {
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	UserType     auth.Role `json:"userType"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
}

// UpdateUser defines what information may be provided to modify an existing User.
// Only fields with Valid set are sent; a valid empty string clears the field.
type UpdateUser struct {
	FirstName null.String
	LastName  null.String
	Email     null.String
	Password  null.String
	UserType  *auth.Role
	Phone     null.String
	Address   null.String
}

func (uu UpdateUser) IsEmpty() bool {
	return !(uu.FirstName.Valid || uu.LastName.Valid || uu.Email.Valid || uu.Password.Valid ||
		uu.UserType != nil || uu.Phone.Valid || uu.Address.Valid)
}

func (uu *UpdateUser) Validate(validate *validator.Validate, translator ut.Translator) error {
	clean := func(s *null.String, lower bool) {
		if s.Valid {
			s.String = core.CleanString(s.String, lower)
		}
	}
	clean(&uu.FirstName, false)
	clean(&uu.LastName, false)
	clean(&uu.Email, true)
	clean(&uu.Phone, false)
	clean(&uu.Address, false)

	var flds []core.FieldError
	check := func(field string, s null.String, tag string) {
		if !s.Valid {
			return
		}
		if fe := core.ValidateVar(validate, translator, field, s.String, tag); fe != nil {
			flds = append(flds, *fe)
		}
	}
	check("firstName", uu.FirstName, "required")
	check("lastName", uu.LastName, "required")
	check("email", uu.Email, "required,email")
	check("password", uu.Password, core.PasswordPolicy)
	check("phone", uu.Phone, "omitempty,phone")
	if uu.UserType != nil && !uu.UserType.Valid() {
		flds = append(flds, core.FieldError{Field: "userType", Error: roleText})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Fields returns the wire body of the patch: present fields only, password as `passwordHash`.
func (uu UpdateUser) Fields() map[string]interface{} {
	m := make(map[string]interface{})
	put := func(key string, s null.String) {
		if s.Valid {
			m[key] = s.String
		}
	}
	put("firstName", uu.FirstName)
	put("lastName", uu.LastName)
	put("email", uu.Email)
	put("passwordHash", uu.Password)
	put("phone", uu.Phone)
	put("address", uu.Address)
	if uu.UserType != nil {
		m["userType"] = uu.UserType.String()
	}
	return m
}

// Apply returns a copy of usr with the patch applied (used to predict server state in tests & previews).
func (uu UpdateUser) Apply(usr User) User {
	if uu.FirstName.Valid {
		usr.FirstName = uu.FirstName.String
	}
	if uu.LastName.Valid {
		usr.LastName = uu.LastName.String
	}
	if uu.Email.Valid {
		usr.Email = uu.Email.String
	}
	if uu.UserType != nil {
		usr.UserType = *uu.UserType
	}
	if uu.Phone.Valid {
		usr.Phone = uu.Phone.String
	}
	if uu.Address.Valid {
		usr.Address = uu.Address.String
	}
	return usr
}

type QueryFilter struct {
	Search string
	Role   auth.Role
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Search == "" && !qf.Role.Valid()
}

// Values encodes the filter as query parameters.
func (qf QueryFilter) Values() url.Values {
	v := make(url.Values)
	if qf.Search != "" {
		v.Set("search", qf.Search)
	}
	if qf.Role.Valid() {
		v.Set("userType", qf.Role.String())
	}
	return v
}
