package association

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/givehub/console/core"
)

// Category is the closed set of causes an association may support.
type Category string

// Categories
const (
	CategoryFood         Category = "Food"
	CategoryClothes      Category = "Clothes"
	CategoryHealthcare   Category = "Healthcare"
	CategoryEducation    Category = "Education"
	CategoryHomeSupplies Category = "Home supplies"
)

const FoundationDateLayout = "2006-01-02"

var (
	ErrUnknownCategory = errors.New("unknown category")

	Categories = []Category{CategoryFood, CategoryClothes, CategoryHealthcare, CategoryEducation, CategoryHomeSupplies}
)

// ParseCategory is case-insensitive and accepts "home-supplies" style spellings.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), " "))
	for _, cat := range Categories {
		if strings.ToLower(string(cat)) == norm {
			return cat, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownCategory, "%q", s)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryClothes, CategoryHealthcare, CategoryEducation, CategoryHomeSupplies:
		return true
	}
	return false
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding category")
	}
	if s == "" {
		*c = ""
		return nil
	}
	cat, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = cat
	return nil
}

// Association is an organization record managed by admins.
type Association struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	Category       Category   `json:"category"`
	Description    string     `json:"description,omitempty"`
	Logo           string     `json:"logo,omitempty"`
	FoundationDate string     `json:"foundationDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

func (a Association) EntityID() int { return a.ID }

func (a Association) IsDeleted() bool { return a.DeletedAt != nil }

// Founded parses FoundationDate; ok is false when it is missing or malformed.
func (a Association) Founded() (t time.Time, ok bool) {
	if a.FoundationDate == "" {
		return time.Time{}, false
	}
	// the API sometimes sends full timestamps
	date := a.FoundationDate
	if len(date) > len(FoundationDateLayout) {
		date = date[:len(FoundationDateLayout)]
	}
	t, err := time.Parse(FoundationDateLayout, date)
	return t, err == nil
}

// NewAssociation contains information needed to create a new Association.
type NewAssociation struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,pwdminlen,pwdnospace,pwdnotallnum"`
	Phone          string   `json:"phone" validate:"omitempty,phone"`
	Address        string   `json:"address"`
	Category       Category `json:"category" validate:"required,category"`
	Description    string   `json:"description"`
	Logo           string   `json:"logo" validate:"omitempty,url"`
	FoundationDate string   `json:"foundationDate" validate:"omitempty,datetime=2006-01-02"`
}

func (na *NewAssociation) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Phone = core.CleanString(na.Phone)
	na.Address = core.CleanString(na.Address)
	na.Description = strings.TrimSpace(na.Description)
	na.Logo = core.CleanString(na.Logo)
	na.FoundationDate = core.CleanString(na.FoundationDate)
	return validate.Struct(na)
}

// Payload returns the wire form of na, with the password renamed to `passwordHash`.
func (na NewAssociation) Payload() CreatePayload {
	return CreatePayload{
		Name:           na.Name,
		Email:          na.Email,
		PasswordHash:   na.Password,
		Phone:          na.Phone,
		Address:        na.Address,
		Category:       na.Category,
		Description:    na.Description,
		Logo:           na.Logo,
		FoundationDate: na.FoundationDate,
	}
}

type CreatePayload struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	PasswordHash   string   `json:"passwordHash"`
	Phone          string   `json:"phone,omitempty"`
	Address        string   `json:"address,omitempty"`
	Category       Category `json:"category"`
	Description    string   `json:"description,omitempty"`
	Logo           string   `json:"logo,omitempty"`
	FoundationDate string   `json:"foundationDate,omitempty"`
}

// UpdateAssociation is a patch: only fields with Valid set are sent.
type UpdateAssociation struct {
	Name           null.String
	Email          null.String
	Password       null.String
	Phone          null.String
	Address        null.String
	Category       null.String
	Description    null.String
	Logo           null.String
	FoundationDate null.String
}

func (ua UpdateAssociation) IsEmpty() bool {
	for _, s := range ua.all() {
		if s.Valid {
			return false
		}
	}
	return true
}

func (ua UpdateAssociation) all() map[string]null.String {
	return map[string]null.String{
		"name":           ua.Name,
		"email":          ua.Email,
		"passwordHash":   ua.Password,
		"phone":          ua.Phone,
		"address":        ua.Address,
		"category":       ua.Category,
		"description":    ua.Description,
		"logo":           ua.Logo,
		"foundationDate": ua.FoundationDate,
	}
}

func (ua *UpdateAssociation) Validate(validate *validator.Validate, translator ut.Translator) error {
	for _, s := range []*null.String{&ua.Name, &ua.Phone, &ua.Address, &ua.Logo, &ua.FoundationDate, &ua.Description} {
		if s.Valid {
			s.String = core.CleanString(s.String)
		}
	}
	if ua.Email.Valid {
		ua.Email.String = core.CleanString(ua.Email.String, true)
	}

	var flds []core.FieldError
	check := func(field string, s null.String, tag string) {
		if !s.Valid {
			return
		}
		if fe := core.ValidateVar(validate, translator, field, s.String, tag); fe != nil {
			flds = append(flds, *fe)
		}
	}
	check("name", ua.Name, "required")
	check("email", ua.Email, "required,email")
	check("password", ua.Password, core.PasswordPolicy)
	check("phone", ua.Phone, "omitempty,phone")
	check("logo", ua.Logo, "omitempty,url")
	check("foundationDate", ua.FoundationDate, "omitempty,datetime=2006-01-02")
	if ua.Category.Valid {
		cat, err := ParseCategory(ua.Category.String)
		if err != nil {
			flds = append(flds, core.FieldError{Field: "category", Error: categoryText})
		} else {
			ua.Category.String = string(cat)
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Fields returns the wire body of the patch.
func (ua UpdateAssociation) Fields() map[string]interface{} {
	m := make(map[string]interface{})
	for key, s := range ua.all() {
		if s.Valid {
			m[key] = s.String
		}
	}
	return m
}

type QueryFilter struct {
	Name     string
	Category Category
}

func (qf *QueryFilter) Clean() {
	qf.Name = core.CleanString(qf.Name)
}

func (qf QueryFilter) Values() url.Values {
	v := make(url.Values)
	if qf.Name != "" {
		v.Set("name", qf.Name)
	}
	if qf.Category.Valid() {
		v.Set("category", string(qf.Category))
	}
	return v
}
