package user

import (
	"bufio"
	"bytes"
	_ "embed"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/givehub/console/core"
	"github.com/givehub/console/core/auth"
)

var (
	roleTag  = "role"
	roleText = "select one of DONOR, RECIPIENT or ADMIN"

	pwdMaxSim = .7

	commonPasswords = loadCommonPasswords(commonPasswordsRaw)
)

//go:embed common-passwords.txt
var commonPasswordsRaw []byte

// InitValidators registers the user validation tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func loadCommonPasswords(raw []byte) []string {
	pwds := make([]string, 0, 128)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" && !strings.HasPrefix(pwd, "#") {
			pwds = append(pwds, strings.ToLower(pwd))
		}
	}
	sort.Strings(pwds)
	return pwds
}

func isCommonPassword(pwd string) bool {
	lpwd := strings.ToLower(pwd)
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(auth.Role); ok {
		return role.Valid()
	}
	return false
}

// Password strength

type Strength int

const (
	StrengthWeak Strength = iota
	StrengthFair
	StrengthGood
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "Weak"
	case StrengthFair:
		return "Fair"
	case StrengthGood:
		return "Good"
	case StrengthStrong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// PasswordStrength scores pwd for signup feedback. It never rejects anything on its own:
// common passwords and passwords too similar to one of attrs (name, email...) are always Weak.
func PasswordStrength(pwd string, attrs ...string) Strength {
	if len([]rune(pwd)) < core.PwdMinLen || isCommonPassword(pwd) {
		return StrengthWeak
	}
	for _, attr := range attrs {
		if similarity(pwd, attr) >= pwdMaxSim {
			return StrengthWeak
		}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, char := range pwd {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case !unicode.IsSpace(char):
			hasSpecial = true
		}
	}

	score := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			score++
		}
	}
	if len(pwd) >= 12 {
		score++
	}

	switch {
	case score >= 5:
		return StrengthStrong
	case score == 4:
		return StrengthGood
	case score >= 2:
		return StrengthFair
	default:
		return StrengthWeak
	}
}

func similarity(pwd, attr string) float64 {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if attr == "" {
		return 0
	}
	// compare against the local part only for emails
	if at := strings.IndexByte(attr, '@'); at > 0 {
		attr = attr[:at]
	}
	return difflib.NewMatcher(strings.Split(strings.ToLower(pwd), ""), strings.Split(attr, "")).QuickRatio()
}
