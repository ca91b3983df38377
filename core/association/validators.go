package association

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/givehub/console/core"
)

var (
	categoryTag  = "category"
	categoryText = "select one of Food, Clothes, Healthcare, Education or Home supplies"

	urlText  = "enter a valid URL"
	dateText = "use the YYYY-MM-DD format"
)

// InitValidators registers the association validation tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
	core.RegisterCustomTranslation(validate, translator, "url", urlText, true)
	core.RegisterCustomTranslation(validate, translator, "datetime", dateText, true)
}

func categoryValidation(fl validator.FieldLevel) bool {
	if cat, ok := fl.Field().Interface().(Category); ok {
		return cat.Valid()
	}
	return false
}
