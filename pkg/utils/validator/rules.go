package validator

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagNotBlank = "notblank" // 非空且不全是空白字符
)

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagNotBlank, validateNotBlank)

	v.registerTranslation(LangEN, TagNotBlank, "{0} must not be blank")
	v.registerTranslation(LangZH, TagNotBlank, "{0}不能为空白")
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (v *Validator) registerTranslation(lang, tag, message string) {
	_ = v.validate.RegisterTranslation(tag, v.trans[lang],
		func(trans ut.Translator) error {
			return trans.Add(tag, message, true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			t, _ := trans.T(tag, fe.Field())
			return t
		},
	)
}
