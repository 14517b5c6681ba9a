package service

import (
	"payeerules/internal/core/normalize"
	"payeerules/internal/core/patterns"
	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/validate"
)

type ruleFields struct {
	Pattern  string `json:"pattern" validate:"required,notblank,max=200"`
	Category string `json:"category" validate:"required,notblank,max=200"`
}

// checkRule sanitizes category and returns every field error at once
func checkRule(pattern string, isRegex bool, category string) (string, error) {
	category = normalize.Category(category)

	var fields []perr.FieldError
	if err := validate.Struct(ruleFields{Pattern: pattern, Category: category}); err != nil {
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			return "", err
		}
		fields = perr.FieldsOf(err)
	}

	if isRegex && !hasField(fields, "pattern") {
		if res := patterns.Validate(pattern); !res.Valid() {
			fields = append([]perr.FieldError{{Field: "pattern", Message: res.Message}}, fields...)
		}
	}
	if len(fields) > 0 {
		return "", perr.Validation(fields...)
	}
	return category, nil
}

func hasField(fields []perr.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
