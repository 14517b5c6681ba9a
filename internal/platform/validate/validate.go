// Package validate owns the validator singleton and turns its errors into field lists
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	perr "payeerules/internal/platform/errors"
	"payeerules/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldLevel aliases validator.FieldLevel for custom tags
type FieldLevel = validator.FieldLevel

// Svc is the validator plus its english translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Get returns the singleton, building it on first use
func Get() *Svc {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("notblank", notBlank)
		translate(v, trans, "notblank", "{0} must not be blank")
		translate(v, trans, "min", "{0} must be at least {1} characters")
		translate(v, trans, "max", "{0} must be at most {1} characters")

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// RegisterValidation adds a custom tag with its message, {0} is the field name and {1} the param
func RegisterValidation(tag, msg string, fn validator.Func) error {
	s := Get()
	if err := s.Validator.RegisterValidation(tag, fn); err != nil {
		return err
	}
	translate(s.Validator, s.Translator, tag, msg)
	return nil
}

// Struct validates v and returns every failing field as one validation error
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator misuse")
		return perr.Wrap(inv, perr.ErrorCodeUnknown, "validation error")
	}
	return perr.Validation(Fields(err)...)
}

// Fields flattens validator errors into (field, message) pairs in declaration order
func Fields(err error) []perr.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []perr.FieldError{{Message: err.Error()}}
	}
	t := Get().Translator
	out := make([]perr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, perr.FieldError{Field: fe.Field(), Message: fe.Translate(t)})
	}
	return out
}

func jsonName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return fld.Name
}

func notBlank(fl FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return true
	}
	return strings.IndexFunc(f.String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
}

func translate(v *validator.Validate, trans ut.Translator, tag, msg string) {
	_ = v.RegisterTranslation(tag, trans,
		func(u ut.Translator) error { return u.Add(tag, msg, true) },
		func(u ut.Translator, fe validator.FieldError) string {
			s, _ := u.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}
