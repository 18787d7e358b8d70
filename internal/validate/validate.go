// Package validate checks request documents against their struct tags and
// renders failures as field -> message maps.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once  sync.Once
	v     *govalidator.Validate
	trans ut.Translator
)

func engine() *govalidator.Validate {
	once.Do(func() {
		v = govalidator.New(govalidator.WithRequiredStructEnabled())
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
	return v
}

// Struct validates a struct, or each element of a slice of structs, by its
// tags.
func Struct(s any) error {
	rv := reflect.ValueOf(s)
	if rv.Kind() != reflect.Slice {
		return engine().Struct(s)
	}
	var all govalidator.ValidationErrors
	for i := 0; i < rv.Len(); i++ {
		err := engine().Struct(rv.Index(i).Interface())
		if err == nil {
			continue
		}
		var ve govalidator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		all = append(all, ve...)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// TranslateErrors returns field -> message for validation errors, or a
// single "detail" entry for anything else.
func TranslateErrors(err error) map[string]string {
	engine()
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Namespace()] = fe.Translate(trans)
		}
		return fields
	}
	fields["detail"] = err.Error()
	return fields
}
