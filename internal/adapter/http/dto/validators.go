package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Idempotency keys travel in a header and end up in a unique index, so the
// accepted alphabet is kept tight.
var safeKeyRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,100}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_key", validateSafeKey)
	}
}

// validateSafeKey allows alphanumeric, underscore, dash, and dot.
func validateSafeKey(fl validator.FieldLevel) bool {
	return safeKeyRe.MatchString(fl.Field().String())
}

// ValidIdempotencyKey reports whether key is acceptable as an
// Idempotency-Key header value.
func ValidIdempotencyKey(key string) bool {
	return safeKeyRe.MatchString(key)
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
