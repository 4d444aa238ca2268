package server

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var jsonFieldNames sync.Once

// useJSONFieldNames makes binding errors name fields by their JSON key.
func useJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes the request body into v, writing a 400 on failure.
// Fields tagged binding:"required" must be present and non-empty.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fe.Field() + " is invalid"
		if fe.Tag() == "required" {
			msg = fe.Field() + " is required"
		}
		httpx.Error(c, apperr.Wrap(apperr.KindValidation, msg, err))
		return false
	}
	httpx.Error(c, apperr.Wrap(apperr.KindValidation, "invalid JSON body", err))
	return false
}
