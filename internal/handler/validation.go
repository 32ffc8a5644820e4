package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Kenyan mobile numbers in 254 format: 2547xxxxxxxx or 2541xxxxxxxx.
var msisdnPattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// RegisterValidators wires the custom binding rules into gin's validator engine.
// Must run once before routes are served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	return errors.As(err, target)
}

func violatedFields(verrs validator.ValidationErrors) []gin.H {
	fields := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, gin.H{"field": fe.Field(), "rule": fe.Tag()})
	}
	return fields
}
