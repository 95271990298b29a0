package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/utils"
)

var registerOnce sync.Once

// RegisterValidators teaches gin's validator the "sixid" rule and makes it report
// JSON/form field names instead of Go field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation("sixid", func(fl validator.FieldLevel) bool {
			id, err := utils.ParseSixID(fl.Field().String())
			return err == nil && !id.IsZero()
		})
	})
}

func bindJSON(c *gin.Context, dst any) error {
	RegisterValidators()
	if err := c.ShouldBindJSON(dst); err != nil {
		return translateBindError(err)
	}
	return nil
}

func bindQuery(c *gin.Context, dst any) error {
	RegisterValidators()
	if err := c.ShouldBindQuery(dst); err != nil {
		return translateBindError(err)
	}
	return nil
}

// translateBindError turns binder failures into a validation error naming the offending fields.
func translateBindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.NewValidationError("Invalid request body")
	}

	fields := make([]string, 0, len(fieldErrs))
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		problems = append(problems, describeFieldError(fe))
	}
	return errs.NewValidationError("Invalid input: " + strings.Join(problems, "; ")).
		WithDetail("fields", fields)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "sixid":
		return fe.Field() + " is not a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "max", "min":
		return fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
