package service

import (
	"reflect"
	"strings"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// maxPrice is the exclusive upper bound imposed by NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// productValidator checks product fields against their struct tags.
type productValidator struct {
	validate *validator.Validate
}

func newProductValidator() *productValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &productValidator{validate: v}
}

// Validate returns an INVALID_INPUT error describing every violated field.
func (pv *productValidator) Validate(p *model.Product) error {
	var problems []string

	if err := pv.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validate product")
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if !p.Price.Equal(p.Price.Truncate(2)) {
		problems = append(problems, "price must have at most 2 decimal places")
	}
	if p.Price.GreaterThanOrEqual(maxPrice) {
		problems = append(problems, "price must be less than 100000000")
	}

	if len(problems) > 0 {
		return model.NewInvalidInputError(strings.Join(problems, "; "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " must not be blank"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte", "lte":
		return fe.Field() + " must be between 0 and 5"
	default:
		return fe.Field() + " is invalid"
	}
}
