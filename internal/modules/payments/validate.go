package payments

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const MaxAmount = 1_000_000

var (
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	localMobileRe = regexp.MustCompile(`^07\d{8}$`)
)

// InitiateInput is what a donor submits. OrderID is generated by the client
// once per attempt and never reused.
type InitiateInput struct {
	OrderID    string          `json:"orderId" validate:"required,max=64"`
	Amount     decimal.Decimal `json:"amount" validate:"amount_range"`
	Currency   string          `json:"currency" validate:"required,len=3,alpha"`
	BuyerEmail string          `json:"buyerEmail" validate:"required,buyer_email,max=255"`
	BuyerName  string          `json:"buyerName" validate:"required,max=255"`
	BuyerPhone string          `json:"buyerPhone" validate:"required,local_mobile"`
}

// Normalize trims whitespace and upper-cases the currency code.
func (in *InitiateInput) Normalize() {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.BuyerEmail = strings.TrimSpace(in.BuyerEmail)
	in.BuyerName = strings.TrimSpace(in.BuyerName)
	in.BuyerPhone = strings.TrimSpace(in.BuyerPhone)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Decimals reach the validator as their exact string form.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.String()
	}, decimal.Decimal{})

	_ = v.RegisterValidation("amount_range", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && validAmount(d)
	})

	_ = v.RegisterValidation("buyer_email", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("local_mobile", func(fl validator.FieldLevel) bool {
		return localMobileRe.MatchString(fl.Field().String())
	})
	return v
}

var maxAmount = decimal.NewFromInt(MaxAmount)

// validAmount holds for amounts in (0, MaxAmount] with at most two decimal
// places, the precision of the amount column.
func validAmount(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero) &&
		d.LessThanOrEqual(maxAmount) &&
		d.Equal(d.Round(2))
}

// Validate checks the input and returns a *ValidationError naming every
// invalid field.
func Validate(in InitiateInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = messageFor(fe.Tag(), fe.Param())
	}
	return &ValidationError{Fields: fields}
}

func messageFor(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "buyer_email":
		return "must be a valid email address"
	case "local_mobile":
		return "must be a mobile number in the form 07XXXXXXXX"
	case "amount_range":
		return "must be greater than 0 and at most 1000000, with at most 2 decimal places"
	case "len":
		return "must be exactly " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "alpha":
		return "must contain letters only"
	}
	return "is invalid"
}
