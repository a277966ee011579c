package checkout

import (
	"reflect"
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Form is the shipping and payment form submitted at checkout.
type Form struct {
	Name       string `json:"name" validate:"min=2"`
	Phone      string `json:"phone" validate:"vnphone"`
	Email      string `json:"email" validate:"email"`
	Address    string `json:"address" validate:"min=5"`
	CardNumber string `json:"cardNumber" validate:"len=19,cardformat"`
	ExpiryDate string `json:"expiryDate" validate:"len=5,cardexpiry"`
	CVV        string `json:"cvv" validate:"min=3,max=4"`
}

var (
	phonePattern  = regexp.MustCompile(`^(0?)(3[2-9]|5[6|8|9]|7[0|6-9]|8[0-6|8|9]|9[0-4|6-9])[0-9]{7}$`)
	cardPattern   = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{4}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// messages are keyed by json field name, then validation tag.
var messages = map[string]map[string]string{
	"name":       {"min": "Name must be at least 2 characters."},
	"phone":      {"vnphone": "Invalid phone number."},
	"email":      {"email": "Invalid email address."},
	"address":    {"min": "Address is too short."},
	"cardNumber": {"len": "Card number must be 16 digits.", "cardformat": "Invalid card format. Use XXXX-XXXX-XXXX-XXXX."},
	"expiryDate": {"len": "Expiry date must be in MM/YY format.", "cardexpiry": "Invalid format. Use MM/YY."},
	"cvv":        {"min": "CVV must be 3 or 4 digits.", "max": "CVV must be 3 or 4 digits."},
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("vnphone", matchField(phonePattern))
	_ = v.RegisterValidation("cardformat", matchField(cardPattern))
	_ = v.RegisterValidation("cardexpiry", matchField(expiryPattern))
	return v
}

func matchField(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Normalize trims whitespace and reformats the card number the way the form input does.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	if strings.TrimSpace(f.CardNumber) != "" {
		f.CardNumber = FormatCardNumber(f.CardNumber)
	}
	f.ExpiryDate = strings.TrimSpace(f.ExpiryDate)
	f.CVV = strings.TrimSpace(f.CVV)
	return f
}

// Validate returns a VALIDATION_ERROR whose details map each failing field to its message.
func Validate(v *validator.Validate, f Form) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fe := range fieldErrs {
		msg := messages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "is invalid"
		}
		details[fe.Field()] = msg
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}
