package checkout

import (
	"regexp"
	"strings"
)

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
	CardUnknown    CardType = "unknown"
)

const formattedCardLength = 19

var (
	nonDigit         = regexp.MustCompile(`\D`)
	mastercardPrefix = regexp.MustCompile(`^5[1-5]`)
	amexPrefix       = regexp.MustCompile(`^3[47]`)
)

// FormatCardNumber keeps the digits of raw and groups them as XXXX-XXXX-XXXX-XXXX.
func FormatCardNumber(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
		if b.Len() >= formattedCardLength {
			break
		}
	}
	return b.String()
}

// DetectCardType classifies a card number by its leading digits.
func DetectCardType(number string) CardType {
	digits := nonDigit.ReplaceAllString(number, "")
	switch {
	case strings.HasPrefix(digits, "4"):
		return CardVisa
	case mastercardPrefix.MatchString(digits):
		return CardMastercard
	case amexPrefix.MatchString(digits):
		return CardAmex
	case strings.HasPrefix(digits, "6"):
		return CardDiscover
	}
	return CardUnknown
}

// MaskCardNumber hides every digit but the last four.
func MaskCardNumber(number string) string {
	digits := nonDigit.ReplaceAllString(number, "")
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
