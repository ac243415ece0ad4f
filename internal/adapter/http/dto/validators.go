package dto

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])\d{2}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("luhn", validateLuhn)
		_ = v.RegisterValidation("card_expiry", validateCardExpiry)
	}
}

// validateLuhn checks the Luhn checksum of a digit string.
func validateLuhn(fl validator.FieldLevel) bool {
	return luhnValid(fl.Field().String())
}

func luhnValid(s string) bool {
	if s == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validateCardExpiry accepts MMYY and rejects cards already expired.
func validateCardExpiry(fl validator.FieldLevel) bool {
	return expiryValid(fl.Field().String())
}

// expiryValid checks the MMYY format and that the card is still usable.
// A card stays valid through the last day of its expiry month.
func expiryValid(raw string) bool {
	if !expiryRe.MatchString(raw) {
		return false
	}
	month := int(raw[0]-'0')*10 + int(raw[1]-'0')
	year := 2000 + int(raw[2]-'0')*10 + int(raw[3]-'0')

	// First day of the month after expiry.
	cutoff := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return time.Now().UTC().Before(cutoff)
}
