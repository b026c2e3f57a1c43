package validators

import "strings"

// NormalizePhone keeps the digits of a phone number and prefixes the Brazilian
// country code to bare 10 or 11 digit numbers. WhatsApp JIDs
// ("5511999999999@s.whatsapp.net") are accepted.
func NormalizePhone(raw string) string {
	if at := strings.Index(raw, "@"); at >= 0 {
		raw = raw[:at]
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 10 || len(digits) == 11 {
		return "55" + digits
	}
	return digits
}

func IsPhoneValid(raw string) bool {
	n := len(NormalizePhone(raw))
	return n >= 12 && n <= 13
}
