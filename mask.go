package faultline

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Masker applies content-aware masking.
type Masker interface {
	// Mask applies masking to the value.
	Mask(value string) string
}

// MaskerFunc adapts a function to Masker.
type MaskerFunc func(value string) string

func (f MaskerFunc) Mask(value string) string { return f(value) }

// EmailMasker keeps the first character of the local part and the domain.
func EmailMasker() Masker { return MaskerFunc(maskEmail) }

// IPMasker keeps the network half of an address.
func IPMasker() Masker { return MaskerFunc(maskIP) }

// CardMasker keeps the last four digits.
func CardMasker() Masker { return MaskerFunc(maskCard) }

// UUIDMasker keeps the first group of a UUID.
func UUIDMasker() Masker { return MaskerFunc(maskUUID) }

// PhoneMasker keeps the last four digits.
func PhoneMasker() Masker { return MaskerFunc(maskPhone) }

// SecretMasker hides the whole value.
func SecretMasker() Masker { return MaskerFunc(maskAll) }

func maskAll(value string) string {
	return strings.Repeat("*", len(value))
}

func maskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at < 1 {
		return maskAll(value)
	}
	return value[:1] + "***" + value[at:]
}

func maskIP(value string) string {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return maskAll(value)
	}
	if addr.Is4() || addr.Is4In6() {
		b := addr.Unmap().As4()
		return strconv.Itoa(int(b[0])) + "." + strconv.Itoa(int(b[1])) + ".xxx.xxx"
	}
	full := addr.StringExpanded()
	groups := strings.Split(full, ":")
	return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
}

func maskCard(value string) string {
	digits := extractDigits(value)
	if len(digits) < 4 {
		return maskAll(value)
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

func maskUUID(value string) string {
	id, err := uuid.Parse(value)
	if err != nil {
		return maskAll(value)
	}
	first, _, _ := strings.Cut(id.String(), "-")
	return first + "-****-****-****-************"
}

func maskPhone(value string) string {
	digits := extractDigits(value)
	if len(digits) < 4 {
		return maskAll(value)
	}
	last4 := digits[len(digits)-4:]
	switch {
	case strings.HasPrefix(value, "(") && len(digits) >= 10:
		return "(***) ***-" + last4
	case len(digits) >= 10:
		return "***-***-" + last4
	default:
		return "***-" + last4
	}
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// builtinMaskers returns the default masker registry.
func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskEmail:  EmailMasker(),
		MaskIP:     IPMasker(),
		MaskCard:   CardMasker(),
		MaskUUID:   UUIDMasker(),
		MaskPhone:  PhoneMasker(),
		MaskSecret: SecretMasker(),
	}
}
