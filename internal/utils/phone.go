package utils

import "strings"

const jidSuffix = "@c.us"

// PhoneFromJID strips the WhatsApp JID suffix, leaving the raw number.
func PhoneFromJID(jid string) string {
	return strings.TrimSuffix(jid, jidSuffix)
}

// JIDFromPhone builds a WhatsApp JID from any stored phone format.
func JIDFromPhone(phone string) string {
	return Digits(phone) + jidSuffix
}

// Digits strips every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneCandidates lists the formats a WhatsApp number may have been stored
// under: as received, without the 55 country code, with a leading plus and
// in the canonical +55 form. Duplicates are removed preserving order.
func PhoneCandidates(phone string) []string {
	trimmed := strings.TrimPrefix(phone, "55")
	raw := []string{
		phone,
		trimmed,
		"+" + phone,
		"+55" + trimmed,
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// PhoneSuffix returns the trailing n digits of the number, the part shared
// by every storage format, for the fallback suffix scan.
func PhoneSuffix(phone string, n int) string {
	d := Digits(phone)
	if len(d) <= n {
		return d
	}
	return d[len(d)-n:]
}
