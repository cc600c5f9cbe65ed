// Package moderation screens user-written text (comments, event
// descriptions) before it reaches the document store.
package moderation

import (
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
)

const (
	ReasonLanguage    = "inappropriate_language"
	ReasonURL         = "url_not_allowed"
	ReasonContactInfo = "contact_info_not_allowed"
	ReasonSpam        = "spam_detected"
	ReasonCaps        = "excessive_caps"
)

var BannedWords = []string{
	"fuck", "fucking", "shit", "bullshit", "asshole", "bastard", "bitch", "cunt",
	"nigger", "faggot", "retard",
	"mierda", "puta", "puto", "pendejo", "cabrón", "gilipollas", "maricón", "coño",
	"porn", "porno", "nudes",
	"scam", "estafa", "phishing", "malware",
}

var rejectionMessages = map[string]string{
	ReasonLanguage:    "Your comment contains inappropriate language.",
	ReasonURL:         "Links are not allowed in comments.",
	ReasonContactInfo: "Contact information is not allowed.",
	ReasonSpam:        "Your comment appears to be spam.",
	ReasonCaps:        "Please avoid using excessive capital letters.",
}

// Filter is safe for concurrent use once built.
type Filter struct {
	banned       []*regexp.Regexp
	url          *regexp.Regexp
	email        *regexp.Regexp
	phone        *regexp.Regexp
	repeatedChar *regexp.Regexp
	allCaps      *regexp.Regexp
}

func NewFilter() *Filter {
	f := &Filter{
		banned:       make([]*regexp.Regexp, 0, len(BannedWords)),
		url:          regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		email:        regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phone:        regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		repeatedChar: regexp.MustCompile(repeatedCharPattern()),
		allCaps:      regexp.MustCompile(`\p{Lu}{5,}`),
	}
	for _, word := range BannedWords {
		// \b is ASCII-only in RE2, so word edges are spelled out for accented words.
		re, err := regexp.Compile(`(?i)(^|[^\pL])` + regexp.QuoteMeta(word) + `($|[^\pL])`)
		if err == nil {
			f.banned = append(f.banned, re)
		}
	}
	return f
}

// repeatedCharPattern matches a letter or punctuation mark repeated four or
// more times. RE2 has no backreferences, so every character gets its own
// alternative.
func repeatedCharPattern() string {
	var b strings.Builder
	b.WriteString(`(?i)(`)
	for i, r := range "abcdefghijklmnopqrstuvwxyzáéíóúñ!?." {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
		b.WriteString(`{4,}`)
	}
	b.WriteByte(')')
	return b.String()
}

// Check reports whether text is acceptable and, if not, a reason code.
func (f *Filter) Check(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, re := range f.banned {
		if re.MatchString(text) {
			return false, ReasonLanguage
		}
	}
	if f.url.MatchString(text) {
		return false, ReasonURL
	}
	if f.email.MatchString(text) || f.phone.MatchString(text) {
		return false, ReasonContactInfo
	}
	if f.repeatedChar.MatchString(text) {
		return false, ReasonSpam
	}
	if len(f.allCaps.FindAllString(text, -1)) > 2 {
		return false, ReasonCaps
	}
	return true, ""
}

// Validate returns a *domain.ValidationError on field when text is rejected.
func (f *Filter) Validate(field, text string) error {
	if ok, reason := f.Check(text); !ok {
		return domain.NewValidationError(field, RejectionMessage(reason))
	}
	return nil
}

func RejectionMessage(reason string) string {
	if msg, ok := rejectionMessages[reason]; ok {
		return msg
	}
	return "Your text does not meet our content guidelines."
}
