package heuristic

import "regexp"

// Name characters accepted after an attribution label: Latin letters with
// the common accented blocks, digits, and a few joiners.
const (
	nameHead = `[A-ZÀ-ÖØ-Þ0-9]`
	nameTail = `[A-Za-zÀ-ÖØ-öø-ÿĀ-žḀ-ỿ&.'-]+`
	nameWord = nameHead + nameTail + `\s*`
)

var (
	privateEventRe = regexp.MustCompile(`(?i)Private Event`)
	aboutEventRe   = regexp.MustCompile(`(?i)About Event`)

	presentedByRe = regexp.MustCompile(`(?i)Presented by[:\s]*((?:` + nameWord + `){1,6}(?:(?:and|&) (?:` + nameWord + `){1,6})?)` +
		`(?:\s*–\s*|\s+⋅\s+|\s*•\s*|\n|<div|View Profile|Hosted by|Date & Time|Location|$)`)

	organizerTerminator = `(?:\s*–\s*|\s+⋅\s+|\s*•\s*|\n| RSVP| Register| Join| Event| About|\.$|$)`
	organizerPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Hosted by[:\s]+([A-Za-z0-9À-ÖØ-öø-ÿĀ-žḀ-ỿ&.,'\s-]+?)` + organizerTerminator),
		regexp.MustCompile(`(?i)Presented by[:\s]+([A-Za-z0-9À-ÖØ-öø-ÿĀ-žḀ-ỿ&.,'\s-]+?)` + organizerTerminator),
	}

	// promoSuffix trims call-to-action text that link cards append to names.
	promoSuffix = regexp.MustCompile(`(?i)\s*(Community|View Profile|Learn More|Page|Event Series)\b.*$`)
	// labelPromoSuffix is the narrower variant used on label-derived organizers.
	labelPromoSuffix = regexp.MustCompile(`(?i)\s*(Community|View Profile|Learn More|Page)\b.*$`)

	timeRangeRe = regexp.MustCompile(`(?i)(\d{1,2})[:.](\d{2})(?:\s*([ap]m))?\s*[-–—]\s*(\d{1,2})[:.](\d{2})(?:\s*([ap]m))?`)
	dateLikeRe  = regexp.MustCompile(`\d{1,4}[-/]\d{1,2}[-/]\d{1,4}`)
	isoDateRe   = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
)
