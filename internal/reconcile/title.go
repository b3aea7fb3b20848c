package reconcile

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/event"
)

// Rule names reported for applied title corrections.
const (
	RuleSiteSuffix   = "site-suffix"
	RulePrivateEvent = "private-event"
	RuleTopic        = "topic"
	overridePrefix   = "override:"
)

const (
	privateEventTitle    = "private event"
	investorDayTitle     = "Investor Day 2025 | Founders at the University of Cambridge"
	defaultSiteSuffix    = "Lu.ma"
	defaultTopicPhrase   = "investor day"
	foundersFallbackName = "Founders Event"
)

var attributionPrefixes = []string{"Presented by", "Hosted by"}

// TitleOverride is a page-specific title patch. Every non-empty condition
// must hold. When DescriptionPattern is set and matches the description the
// title becomes Title; otherwise Fallback is used if set. Without a pattern,
// matching conditions always yield Title.
type TitleOverride struct {
	Name               string `mapstructure:"name"`
	URLContains        string `mapstructure:"url_contains"`
	TitleEquals        string `mapstructure:"title_equals"`
	PresentedByEquals  string `mapstructure:"presented_by_equals"`
	DescriptionPattern string `mapstructure:"description_pattern"`
	Title              string `mapstructure:"title"`
	Fallback           string `mapstructure:"fallback"`
}

// DefaultTitleOverrides patch the "Founders" event family, whose structured
// metadata only ever says "Founders".
func DefaultTitleOverrides() []TitleOverride {
	return []TitleOverride{
		{
			Name:               "founders-investor-day",
			URLContains:        "founders",
			TitleEquals:        "Founders",
			DescriptionPattern: `(?i)investor day`,
			Title:              investorDayTitle,
		},
		{
			Name:               "founders-presented-by-founders",
			TitleEquals:        "Founders",
			PresentedByEquals:  "Founders",
			DescriptionPattern: `(?i)(investor day[^.]+|university of cambridge[^.]+)`,
			Title:              investorDayTitle,
			Fallback:           foundersFallbackName,
		},
	}
}

// Options configure a Reconciler.
type Options struct {
	// SiteSuffix is the branding stripped from "<title> | <SiteSuffix>".
	SiteSuffix string
	// Topics are phrases that, when present in the description but not the
	// title, mark the title as wrong.
	Topics []string
	// Overrides run in order after the generic corrections.
	Overrides []TitleOverride
}

type topic struct {
	phrase string
	re     *regexp.Regexp
}

type override struct {
	TitleOverride
	pattern *regexp.Regexp
}

// Reconciler applies title corrections.
type Reconciler struct {
	logger    *zap.Logger
	suffixRe  *regexp.Regexp
	topics    []topic
	overrides []override
}

// New compiles the configured corrections. Zero Options use the defaults for
// the target site; pass an empty, non-nil Overrides slice to disable them.
func New(opts Options, logger *zap.Logger) (*Reconciler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SiteSuffix == "" {
		opts.SiteSuffix = defaultSiteSuffix
	}
	if opts.Topics == nil {
		opts.Topics = []string{defaultTopicPhrase}
	}
	if opts.Overrides == nil {
		opts.Overrides = DefaultTitleOverrides()
	}

	r := &Reconciler{
		logger:   logger,
		suffixRe: regexp.MustCompile(`\s*\|\s*` + regexp.QuoteMeta(opts.SiteSuffix) + `\s*$`),
	}
	for _, phrase := range opts.Topics {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		r.topics = append(r.topics, topic{
			phrase: phrase,
			re:     regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(phrase) + `[^.]+)`),
		})
	}
	for _, o := range opts.Overrides {
		compiled := override{TitleOverride: o}
		if o.DescriptionPattern != "" {
			re, err := regexp.Compile(o.DescriptionPattern)
			if err != nil {
				return nil, fmt.Errorf("title override %q: compile pattern: %w", o.Name, err)
			}
			compiled.pattern = re
		}
		r.overrides = append(r.overrides, compiled)
	}
	return r, nil
}

// CorrectTitle runs the title corrections against fields and returns the
// updated copy plus the names of the rules that changed the title. Each
// rule sees the title left by the previous one; unmet preconditions leave
// the title alone.
func (r *Reconciler) CorrectTitle(pageURL string, fields event.Fields) (event.Fields, []string) {
	out := fields.Clone()
	var applied []string
	set := func(rule, title string) {
		if current, _ := out.Get(event.FieldTitle); current == title {
			return
		}
		r.logger.Debug("title corrected",
			zap.String("rule", rule),
			zap.String("from", out[event.FieldTitle]),
			zap.String("to", title),
		)
		out.Set(event.FieldTitle, title)
		applied = append(applied, rule)
	}

	if title, ok := out.Get(event.FieldTitle); ok {
		set(RuleSiteSuffix, r.suffixRe.ReplaceAllString(title, ""))
	}
	if title, ok := r.promotePrivateEvent(out); ok {
		set(RulePrivateEvent, title)
	}
	if title, ok := r.topicTitle(out); ok {
		set(RuleTopic, title)
	}
	for _, o := range r.overrides {
		if title, ok := o.apply(pageURL, out); ok {
			set(overridePrefix+o.Name, title)
		}
	}
	return out, applied
}

// promotePrivateEvent replaces a "Private Event" placeholder with the first
// plausible description line.
func (r *Reconciler) promotePrivateEvent(fields event.Fields) (string, bool) {
	title, _ := fields.Get(event.FieldTitle)
	desc, ok := fields.Get(event.FieldDescription)
	if !ok || strings.ToLower(title) != privateEventTitle {
		return "", false
	}
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if line == "" || strings.ToLower(line) == privateEventTitle || n <= 5 || n >= 80 {
			continue
		}
		if hasAnyPrefix(line, attributionPrefixes) {
			continue
		}
		return line, true
	}
	return "", false
}

// topicTitle promotes a description phrase when the description names a
// known topic the current title lacks.
func (r *Reconciler) topicTitle(fields event.Fields) (string, bool) {
	title, hasTitle := fields.Get(event.FieldTitle)
	desc, hasDesc := fields.Get(event.FieldDescription)
	if !hasTitle || !hasDesc {
		return "", false
	}
	lowerDesc, lowerTitle := strings.ToLower(desc), strings.ToLower(title)
	for _, t := range r.topics {
		if !strings.Contains(lowerDesc, t.phrase) || strings.Contains(lowerTitle, t.phrase) {
			continue
		}
		m := t.re.FindStringSubmatch(desc)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if n := utf8.RuneCountInString(candidate); n > 10 && n < 80 {
			return candidate, true
		}
	}
	return "", false
}

func (o override) apply(pageURL string, fields event.Fields) (string, bool) {
	title, _ := fields.Get(event.FieldTitle)
	if o.URLContains != "" && !strings.Contains(strings.ToLower(pageURL), strings.ToLower(o.URLContains)) {
		return "", false
	}
	if o.TitleEquals != "" && title != o.TitleEquals {
		return "", false
	}
	if o.PresentedByEquals != "" {
		if presenter, _ := fields.Get(event.FieldPresentedBy); presenter != o.PresentedByEquals {
			return "", false
		}
	}
	if o.pattern == nil {
		return o.Title, o.Title != ""
	}
	if desc, ok := fields.Get(event.FieldDescription); ok && o.pattern.MatchString(desc) {
		return o.Title, o.Title != ""
	}
	return o.Fallback, o.Fallback != ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
