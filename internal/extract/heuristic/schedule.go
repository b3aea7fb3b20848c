package heuristic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

func startFromTimeElement(doc *goquery.Document) (string, bool) {
	value, ok := doc.Find("time[datetime]").First().Attr("datetime")
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// timeFromElement reads an "H:MM - H:MM" range from the first time-styled
// element and zero-pads it.
func (e *Extractor) timeFromElement(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find(`.event-time, .event-date-time, [class*="time"], [class*="date-time"]`).First())
	if text == "" {
		return "", false
	}
	m := timeRangeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	start := clock(m[1], m[2], m[3], e.opts.ConvertMeridiem)
	end := clock(m[4], m[5], m[6], e.opts.ConvertMeridiem)
	return start + " - " + end, true
}

// clock formats hour and minute digits as HH:MM. The meridiem is only
// applied when convert is set.
func clock(hour, minute, meridiem string, convert bool) string {
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	if convert {
		switch strings.ToLower(meridiem) {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// dateFromElement reads a YYYY-MM-DD style date from the first date-styled
// element, skipping "updated"/"created" stamps.
func dateFromElement(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find(`.event-date, [class*="date"]:not([class*="update"]):not([class*="create"])`).First())
	if text == "" || !dateLikeRe.MatchString(text) {
		return "", false
	}
	m := isoDateRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
}
