// Package schedule decides whether a club hour falls inside the weekly
// opening schedule.
package schedule

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/codr1/Courtside/internal/models"
)

type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocaleSpanish    Locale = "es"
	LocalePortuguese Locale = "pt"
	LocaleFrench     Locale = "fr"
	LocaleItalian    Locale = "it"
	LocaleGerman     Locale = "de"
)

const (
	defaultOpenHour  = 8
	defaultCloseHour = 23
)

// Weekday names indexed by time.Weekday, as each locale writes them in running text.
var weekdayNames = map[Locale][7]string{
	LocaleEnglish:    {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	LocaleSpanish:    {"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	LocalePortuguese: {"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"},
	LocaleFrench:     {"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
	LocaleItalian:    {"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"},
	LocaleGerman:     {"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
}

// ParseLocale accepts a bare language code or a tag such as "es-AR".
func ParseLocale(raw string) (Locale, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return LocaleEnglish, nil
	}
	if idx := strings.IndexAny(raw, "-_"); idx > 0 {
		raw = raw[:idx]
	}
	locale := Locale(raw)
	if _, ok := weekdayNames[locale]; !ok {
		return "", fmt.Errorf("unsupported locale %q", raw)
	}
	return locale, nil
}

func (l Locale) names() [7]string {
	if names, ok := weekdayNames[l]; ok {
		return names
	}
	return weekdayNames[LocaleEnglish]
}

// WeekdayLabel returns the schedule label for day: the locale's weekday name
// with its first letter upper-cased.
func (l Locale) WeekdayLabel(day time.Weekday) string {
	return capitalize(l.names()[day])
}

// Labels returns the seven weekday labels starting with Monday.
func (l Locale) Labels() []string {
	labels := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		labels = append(labels, l.WeekdayLabel(time.Weekday(i%7)))
	}
	return labels
}

// Defaults is the schedule seeded when a club has none stored.
func Defaults(locale Locale) models.WeeklySchedule {
	labels := locale.Labels()
	weekly := make(models.WeeklySchedule, 0, len(labels))
	for _, label := range labels {
		weekly = append(weekly, models.DaySchedule{
			Day:       label,
			Open:      true,
			StartHour: defaultOpenHour,
			EndHour:   defaultCloseHour,
		})
	}
	return weekly
}

type Resolver struct {
	Locale Locale
}

func NewResolver(locale Locale) Resolver {
	return Resolver{Locale: locale}
}

func (r Resolver) WeekdayLabel(date time.Time) string {
	return r.Locale.WeekdayLabel(date.Weekday())
}

// Hours returns the schedule entry governing date. Missing entries report false.
func (r Resolver) Hours(date time.Time, weekly models.WeeklySchedule) (models.DaySchedule, bool) {
	return weekly.Lookup(r.WeekdayLabel(date))
}

// IsOpen reports whether hour on date is inside operating hours. A missing or
// closed entry is treated as closed; otherwise start <= hour < end.
func (r Resolver) IsOpen(date time.Time, hour int, weekly models.WeeklySchedule) bool {
	entry, ok := r.Hours(date, weekly)
	if !ok || !entry.Open {
		return false
	}
	return entry.StartHour <= hour && hour < entry.EndHour
}

// OpenHours counts the open hours on date.
func (r Resolver) OpenHours(date time.Time, weekly models.WeeklySchedule) int {
	entry, ok := r.Hours(date, weekly)
	if !ok || !entry.Open || entry.EndHour <= entry.StartHour {
		return 0
	}
	return entry.EndHour - entry.StartHour
}

func capitalize(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}
