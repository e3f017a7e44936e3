package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

// ReservationDetails is what the client-facing messages show.
type ReservationDetails struct {
	ClubName   string
	ClientName string
	Court      string
	Date       string
	TimeRange  string
	Price      string
	Notes      string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04"))
	return date, timeRange
}

// FormatPrice renders cents with two decimals and no currency symbol.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func detailLines(details ReservationDetails) []string {
	lines := []string{
		fmt.Sprintf("Club: %s", orDefault(details.ClubName, "your club")),
		fmt.Sprintf("Court: %s", orDefault(details.Court, "TBD")),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.TimeRange, "TBD")),
	}
	if price := strings.TrimSpace(details.Price); price != "" {
		lines = append(lines, fmt.Sprintf("Price: %s", price))
	}
	return lines
}

func subjectFor(prefix, clubName string) string {
	clubName = strings.TrimSpace(clubName)
	if clubName == "" {
		return prefix
	}
	return fmt.Sprintf("%s - %s", prefix, clubName)
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

func BuildConfirmationEmail(details ReservationDetails) Message {
	lines := []string{
		greeting(details.ClientName),
		"",
		"Your court booking is confirmed.",
		"",
	}
	lines = append(lines, detailLines(details)...)
	if notes := strings.TrimSpace(details.Notes); notes != "" {
		lines = append(lines, fmt.Sprintf("Notes: %s", notes))
	}

	return Message{
		Subject: subjectFor("Booking Confirmed", details.ClubName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildUpdateEmail(details ReservationDetails) Message {
	lines := []string{
		greeting(details.ClientName),
		"",
		"Your court booking has changed. The current details are:",
		"",
	}
	lines = append(lines, detailLines(details)...)

	return Message{
		Subject: subjectFor("Booking Updated", details.ClubName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildCancellationEmail(details ReservationDetails, reason string) Message {
	lines := []string{
		greeting(details.ClientName),
		"",
		"Your court booking has been cancelled.",
		"",
	}
	lines = append(lines, detailLines(details)...)
	if reason = strings.TrimSpace(reason); reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}

	return Message{
		Subject: subjectFor("Booking Cancelled", details.ClubName),
		Body:    strings.Join(lines, "\n"),
	}
}
