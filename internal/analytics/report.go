// Package analytics aggregates reservations into dashboard figures.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/schedule"
)

const dateLayout = "2006-01-02"

// MaxRangeDays bounds a report so a bad query cannot walk years of days.
const MaxRangeDays = 366

type Breakdown struct {
	Key          string `json:"key"`
	Label        string `json:"label,omitempty"`
	Bookings     int    `json:"bookings"`
	RevenueCents int64  `json:"revenueCents"`
}

type DayPoint struct {
	Date         string `json:"date"`
	Bookings     int    `json:"bookings"`
	RevenueCents int64  `json:"revenueCents"`
}

type Report struct {
	From             string      `json:"from"`
	To               string      `json:"to"`
	Bookings         int         `json:"bookings"`
	Cancellations    int         `json:"cancellations"`
	Blocked          int         `json:"blocked"`
	CancellationRate float64     `json:"cancellationRate"`
	RevenueCents     int64       `json:"revenueCents"`
	PaidCents        int64       `json:"paidCents"`
	UnpaidCents      int64       `json:"unpaidCents"`
	ByCourt          []Breakdown `json:"byCourt"`
	ByType           []Breakdown `json:"byType"`
	ByPaymentMethod  []Breakdown `json:"byPaymentMethod"`
	Daily            []DayPoint  `json:"daily"`
	BookedHours      float64     `json:"bookedHours"`
	OpenHours        int         `json:"openHours"`
	OccupancyRate    float64     `json:"occupancyRate"`
}

// Input is everything a report reads. From and To are calendar dates in the
// club location; both are inclusive.
type Input struct {
	From         time.Time
	To           time.Time
	Reservations []models.Reservation
	Courts       []models.Court
	Weekly       models.WeeklySchedule
	Resolver     schedule.Resolver
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Summarize builds the report. Revenue and booking counts only include
// reservations that are neither cancelled nor blocked.
func Summarize(in Input) (Report, error) {
	from := dayStart(in.From)
	to := dayStart(in.To.In(from.Location()))
	if to.Before(from) {
		return Report{}, fmt.Errorf("range end %s is before start %s", to.Format(dateLayout), from.Format(dateLayout))
	}
	end := to.AddDate(0, 0, 1)
	if days := int(end.Sub(from).Hours()/24 + 0.5); days > MaxRangeDays {
		return Report{}, fmt.Errorf("range of %d days exceeds %d", days, MaxRangeDays)
	}

	report := Report{From: from.Format(dateLayout), To: to.Format(dateLayout)}

	courtNames := make(map[int64]string, len(in.Courts))
	for _, court := range in.Courts {
		courtNames[court.ID] = court.Name
	}

	daily := make(map[string]*DayPoint)
	var order []string
	for day := from; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		daily[key] = &DayPoint{Date: key}
		order = append(order, key)
		report.OpenHours += in.Resolver.OpenHours(day, in.Weekly) * len(in.Courts)
	}

	byCourt := make(map[string]*Breakdown)
	byType := make(map[string]*Breakdown)
	byMethod := make(map[string]*Breakdown)
	add := func(into map[string]*Breakdown, key, label string, cents int64) {
		entry, ok := into[key]
		if !ok {
			entry = &Breakdown{Key: key, Label: label}
			into[key] = entry
		}
		entry.Bookings++
		entry.RevenueCents += cents
	}

	for _, reservation := range in.Reservations {
		start := reservation.Start.In(from.Location())
		if start.Before(from) || !start.Before(end) {
			continue
		}
		switch reservation.Status {
		case models.StatusCancelled:
			report.Cancellations++
			continue
		case models.StatusBlocked:
			report.Blocked++
			continue
		}

		report.Bookings++
		report.RevenueCents += reservation.PriceCents
		if reservation.Paid {
			report.PaidCents += reservation.PriceCents
		} else {
			report.UnpaidCents += reservation.PriceCents
		}
		report.BookedHours += reservation.Duration().Hours()

		courtKey := fmt.Sprintf("%d", reservation.CourtID)
		add(byCourt, courtKey, courtNames[reservation.CourtID], reservation.PriceCents)
		add(byType, string(reservation.Type), "", reservation.PriceCents)
		add(byMethod, string(reservation.PaymentMethod), "", reservation.PriceCents)

		point := daily[start.Format(dateLayout)]
		point.Bookings++
		point.RevenueCents += reservation.PriceCents
	}

	if total := report.Bookings + report.Cancellations; total > 0 {
		report.CancellationRate = float64(report.Cancellations) / float64(total)
	}
	if report.OpenHours > 0 {
		report.OccupancyRate = report.BookedHours / float64(report.OpenHours)
	}

	report.ByCourt = sorted(byCourt)
	report.ByType = sorted(byType)
	report.ByPaymentMethod = sorted(byMethod)
	report.Daily = make([]DayPoint, 0, len(order))
	for _, key := range order {
		report.Daily = append(report.Daily, *daily[key])
	}
	return report, nil
}

// sorted orders breakdowns by revenue, then bookings, then key.
func sorted(entries map[string]*Breakdown) []Breakdown {
	result := make([]Breakdown, 0, len(entries))
	for _, entry := range entries {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RevenueCents != result[j].RevenueCents {
			return result[i].RevenueCents > result[j].RevenueCents
		}
		if result[i].Bookings != result[j].Bookings {
			return result[i].Bookings > result[j].Bookings
		}
		return result[i].Key < result[j].Key
	})
	return result
}
