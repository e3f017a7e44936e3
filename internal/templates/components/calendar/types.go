package calendar

import (
	"fmt"
	"strconv"

	cal "github.com/codr1/Courtside/internal/calendar"
)

func idAttr(id int64) string {
	return strconv.FormatInt(id, 10)
}

func hourAttr(hour int) string {
	return strconv.Itoa(hour)
}

func bookingLabel(booking *cal.Booking) string {
	if booking.Blocked {
		return "Blocked"
	}
	return booking.ClientName
}

func priceLabel(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// offsetAttr is how far through the hour the marker sits, 0 to 1.
func offsetAttr(live *cal.LiveIndicator) string {
	return strconv.FormatFloat(live.Fraction, 'f', 4, 64)
}

func liveLabel(live *cal.LiveIndicator) string {
	return fmt.Sprintf("%02d:%02d", live.Hour, live.Minute)
}
