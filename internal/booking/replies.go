package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/support-ai-platform/internal/tenant"
)

const (
	dayLayout  = "Monday, January 2"
	timeLayout = "3:04 PM"
)

func confirmedReply(service string, at time.Time) string {
	return fmt.Sprintf("You're booked! Your %s appointment is confirmed for %s at %s.",
		service, at.Format(dayLayout), at.Format(timeLayout))
}

func outsideHoursReply(hours tenant.BusinessHours) string {
	return fmt.Sprintf("Sorry, we only take appointments between %s and %s. Please pick a time within our business hours.",
		hourLabel(hours.Open), hourLabel(hours.Close))
}

func slotTakenReply(requested time.Time, slots []time.Time) string {
	taken := fmt.Sprintf("Sorry, %s on %s is already booked.", requested.Format(timeLayout), requested.Format(dayLayout))
	if len(slots) == 0 {
		return taken + " We have no other availability that day. Please try another day."
	}
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Format(timeLayout)
	}
	return fmt.Sprintf("%s Available times that day: %s.", taken, strings.Join(labels, ", "))
}

func hourLabel(hour int) string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hour) * time.Hour).Format(timeLayout)
}
