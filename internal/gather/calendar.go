package gather

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

// calendarAPI is the slice of the Alpaca trading client the calendar helper
// depends on.
type calendarAPI interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

// sessionSettled is the ET wall-clock time after which the current session's
// daily bar is considered final (extended hours plus settling slack).
var sessionSettled = 20*time.Hour + 5*time.Minute

// LatestFinishedTradingDay returns the most recent trading day whose session
// has ended, per the Alpaca trading calendar. It is the natural end date for
// a daily-bar backfill.
func LatestFinishedTradingDay(apiKey, apiSecret, baseURL string) (time.Time, error) {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})
	return latestFinishedTradingDay(client, time.Now())
}

func latestFinishedTradingDay(client calendarAPI, now time.Time) (time.Time, error) {
	et, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("loading ET timezone: %w", err)
	}
	now = now.In(et)

	days, err := client.GetCalendar(alpaca.GetCalendarRequest{
		Start: now.AddDate(0, 0, -7),
		End:   now,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("GetCalendar: %w", err)
	}
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("no trading days returned from calendar")
	}

	today := now.Format("2006-01-02")
	settled := now.Sub(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, et)) > sessionSettled

	for i := len(days) - 1; i >= 0; i-- {
		d, err := time.Parse("2006-01-02", days[i].Date)
		if err != nil {
			continue
		}
		if days[i].Date == today {
			if settled {
				return d, nil
			}
			continue
		}
		if d.Before(now) {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("no finished trading day in calendar window")
}
