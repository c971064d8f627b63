package report

import (
	"fmt"
	"strings"
	"time"

	"flightwatch/internal/amadeus"
	"flightwatch/internal/history"
)

const timestampLayout = "2006-01-02 15:04"

var currencySymbols = map[string]string{
	"":    "€",
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"PLN": "zł",
}

// Format собирает историю в одно сообщение, от старых записей к новым.
func Format(entries []history.Entry, loc *time.Location) string {
	if len(entries) == 0 {
		return "✈️ Flight prices\n\nNo price checks recorded yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✈️ Flight prices (last %d checks)\n", len(entries))

	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(EntryLine(e, loc))
		for _, d := range e.Details {
			b.WriteString("\n   ")
			b.WriteString(d)
		}
	}

	return b.String()
}

func EntryLine(e history.Entry, loc *time.Location) string {
	ts := e.Timestamp
	if loc != nil {
		ts = ts.In(loc)
	}
	return fmt.Sprintf("🕒 %s | %s | %s | %s", ts.Format(timestampLayout), e.RouteName, e.Date, Price(e))
}

func Price(e history.Entry) string {
	if !e.HasPrice() {
		return "no price"
	}
	sym, ok := currencySymbols[e.Currency]
	if !ok {
		sym = e.Currency
	}
	return e.Price.Decimal.StringFixed(2) + " " + sym
}

// SegmentLine описывает один перелёт, например
// "LO433 WAW 06:55 → BCN 10:00 · 3h05m · direct".
func SegmentLine(s amadeus.Segment) string {
	return fmt.Sprintf("%s%s %s %s → %s %s · %s · %s",
		s.Carrier, s.Number,
		s.From, s.Departure.Format("15:04"),
		s.To, s.Arrival.Format("15:04"),
		duration(s.Duration), stops(s.Stops))
}

func ErrorLine(err error) string {
	return "⚠️ error: " + err.Error()
}

func duration(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func stops(n int) string {
	switch n {
	case 0:
		return "direct"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}
