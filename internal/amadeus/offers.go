package amadeus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Result - итог одного поиска: Quote или Failure.
type Result interface {
	isResult()
}

// Quote - самое дешёвое предложение поиска.
type Quote struct {
	Price    decimal.Decimal
	Currency string
	Segments []Segment
}

// Failure - ответ, из которого не удалось получить Quote.
type Failure struct {
	Err error
}

func (Quote) isResult()   {}
func (Failure) isResult() {}

func (f Failure) Error() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

type Segment struct {
	Carrier   string
	Number    string
	From      string
	To        string
	Departure time.Time
	Arrival   time.Time
	Duration  time.Duration
	Stops     int
}

var ErrNoOffers = errors.New("no offers found")

// Amadeus отдаёт местное время аэропорта без зоны.
const localTimeLayout = "2006-01-02T15:04:05"

func parseOffers(body []byte, loc *time.Location) Result {
	if !gjson.ValidBytes(body) {
		return Failure{Err: errors.New("response is not valid JSON")}
	}

	offer := gjson.GetBytes(body, "data.0")
	if !offer.Exists() {
		return Failure{Err: ErrNoOffers}
	}

	total := offer.Get("price.total")
	if !total.Exists() {
		return Failure{Err: errors.New("offer has no price.total")}
	}
	price, err := decimal.NewFromString(total.String())
	if err != nil {
		return Failure{Err: fmt.Errorf("parse price %q: %w", total.String(), err)}
	}

	q := Quote{
		Price:    price,
		Currency: offer.Get("price.currency").String(),
	}

	for i, it := range offer.Get("itineraries").Array() {
		for j, seg := range it.Get("segments").Array() {
			s, err := parseSegment(seg, loc)
			if err != nil {
				return Failure{Err: fmt.Errorf("itinerary %d segment %d: %w", i+1, j+1, err)}
			}
			q.Segments = append(q.Segments, s)
		}
	}

	return q
}

func parseSegment(seg gjson.Result, loc *time.Location) (Segment, error) {
	for _, path := range []string{"carrierCode", "number", "departure.iataCode", "departure.at", "arrival.iataCode", "arrival.at"} {
		if !seg.Get(path).Exists() {
			return Segment{}, fmt.Errorf("missing %s", path)
		}
	}

	dep, err := time.ParseInLocation(localTimeLayout, seg.Get("departure.at").String(), loc)
	if err != nil {
		return Segment{}, fmt.Errorf("parse departure time: %w", err)
	}
	arr, err := time.ParseInLocation(localTimeLayout, seg.Get("arrival.at").String(), loc)
	if err != nil {
		return Segment{}, fmt.Errorf("parse arrival time: %w", err)
	}

	var dur time.Duration
	if d := seg.Get("duration"); d.Exists() {
		dur, err = parseISODuration(d.String())
		if err != nil {
			return Segment{}, err
		}
	} else {
		dur = arr.Sub(dep)
	}

	return Segment{
		Carrier:   seg.Get("carrierCode").String(),
		Number:    seg.Get("number").String(),
		From:      seg.Get("departure.iataCode").String(),
		To:        seg.Get("arrival.iataCode").String(),
		Departure: dep,
		Arrival:   arr,
		Duration:  dur,
		Stops:     int(seg.Get("numberOfStops").Int()),
	}, nil
}

// parseISODuration понимает только то, что шлёт Amadeus: PnDTnHnM.
func parseISODuration(s string) (time.Duration, error) {
	rest, ok := strings.CutPrefix(s, "P")
	if !ok {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var total time.Duration
	datePart, timePart, _ := strings.Cut(rest, "T")
	if datePart != "" {
		days, ok := strings.CutSuffix(datePart, "D")
		if !ok {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d, err := time.ParseDuration(days + "h")
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		total += d * 24
	}
	if timePart != "" {
		d, err := time.ParseDuration(strings.ToLower(timePart))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		total += d
	}

	return total, nil
}
