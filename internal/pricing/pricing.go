package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDailyRate = errors.New("invalid daily rate")

const day = 24 * time.Hour

type Quote struct {
	Days      int     `json:"totalDays"`
	Total     float64 `json:"totalAmount"`
	Signal    float64 `json:"depositAmount"`
	Remainder float64 `json:"remainingAmount"`
}

type Calculator struct {
	depositRate float64
	roundTo     float64
	loc         *time.Location
}

type Option func(*Calculator)

func WithDepositRate(rate float64) Option {
	return func(c *Calculator) {
		c.depositRate = rate
	}
}

// WithRoundTo sets the step the deposit is rounded to.
func WithRoundTo(step float64) Option {
	return func(c *Calculator) {
		c.roundTo = step
	}
}

// WithLocation sets the zone whose midnights bound a rental day.
func WithLocation(loc *time.Location) Option {
	return func(c *Calculator) {
		c.loc = loc
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{depositRate: 0.30, roundTo: 10, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseDailyRate accepts a decimal with either '.' or ',' as separator.
func ParseDailyRate(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDailyRate, raw)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDailyRate, raw)
	}
	return rate, nil
}

func (c *Calculator) Compute(entry, ret time.Time, dailyRate string) (Quote, error) {
	rate, err := ParseDailyRate(dailyRate)
	if err != nil {
		return Quote{}, err
	}
	return c.ComputeRate(entry, ret, rate), nil
}

// ComputeRate bills every calendar day touched by the trip, entry and return
// day included. Reversed dates are counted by absolute distance.
func (c *Calculator) ComputeRate(entry, ret time.Time, rate float64) Quote {
	days := c.Days(entry, ret)
	total := rate * float64(days)
	signal := c.roundHalfUp(total * c.depositRate)

	return Quote{
		Days:      days,
		Total:     total,
		Signal:    signal,
		Remainder: total - signal,
	}
}

// Days differences real elapsed time between the two local midnights, so a
// span crossing a DST change still rounds up to whole days.
func (c *Calculator) Days(entry, ret time.Time) int {
	start := c.midnight(entry)
	end := c.midnight(ret)

	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff)/float64(day))) + 1
}

func (c *Calculator) midnight(t time.Time) time.Time {
	t = t.In(c.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

func (c *Calculator) roundHalfUp(v float64) float64 {
	return math.Floor(v/c.roundTo+0.5) * c.roundTo
}
