package utils

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

// suffixMIC maps exchange suffixes (BMW.DE, 7203.T) to ISO 10383 MIC codes.
// Symbols without a known suffix trade on NYSE hours.
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

const defaultMIC = "xnys"

// TradingCalendar answers whether an exchange is open, using scmhub/calendar
// or a Mon-Fri 09:30-16:00 New York fallback when the calendar is missing.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

var (
	calendarsMu sync.Mutex
	calendars   = make(map[string]*TradingCalendar)
)

// -----------------------------------------------------------------------------

// MICForSymbol returns the exchange code for a symbol's suffix.
func MICForSymbol(symbol string) string {
	dot := strings.LastIndex(symbol, ".")
	if dot <= 0 {
		return defaultMIC
	}
	if mic, ok := suffixMIC[strings.ToUpper(symbol[dot:])]; ok {
		return mic
	}
	return defaultMIC
}

// -----------------------------------------------------------------------------

// GetCalendar returns the cached calendar for the symbol's exchange.
func GetCalendar(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	calendarsMu.Lock()
	defer calendarsMu.Unlock()

	if tc, ok := calendars[mic]; ok {
		return tc
	}

	tc := loadCalendar(mic)
	calendars[mic] = tc
	return tc
}

func loadCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar(defaultMIC)
	}
	if cal != nil {
		return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
	}

	nyLoc, err := time.LoadLocation("America/New_York")
	if err != nil {
		nyLoc = time.UTC
	}
	return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpen checks if the market is open at t.
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}
	if !tc.Fallback {
		return tc.Calendar.IsOpen(t)
	}
	if !tc.IsTradingDay(t) {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}
