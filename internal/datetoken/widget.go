package datetoken

import (
	"time"

	"github.com/goodsign/monday"
)

const (
	renderDateLayout = "2006-01-02"
	renderTimeLayout = "3:04pm"
	invalidDate      = "Invalid date"
)

// Widget is the compact "date + time" rendering that replaces a token.
type Widget struct {
	Label string    `json:"label,omitempty"`
	Date  time.Time `json:"date"`
	Valid bool      `json:"valid"`
}

// Equal reports whether two widgets render the same token. Invalid dates are
// never equal, so they are always re-rendered.
func (w Widget) Equal(o Widget) bool {
	return w.Label == o.Label && w.Valid && o.Valid && w.Date.Equal(o.Date)
}

// Rendered is the text a view shows for a widget.
type Rendered struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Render formats the widget for locale.
func (w Widget) Render(locale monday.Locale) Rendered {
	if !w.Valid {
		return Rendered{Date: invalidDate, Time: invalidDate}
	}
	return Rendered{
		Date: monday.Format(w.Date, renderDateLayout, locale),
		Time: monday.Format(w.Date, renderTimeLayout, locale),
	}
}
