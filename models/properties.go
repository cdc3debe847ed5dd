package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Currency is the currency for a monetary value. Only codes accepted by the
// backend are representable.
type Currency string

var currencyCodes = []Currency{
	"AED", "ARS", "AUD",
	"BDT", "BOB", "BRL",
	"CAD", "CHF", "CLP", "CNY", "COP", "CRC", "CZK",
	"DKK", "DZD",
	"EGP", "EUR",
	"GBP", "GTQ",
	"HKD", "HNL", "HUF",
	"IDR", "ILS", "INR", "ISK",
	"JPY",
	"KES", "KRW",
	"MOP", "MXN", "MYR",
	"NGN", "NIO", "NOK", "NZD",
	"PEN", "PHP", "PKR", "PLN", "PYG",
	"QAR",
	"RON", "RUB",
	"SAR", "SEK", "SGD",
	"THB", "TRY", "TWD",
	"USD", "UYU",
	"VEF", "VND",
	"ZAR",
}

var currencySet = func() map[Currency]struct{} {
	m := make(map[Currency]struct{}, len(currencyCodes))
	for _, c := range currencyCodes {
		m[c] = struct{}{}
	}
	return m
}()

// Currencies returns every recognised currency code.
func Currencies() []Currency {
	out := make([]Currency, len(currencyCodes))
	copy(out, currencyCodes)
	return out
}

func (c Currency) IsValid() bool {
	_, ok := currencySet[c]
	return ok
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedCurrency, s)
	}
	return c, nil
}

func (c *Currency) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, c, ParseCurrency)
}

// ContentType says what kind of ids content_ids / contents carry.
type ContentType string

const (
	ContentTypeProduct      ContentType = "product"
	ContentTypeProductGroup ContentType = "product_group"
	ContentTypeFlight       ContentType = "flight"
)

func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeProduct, ContentTypeProductGroup, ContentTypeFlight:
		return true
	}
	return false
}

func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
	}
	return t, nil
}

func (t *ContentType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, t, ParseContentType)
}

type TravelClass string

const (
	TravelClassEconomy  TravelClass = "economy"
	TravelClassPremium  TravelClass = "premium"
	TravelClassBusiness TravelClass = "business"
	TravelClassFirst    TravelClass = "first"
)

func (c TravelClass) IsValid() bool {
	switch c {
	case TravelClassEconomy, TravelClassPremium, TravelClassBusiness, TravelClassFirst:
		return true
	}
	return false
}

func ParseTravelClass(s string) (TravelClass, error) {
	c := TravelClass(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTravelClass, s)
	}
	return c, nil
}

func (c *TravelClass) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, c, ParseTravelClass)
}

var jsonNull = []byte("null")

// unmarshalEnum leaves dst untouched on null, so an unset optional field
// can be sent either way.
func unmarshalEnum[T ~string](data []byte, dst *T, parse func(string) (T, error)) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// EventProperties is the optional bag of business attributes sent with an
// event. Every field is optional and no cross-field rule is enforced: a
// value without a currency, or flight fields next to commerce fields, are
// both accepted.
type EventProperties struct {
	// Category of the page/product.
	ContentCategory string `json:"content_category,omitempty"`
	// Product ids such as SKUs, all strings or all numbers.
	ContentIDs *ContentIDs `json:"content_ids,omitempty"`
	// Name of the page/product.
	ContentName string      `json:"content_name,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`
	// Line items, each with at least an id and a quantity.
	Contents []Content `json:"contents,omitempty"`
	// Used with InitiateCheckout.
	NumItems *int `json:"num_items,omitempty"`
	// Predicted lifetime value of a subscriber.
	PredictedLTV *float64 `json:"predicted_ltv,omitempty"`
	// Used with Search.
	SearchString string `json:"search_string,omitempty"`
	// Used with CompleteRegistration.
	Status   *bool    `json:"status,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Currency Currency `json:"currency,omitempty"`

	// Dates accept YYYYMMDD, YYYY-MM-DD, YYYY-MM-DDThh:mmTZD or
	// YYYY-MM-DDThh:mm:ssTZD and are not checked.
	DepartingDepartureDate string `json:"departing_departure_date,omitempty"`
	ReturningDepartureDate string `json:"returning_departure_date,omitempty"`
	// IATA codes, not enforced.
	OriginAirport        string      `json:"origin_airport,omitempty"`
	DestinationAirport   string      `json:"destination_airport,omitempty"`
	DepartingArrivalDate string      `json:"departing_arrival_date,omitempty"`
	ReturningArrivalDate string      `json:"returning_arrival_date,omitempty"`
	NumAdults            *int        `json:"num_adults,omitempty"`
	NumChildren          *int        `json:"num_children,omitempty"`
	NumInfants           *int        `json:"num_infants,omitempty"`
	TravelClass          TravelClass `json:"travel_class,omitempty"`
	// Lowest price shown, without extras.
	Price             *float64 `json:"price,omitempty"`
	PreferredNumStops *int     `json:"preferred_num_stops,omitempty"`
}

// Validate checks the closed enumerations and the contents entries of
// properties built in code. Decoding from JSON already rejects unknown enum
// values.
func (p *EventProperties) Validate() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Currency != "" && !p.Currency.IsValid() {
		errs = append(errs, fieldErr("currency", fmt.Errorf("%w: %q", ErrUnrecognizedCurrency, p.Currency)))
	}
	if p.ContentType != "" && !p.ContentType.IsValid() {
		errs = append(errs, fieldErr("content_type", fmt.Errorf("%w: %q", ErrUnknownContentType, p.ContentType)))
	}
	if p.TravelClass != "" && !p.TravelClass.IsValid() {
		errs = append(errs, fieldErr("travel_class", fmt.Errorf("%w: %q", ErrUnknownTravelClass, p.TravelClass)))
	}
	for i, c := range p.Contents {
		if err := c.Validate(); err != nil {
			errs = append(errs, fieldErr(fmt.Sprintf("contents[%d]", i), err))
		}
	}
	return errors.Join(errs...)
}

// HasFlightDetails reports whether any flight-booking field is set.
func (p *EventProperties) HasFlightDetails() bool {
	if p == nil {
		return false
	}
	return p.OriginAirport != "" || p.DestinationAirport != "" ||
		p.DepartingDepartureDate != "" || p.ReturningDepartureDate != "" ||
		p.TravelClass != ""
}

func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

func Bool(v bool) *bool { return &v }
