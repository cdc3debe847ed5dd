package models

import (
	"fmt"
	"strings"
)

// Configuration describes how a pixel is initialised.
type Configuration struct {
	// Whether to start tracking immediately. Omitted means false.
	Enabled bool `json:"enabled,omitempty"`
	// Identifier issued by the tracking backend for the destination account.
	PixelID string `json:"pixelId"`
}

func (c Configuration) Validate() error {
	if strings.TrimSpace(c.PixelID) == "" {
		return ErrMissingPixelID
	}
	return nil
}

// EventMeta is attached to a single event occurrence, independent of its
// business properties.
type EventMeta struct {
	// EventID lets the backend merge the same logical event reported through
	// several channels. Callers own its uniqueness.
	EventID string `json:"eventID,omitempty"`
}

// EventName is one of the standard events recognised by the backend.
type EventName string

const (
	EventAddPaymentInfo       EventName = "AddPaymentInfo"
	EventAddToCart            EventName = "AddToCart"
	EventAddToWishlist        EventName = "AddToWishlist"
	EventCompleteRegistration EventName = "CompleteRegistration"
	EventContact              EventName = "Contact"
	EventCustomizeProduct     EventName = "CustomizeProduct"
	EventDonate               EventName = "Donate"
	EventFindLocation         EventName = "FindLocation"
	EventInitiateCheckout     EventName = "InitiateCheckout"
	EventLead                 EventName = "Lead"
	EventPageView             EventName = "PageView"
	EventPurchase             EventName = "Purchase"
	EventSchedule             EventName = "Schedule"
	EventSearch               EventName = "Search"
	EventStartTrial           EventName = "StartTrial"
	EventSubmitApplication    EventName = "SubmitApplication"
	EventSubscribe            EventName = "Subscribe"
	EventViewContent          EventName = "ViewContent"
)

var standardEventNames = []EventName{
	EventAddPaymentInfo,
	EventAddToCart,
	EventAddToWishlist,
	EventCompleteRegistration,
	EventContact,
	EventCustomizeProduct,
	EventDonate,
	EventFindLocation,
	EventInitiateCheckout,
	EventLead,
	EventPageView,
	EventPurchase,
	EventSchedule,
	EventSearch,
	EventStartTrial,
	EventSubmitApplication,
	EventSubscribe,
	EventViewContent,
}

var eventNameSet = func() map[EventName]struct{} {
	m := make(map[EventName]struct{}, len(standardEventNames))
	for _, n := range standardEventNames {
		m[n] = struct{}{}
	}
	return m
}()

// StandardEventNames returns the closed vocabulary in declaration order.
func StandardEventNames() []EventName {
	out := make([]EventName, len(standardEventNames))
	copy(out, standardEventNames)
	return out
}

func (n EventName) IsValid() bool {
	_, ok := eventNameSet[n]
	return ok
}

func (n EventName) String() string { return string(n) }

func ParseEventName(s string) (EventName, error) {
	n := EventName(s)
	if !n.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventName, s)
	}
	return n, nil
}

func (n *EventName) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, n, ParseEventName)
}
