// Package model contains the domain models passed between pipeline stages.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// EventTime is a capture timestamp exactly as the device reported it:
// epoch milliseconds or a date string. The zero value means absent.
type EventTime struct {
	Millis  int64
	Text    string
	Numeric bool
}

// Millis returns a numeric EventTime.
func Millis(ms int64) *EventTime {
	return &EventTime{Millis: ms, Numeric: true}
}

// UnmarshalJSON accepts numbers and strings. Anything else leaves the value
// absent instead of failing the surrounding record.
func (t *EventTime) UnmarshalJSON(b []byte) error {
	*t = EventTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			t.Text = s
		}
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil && inInt64Range(f) {
		t.Millis = int64(f)
		t.Numeric = true
	}
	return nil
}

// inInt64Range reports whether f converts to int64 without overflow.
func inInt64Range(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

// MarshalJSON writes the timestamp back in its original flavour.
func (t EventTime) MarshalJSON() ([]byte, error) {
	switch {
	case t.Numeric:
		return []byte(strconv.FormatInt(t.Millis, 10)), nil
	case t.Text != "":
		return json.Marshal(t.Text)
	default:
		return []byte("null"), nil
	}
}

// Coord is one bounds coordinate. Valid is false when the value was
// missing or not a number.
type Coord struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never fails; non-numeric input yields an invalid Coord.
func (c *Coord) UnmarshalJSON(b []byte) error {
	*c = Coord{}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		c.Value, c.Valid = f, true
	}
	return nil
}

// MarshalJSON writes null for invalid coordinates.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// RawBounds is the screen rectangle as captured.
type RawBounds struct {
	Left   Coord `json:"left"`
	Top    Coord `json:"top"`
	Right  Coord `json:"right"`
	Bottom Coord `json:"bottom"`
}

// Element describes the UI node that produced a raw event.
type Element struct {
	ClassName   string     `json:"className,omitempty"`
	ID          string     `json:"id,omitempty"`
	Text        string     `json:"text,omitempty"`
	Description string     `json:"description,omitempty"`
	Bounds      *RawBounds `json:"bounds,omitempty"`
}

// ProductHints are the cart detector's guesses attached to a raw event.
type ProductHints struct {
	ProductName string   `json:"productName,omitempty"`
	Price       string   `json:"price,omitempty"`
	CartAction  string   `json:"cartAction,omitempty"`
	AllTexts    []string `json:"allTexts,omitempty"`
}

// RawEvent is one captured accessibility event. Only RawKind is expected;
// everything else may be absent.
type RawEvent struct {
	Timestamp     *EventTime    `json:"timestamp,omitempty"`
	SourceApp     string        `json:"sourceApp,omitempty"`
	RawKind       string        `json:"rawKind"`
	Activity      string        `json:"activity,omitempty"`
	Element       *Element      `json:"element,omitempty"`
	ProductHints  *ProductHints `json:"productHints,omitempty"`
	ScrollContext string        `json:"scrollContext,omitempty"`
}

// Widget is the normalized view of the originating UI node.
type Widget struct {
	ClassName   string `json:"className"`
	ID          string `json:"id"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// Bounds is a validated screen rectangle.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Point is a screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProductGuess pairs a product title with a price token when either was seen.
type ProductGuess struct {
	Title string `json:"title,omitempty"`
	Price string `json:"price,omitempty"`
}

// Context carries best-effort surroundings of an event.
type Context struct {
	ScreenGuess  Category      `json:"screenGuess,omitempty"`
	ProductGuess *ProductGuess `json:"productGuess,omitempty"`
	Container    string        `json:"container,omitempty"`
}

// NormalizedEvent is the canonical event shape every later stage works on.
type NormalizedEvent struct {
	TS               int64    `json:"ts"`
	SourceApp        string   `json:"sourceApp"`
	ScreenOrActivity string   `json:"screenOrActivity"`
	RawKind          string   `json:"rawKind"`
	Widget           Widget   `json:"widget"`
	Bounds           *Bounds  `json:"bounds"`
	ApproxCenter     *Point   `json:"approxCenter"`
	Context          Context  `json:"context"`
	Texts            []string `json:"texts,omitempty"`
	Category         Category `json:"category"`
	Confidence       float64  `json:"confidence"`
	Evidence         []string `json:"evidence"`
	WasInferred      bool     `json:"wasInferred"`
}

// HasEvidence reports whether tag was recorded for the event.
func (e *NormalizedEvent) HasEvidence(tag string) bool {
	for _, t := range e.Evidence {
		if t == tag {
			return true
		}
	}
	return false
}

// Canonical raw kinds.
const (
	KindClick          = "click"
	KindScroll         = "scroll"
	KindContentChanged = "content-changed"
	KindTextChanged    = "text-changed"
	KindWindowChanged  = "window-changed"
	KindAddToCart      = "add-to-cart"
	KindViewed         = "viewed"
)

// Evidence tags shared by the categorizer, the scorer and the report.
const (
	EvidenceRawPrefix    = "raw_event:"
	EvidenceScreenPrefix = "screen_context:"
	EvidencePrice        = "price_present"
	EvidenceTextMatch    = "text_match"
	EvidenceStableID     = "id_present"
	EvidenceWebSurface   = "web_surface"
	EvidenceProductGuess = "product_guess"
)
