package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ContentIDs holds either string ids or numeric ids, never a mix of both.
type ContentIDs struct {
	strings []string
	numbers []float64
	numeric bool
}

func StringContentIDs(ids ...string) *ContentIDs {
	return &ContentIDs{strings: append([]string{}, ids...)}
}

func NumericContentIDs(ids ...float64) *ContentIDs {
	return &ContentIDs{numbers: append([]float64{}, ids...), numeric: true}
}

// IsNumeric reports which case the ids are in.
func (c *ContentIDs) IsNumeric() bool { return c != nil && c.numeric }

func (c *ContentIDs) Len() int {
	if c == nil {
		return 0
	}
	if c.numeric {
		return len(c.numbers)
	}
	return len(c.strings)
}

// Strings returns the string ids, or nil for numeric ids.
func (c *ContentIDs) Strings() []string {
	if c == nil || c.numeric {
		return nil
	}
	return c.strings
}

// Numbers returns the numeric ids, or nil for string ids.
func (c *ContentIDs) Numbers() []float64 {
	if c == nil || !c.numeric {
		return nil
	}
	return c.numbers
}

// Keys renders every id as a string, whichever case it is in.
func (c *ContentIDs) Keys() []string {
	if c == nil {
		return nil
	}
	if !c.numeric {
		return append([]string{}, c.strings...)
	}
	out := make([]string, len(c.numbers))
	for i, n := range c.numbers {
		out[i] = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return out
}

func (c ContentIDs) MarshalJSON() ([]byte, error) {
	if c.numeric {
		if c.numbers == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.numbers)
	}
	if c.strings == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.strings)
}

func (c *ContentIDs) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("content_ids: %w", err)
	}
	var strs []string
	var nums []float64
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			return fmt.Errorf("content_ids[%d]: %w", i, ErrInvalidContentID)
		}
		switch item[0] {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return fmt.Errorf("content_ids[%d]: %w", i, err)
			}
			strs = append(strs, s)
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			var n float64
			if err := json.Unmarshal(item, &n); err != nil {
				return fmt.Errorf("content_ids[%d]: %w", i, err)
			}
			nums = append(nums, n)
		default:
			return fmt.Errorf("content_ids[%d]: %w", i, ErrInvalidContentID)
		}
		if len(strs) > 0 && len(nums) > 0 {
			return ErrMixedContentIDs
		}
	}
	if len(nums) > 0 {
		*c = ContentIDs{numbers: nums, numeric: true}
		return nil
	}
	if strs == nil {
		strs = []string{}
	}
	*c = ContentIDs{strings: strs}
	return nil
}

// Content is one line item. Only id and quantity are named; any other key
// is carried through Extra untouched.
type Content struct {
	ID       string
	Quantity int
	Extra    map[string]any
}

func (c Content) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidContent)
	}
	if c.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidContent)
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		m[k] = v
	}
	m["id"] = c.ID
	m["quantity"] = c.Quantity
	return json.Marshal(m)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("contents: %w", err)
	}

	var out Content
	switch id := m["id"].(type) {
	case nil:
	case string:
		out.ID = id
	case json.Number:
		out.ID = id.String()
	default:
		return fmt.Errorf("%w: id must be a string or number", ErrInvalidContent)
	}
	delete(m, "id")

	switch q := m["quantity"].(type) {
	case nil:
	case json.Number:
		n, err := quantityFromNumber(q)
		if err != nil {
			return err
		}
		out.Quantity = n
	default:
		return fmt.Errorf("%w: quantity must be a number", ErrInvalidContent)
	}
	delete(m, "quantity")

	if len(m) > 0 {
		out.Extra = m
	}
	*c = out
	return nil
}

// quantityFromNumber accepts any integral JSON number, so 2, 2.0 and 2e0
// are the same quantity.
func quantityFromNumber(q json.Number) (int, error) {
	if n, err := q.Int64(); err == nil {
		return int(n), nil
	}
	f, err := q.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: quantity must be an integer", ErrInvalidContent)
	}
	return int(f), nil
}
