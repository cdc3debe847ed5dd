package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIDsHomogeneous(t *testing.T) {
	var ids ContentIDs
	require.NoError(t, json.Unmarshal([]byte(`["A","B"]`), &ids))
	assert.False(t, ids.IsNumeric())
	assert.Equal(t, []string{"A", "B"}, ids.Strings())
	assert.Nil(t, ids.Numbers())

	require.NoError(t, json.Unmarshal([]byte(`[1, 2]`), &ids))
	assert.True(t, ids.IsNumeric())
	assert.Equal(t, []float64{1, 2}, ids.Numbers())
	assert.Equal(t, []string{"1", "2"}, ids.Keys())
	assert.Nil(t, ids.Strings())
}

func TestContentIDsRejectsMixed(t *testing.T) {
	var p EventProperties
	err := json.Unmarshal([]byte(`{"content_ids":["A", 2]}`), &p)
	assert.ErrorIs(t, err, ErrMixedContentIDs)

	err = json.Unmarshal([]byte(`{"content_ids":[3, "B"]}`), &p)
	assert.ErrorIs(t, err, ErrMixedContentIDs)
}

func TestContentIDsRejectsOtherElements(t *testing.T) {
	var ids ContentIDs
	for _, raw := range []string{`[true]`, `[null]`, `[{"id":"A"}]`, `[["A"]]`} {
		err := json.Unmarshal([]byte(raw), &ids)
		assert.ErrorIs(t, err, ErrInvalidContentID, raw)
	}
	assert.Error(t, json.Unmarshal([]byte(`"A"`), &ids))
}

func TestContentIDsEncoding(t *testing.T) {
	b, err := json.Marshal(StringContentIDs("ABC123", "XYZ789"))
	require.NoError(t, err)
	assert.JSONEq(t, `["ABC123","XYZ789"]`, string(b))

	b, err = json.Marshal(NumericContentIDs(101, 2.5))
	require.NoError(t, err)
	assert.JSONEq(t, `[101,2.5]`, string(b))

	b, err = json.Marshal(StringContentIDs())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	var empty ContentIDs
	require.NoError(t, json.Unmarshal([]byte(`[]`), &empty))
	assert.Equal(t, 0, empty.Len())
	b, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestContentIDsConstructorsCopy(t *testing.T) {
	src := []string{"A"}
	ids := StringContentIDs(src...)
	src[0] = "changed"
	assert.Equal(t, []string{"A"}, ids.Strings())

	var nilIDs *ContentIDs
	assert.Equal(t, 0, nilIDs.Len())
	assert.Nil(t, nilIDs.Keys())
}

func TestContentKeepsExtraFields(t *testing.T) {
	raw := `{"id":"ABC123","quantity":2,"item_price":19.99,"ean":"4006381333931"}`

	var c Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, "ABC123", c.ID)
	assert.Equal(t, 2, c.Quantity)
	assert.Equal(t, json.Number("19.99"), c.Extra["item_price"])
	assert.NoError(t, c.Validate())

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(b))
}

func TestContentNumericID(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`{"id":12345,"quantity":1}`), &c))
	assert.Equal(t, "12345", c.ID)
	assert.Nil(t, c.Extra)
}

func TestContentRequiresIDAndQuantity(t *testing.T) {
	var p EventProperties
	require.NoError(t, json.Unmarshal([]byte(`{"contents":[{"id":"A"},{"quantity":3}]}`), &p))
	require.Len(t, p.Contents, 2)

	err := p.Validate()
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.Contains(t, err.Error(), "contents[0]")
	assert.Contains(t, err.Error(), "contents[1]")

	var c Content
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":true,"quantity":1}`), &c), ErrInvalidContent)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":"A","quantity":1.5}`), &c), ErrInvalidContent)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":"A","quantity":"2"}`), &c), ErrInvalidContent)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"id":"A","quantity":1e300}`), &c), ErrInvalidContent)
}

func TestContentIntegralFloatQuantity(t *testing.T) {
	for _, raw := range []string{`2`, `2.0`, `2e0`, `0.2e1`} {
		var c Content
		require.NoError(t, json.Unmarshal([]byte(`{"id":"A","quantity":`+raw+`}`), &c), raw)
		assert.Equal(t, 2, c.Quantity, raw)
		assert.NoError(t, c.Validate(), raw)
	}
}
