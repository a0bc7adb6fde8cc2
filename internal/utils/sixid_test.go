package utils

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSixID_StringParse(t *testing.T) {
	id := SixID{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB}

	s := id.String()
	assert.Len(t, s, 10)

	parsed, err := ParseSixID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSixID_ParseLenient(t *testing.T) {
	id := NewSixID()
	s := id.String()

	hyphenated := s[:5] + "-" + s[5:]
	parsed, err := ParseSixID(hyphenated)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSixID_ParseInvalid(t *testing.T) {
	for _, in := range []string{"", "short", "UUUUUUUUUU", "0123456789AB"} {
		_, err := ParseSixID(in)
		assert.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidSixID), in)
	}
}

func TestSixID_BSONRoundTrip(t *testing.T) {
	type doc struct {
		ID    SixID   `bson:"_id"`
		Refs  []SixID `bson:"refs"`
		Owner SixID   `bson:"owner"`
	}
	in := doc{ID: NewSixID(), Refs: []SixID{NewSixID(), NewSixID()}, Owner: NewSixID()}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var out doc
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	// stored as binary subtype 0x80
	val := bson.Raw(raw).Lookup("_id")
	subtype, data := val.Binary()
	assert.Equal(t, byte(0x80), subtype)
	assert.Equal(t, in.ID[:], data)
}

func TestSixID_JSON(t *testing.T) {
	id := NewSixID()
	data, err := json.Marshal(map[string]SixID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(data))

	var out map[string]SixID
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, id, out["id"])
}

func TestNewSixIDHook(t *testing.T) {
	fixed := SixID{1, 2, 3, 4, 5, 6}
	NewSixIDHook = func() (SixID, bool) { return fixed, true }
	defer func() { NewSixIDHook = nil }()

	assert.Equal(t, fixed, NewSixID())
}

func TestContains(t *testing.T) {
	a, b := NewSixID(), NewSixID()
	assert.True(t, Contains([]SixID{a, b}, b))
	assert.False(t, Contains([]SixID{a}, b))
	assert.False(t, Contains(nil, a))
}
