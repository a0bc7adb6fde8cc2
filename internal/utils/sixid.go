package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// sixIDSubtype is the BSON binary subtype used to store SixIDs.
const sixIDSubtype byte = 0x80

// SixIDHookFunc defines the signature for the NewSixID test hook.
// It returns a SixID and a boolean indicating whether to override the default generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is a package-level variable that tests can set to override NewSixID behavior.
var NewSixIDHook SixIDHookFunc

// ErrInvalidSixID is returned when a string cannot be parsed into a SixID.
var ErrInvalidSixID = errors.New("invalid id")

// SixID is a 6-byte ID stored as BSON BinData with custom subtype 0x80.
// Listings, reviews and users are all keyed by SixIDs.
type SixID [6]byte

// NewSixID creates a new random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand never fails on supported platforms; keep the zero value if it does
		return SixID{}
	}
	return id
}

// IsZero reports whether the id is unset.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

// Crockford Base32 encoding alphabet (uppercase)
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap map[byte]byte

func init() {
	crockfordDecodeMap = make(map[byte]byte, 40)
	for i := range crockfordAlphabet {
		crockfordDecodeMap[crockfordAlphabet[i]] = byte(i)
	}

	lower := strings.ToLower(crockfordAlphabet)
	for i := range lower {
		if i >= 10 {
			crockfordDecodeMap[lower[i]] = byte(i)
		}
	}

	// commonly confused characters
	crockfordDecodeMap['o'] = crockfordDecodeMap['0']
	crockfordDecodeMap['O'] = crockfordDecodeMap['0']
	crockfordDecodeMap['i'] = crockfordDecodeMap['1']
	crockfordDecodeMap['I'] = crockfordDecodeMap['1']
	crockfordDecodeMap['l'] = crockfordDecodeMap['1']
	crockfordDecodeMap['L'] = crockfordDecodeMap['1']
}

// String returns the 10 character Crockford Base32 representation.
func (u SixID) String() string {
	result := make([]byte, 0, 10)
	var bits, offset uint

	for i := 0; i < len(u); i++ {
		bits |= uint(u[i]) << offset
		offset += 8

		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}

	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}

	return string(result)
}

// ParseSixID parses the Crockford Base32 form produced by String.
// Hyphens and spaces are ignored. The empty string is rejected.
func ParseSixID(s string) (SixID, error) {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")

	if len(s) != 10 {
		return SixID{}, fmt.Errorf("%w: %q must be 10 characters", ErrInvalidSixID, s)
	}

	var bits uint64
	var offset uint
	var id SixID
	byteIndex := 0

	for i := 0; i < len(s); i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, fmt.Errorf("%w: unexpected character %q", ErrInvalidSixID, s[i])
		}

		bits |= uint64(val) << offset
		offset += 5

		for offset >= 8 && byteIndex < len(id) {
			id[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}

	if byteIndex != len(id) {
		return SixID{}, fmt.Errorf("%w: could not decode 6 bytes", ErrInvalidSixID)
	}
	return id, nil
}

// MarshalBSONValue stores the id as binary subtype 0x80.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, sixIDSubtype, u[:]), nil
}

// UnmarshalBSONValue reads an id written by MarshalBSONValue. A BSON null leaves the zero id.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*u = SixID{}
		return nil
	case bsontype.Binary:
		subtype, bin, _, ok := bsoncore.ReadBinary(data)
		if !ok {
			return errors.New("invalid BSON binary data for SixID")
		}
		if subtype != sixIDSubtype || len(bin) != len(u) {
			return fmt.Errorf("invalid BSON binary for SixID: subtype %#x, length %d", subtype, len(bin))
		}
		copy(u[:], bin)
		return nil
	default:
		return fmt.Errorf("invalid BSON type for SixID: %s", t)
	}
}

// MarshalJSON marshals the SixID as a JSON string in Crockford Base32 format.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON unmarshals a SixID from a JSON string in Crockford Base32 format.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Contains reports whether id is present in ids.
func Contains(ids []SixID, id SixID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
