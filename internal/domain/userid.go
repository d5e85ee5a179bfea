package domain

import (
	"encoding/json"
	"strconv"
)

// UserID identifies the end user a record belongs to. It is either a
// string or a number and keeps that shape on the wire.
type UserID struct {
	str     string
	num     json.Number
	numeric bool
}

// StringUserID returns a UserID that marshals as a JSON string.
func StringUserID(s string) *UserID {
	return &UserID{str: s}
}

// NumericUserID returns a UserID that marshals as a JSON number.
func NumericUserID(n int64) *UserID {
	return &UserID{num: json.Number(strconv.FormatInt(n, 10)), numeric: true}
}

// NumberUserID returns a UserID from an already formatted JSON number.
func NumberUserID(n json.Number) *UserID {
	return &UserID{num: n, numeric: true}
}

// IsNumeric reports whether the id was constructed from a number.
func (u UserID) IsNumeric() bool { return u.numeric }

func (u UserID) String() string {
	if u.numeric {
		return u.num.String()
	}
	return u.str
}

// MarshalJSON encodes the id as a JSON number or string.
func (u UserID) MarshalJSON() ([]byte, error) {
	if u.numeric {
		return []byte(u.num.String()), nil
	}
	return json.Marshal(u.str)
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (u *UserID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserID{str: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*u = UserID{num: n, numeric: true}
	return nil
}
