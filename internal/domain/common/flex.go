// internal/domain/common/flex.go
package common

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt decodes an integer that the PHP API (or older local data) may send
// as a JSON number, a numeric string, null or "".
// Anything unparsable decodes to 0 instead of failing the whole document.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}

	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
	} else {
		s = string(b)
	}

	*f = FlexInt(parseIntLoose(s))
	return nil
}

func (f FlexInt) Int64() int64 { return int64(f) }

func (f FlexInt) Int() int { return int(f) }

// parseIntLoose accepts "12", " 12 ", "12.0" (floor). Everything else is 0.
func parseIntLoose(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl)
	}
	return 0
}

// FlexString decodes a JSON string or number into its textual form.
// Prices come back from the API as "65.00" or 65 depending on the endpoint.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	*f = FlexString(string(b))
	return nil
}

func (f FlexString) String() string { return string(f) }
