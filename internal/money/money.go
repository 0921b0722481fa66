package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts a transport-encoded monetary value to a float64.
// The backend serialises some amounts as numeric strings ("410.96");
// anything that does not parse falls back to zero.
func Parse(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Format renders an amount with fixed two-decimal precision.
func Format(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Round2 rounds an amount to two decimal places. Request bodies always
// carry rounded values so the server never sees float noise.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Amount is a monetary value that tolerates both JSON numbers and
// numeric strings on the wire. The backend is inconsistent about which
// it sends (login returns a number, /saldo returns a string), so every
// ingestion point normalises through this type.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(Parse(s))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Round2(float64(a)), 'f', 2, 64)), nil
}

// Float returns the amount as a plain float64.
func (a Amount) Float() float64 {
	return float64(a)
}

// String renders the amount with two decimals for display.
func (a Amount) String() string {
	return Format(float64(a))
}
