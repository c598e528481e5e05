package models

import (
	"bytes"
	"fmt"
	"strconv"
)

// Flag is a listonic boolean. The API sends it either as 0/1 or as true/false and expects 0/1 back.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		val, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as a listonic flag", string(data))
		}
		*f = val != 0
	}
	return nil
}
