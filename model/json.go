package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// NoID is the identifier the platform sends when a reference is unset.
const NoID = "0"

func isSet(id string) bool {
	return id != "" && id != NoID
}

// decodeInt accepts both 123 and "123"; null and "" decode to 0.
func decodeInt(data []byte) (int64, error) {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", data, err)
	}
	return v, nil
}
