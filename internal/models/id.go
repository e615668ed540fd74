package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an upstream identifier. The remote API uses numeric primary keys for
// some resources and UUIDs for others, so both JSON numbers and strings are
// accepted and numeric IDs are written back as numbers.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

func (id *ID) UnmarshalJSON(b []byte) error {

	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(b), err)
	}

	*id = ID(n.String())

	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {

	if id.isNumeric() {
		return []byte(id), nil
	}

	return json.Marshal(string(id))
}

func (id ID) isNumeric() bool {

	if id == "" || (len(id) > 1 && id[0] == '0') {
		return false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
