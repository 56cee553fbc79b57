package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// IntSlice stores an ordered list of integers as a JSONB array.
type IntSlice []int

func (s *IntSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONB value")
	}
	return json.Unmarshal(bytes, s)
}

func (s IntSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]int{})
	}
	return json.Marshal([]int(s))
}

// StringSlice stores an ordered list of strings as a JSONB array.
type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONB value")
	}
	return json.Unmarshal(bytes, s)
}

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(s))
}
