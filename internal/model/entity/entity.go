package entity

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONB maps to a PostgreSQL JSONB column. SQLite (used in tests) stores it
// as text, so Scan accepts both []byte and string.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}
