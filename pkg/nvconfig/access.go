package nvconfig

import (
	"database/sql"
	"fmt"
)

// Get returns the value stored under key, or "" if it has never been set.
func Get(key string) (string, error) {
	db := GetDB()
	var value string
	err := db.QueryRow("SELECT value FROM nv_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("nvconfig: get %q: %w", key, err)
	}
	return value, nil
}

// GetDefault returns the value stored under key, or def if it has never
// been set.
func GetDefault(key, def string) (string, error) {
	v, err := Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Set stores value under key, overwriting any previous value.
func Set(key, value string) error {
	db := GetDB()
	_, err := db.Exec(
		"INSERT INTO nv_config (key, value) VALUES (?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("nvconfig: set %q: %w", key, err)
	}
	return nil
}
