package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxRestaurantNameLen matches the restaurant_name columns.
const MaxRestaurantNameLen = 255

type DemoPreferences struct {
	RestaurantName string `json:"restaurantName"`
	GoogleMapsURL  string `json:"googleMapsUrl"`
	ContactEmail   string `json:"contactEmail,omitempty"`
}

// Complete reports whether both required fields are non-blank.
func (p DemoPreferences) Complete() bool {
	return strings.TrimSpace(p.RestaurantName) != "" && strings.TrimSpace(p.GoogleMapsURL) != ""
}

// NameTooLong reports whether RestaurantName exceeds MaxRestaurantNameLen
// characters.
func (p DemoPreferences) NameTooLong() bool {
	return utf8.RuneCountInString(p.RestaurantName) > MaxRestaurantNameLen
}

type DemoPage struct {
	ID             int64
	RestaurantName string
	GoogleMapsURL  string
	ContactEmail   *string
	Slug           string
}
