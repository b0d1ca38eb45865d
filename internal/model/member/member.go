package member

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DisplayPrefix is prepended to the zero-padded member id.
const DisplayPrefix = "MEM"

// Member mirrors one entry of the backend's /users collection.
type Member struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
}

// DisplayID renders the id as MEM followed by at least three digits.
func (m Member) DisplayID() string {
	return fmt.Sprintf("%s%03d", DisplayPrefix, m.ID)
}

// Initial is the avatar letter: first rune of the name, or "U".
func (m Member) Initial() string {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return "U"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

// FallbackName is shown when an appointment references an unknown member.
func FallbackName(userID int64) string {
	return fmt.Sprintf("Member %d", userID)
}
