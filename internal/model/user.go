package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB color. It marshals to a "#rrggbb" hex string
// so API payloads stay readable.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses "#rrggbb" (leading # optional).
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// User is a player seen in a report's event log. Disabled users render
// dimmed in the legend and their event highlights are skipped.
type User struct {
	Username string `json:"username"`
	Color    Color  `json:"color"`
	Enabled  bool   `json:"enabled"`
}

// palette holds visually distinct colors assigned to users round-robin.
var palette = []Color{
	{230, 25, 75},   // red
	{60, 180, 75},   // green
	{255, 225, 25},  // yellow
	{0, 130, 200},   // blue
	{245, 130, 48},  // orange
	{145, 30, 180},  // purple
	{70, 240, 240},  // cyan
	{240, 50, 230},  // magenta
	{210, 245, 60},  // lime
	{250, 190, 212}, // pink
	{0, 128, 128},   // teal
	{220, 190, 255}, // lavender
}

// NewUsers builds one enabled User per distinct username, in order of
// first appearance in events, cycling through the color palette.
func NewUsers(events []Event) []*User {
	seen := make(map[string]bool, len(events))
	var users []*User
	for _, ev := range events {
		if seen[ev.Username] {
			continue
		}
		seen[ev.Username] = true
		users = append(users, &User{
			Username: ev.Username,
			Color:    palette[len(users)%len(palette)],
			Enabled:  true,
		})
	}
	return users
}
