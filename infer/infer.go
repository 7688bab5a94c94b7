// Package infer derives a best-guess travel destination from a trip's
// free-text name. It is pure: no I/O, no mutable state, deterministic for a
// given input. The result feeds the artifact search query and the travel
// news lookup.
package infer

import "strings"

// DefaultDestination is returned when no destination can be inferred at all.
const DefaultDestination = "Travel"

// Destination maps a trip name to a destination string. Rules are applied in
// order, first match wins:
//
//  1. flag emoji in the name
//  2. country name substring, case-insensitive
//  3. known city substring, case-insensitive, resolved to its country
//  4. name components (split on comma, space, dash) scanned in reverse for a
//     country name, which handles "Tokyo, Japan" style names
//  5. the word "Trip" is stripped and the last remaining word returned
//     verbatim, or DefaultDestination when nothing remains
func Destination(name string) string {
	if dest, ok := matchFlag(name); ok {
		return dest
	}

	lower := strings.ToLower(name)
	if dest, ok := matchCountry(lower); ok {
		return dest
	}
	if dest, ok := matchCity(lower); ok {
		return dest
	}
	if dest, ok := matchComponents(name); ok {
		return dest
	}
	return fallback(name)
}

func matchFlag(name string) (string, bool) {
	for _, c := range Countries {
		if flag := FlagEmoji(c.Code); flag != "" && strings.Contains(name, flag) {
			return c.Name, true
		}
	}
	return "", false
}

func matchCountry(lower string) (string, bool) {
	for _, c := range Countries {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c.Name, true
		}
	}
	return "", false
}

func matchCity(lower string) (string, bool) {
	for _, entry := range cities {
		if strings.Contains(lower, strings.ToLower(entry.City)) {
			return entry.Country, true
		}
	}
	return "", false
}

func matchComponents(name string) (string, bool) {
	components := splitComponents(name)
	for i := len(components) - 1; i >= 0; i-- {
		for _, c := range Countries {
			if strings.EqualFold(components[i], c.Name) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// fallback strips the literal word "Trip" and returns the last remaining
// word, so "Murree Trip" yields "Murree" and "Weekend Getaway" yields
// "Getaway".
func fallback(name string) string {
	components := splitComponents(name)
	kept := components[:0]
	for _, comp := range components {
		if strings.EqualFold(comp, "Trip") {
			continue
		}
		kept = append(kept, comp)
	}
	if len(kept) == 0 {
		return DefaultDestination
	}
	return kept[len(kept)-1]
}

func splitComponents(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == ',' || r == ' ' || r == '-'
	})
}
