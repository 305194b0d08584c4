package team

import "strings"

// familyName returns the part of a person name after the last '.' or space,
// lower-cased.
func familyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndexAny(name, ". "); i >= 0 {
		return name[i+1:]
	}
	return name
}

// MatchByWorkerName returns the first team with a member whose family name
// matches the family name of person. A member family name contained anywhere
// in person also matches, which covers compressed logins such as "ipetrov".
// Nil means no team qualifies.
func MatchByWorkerName(person string, teams []*Team) *Team {
	family := familyName(person)
	lowered := strings.ToLower(person)
	for _, t := range teams {
		for _, w := range t.Members {
			surname := familyName(w.Name)
			if surname == "" {
				continue
			}
			if surname == family || strings.Contains(lowered, surname) {
				return t
			}
		}
	}
	return nil
}
