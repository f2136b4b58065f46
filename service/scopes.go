package service

import "strings"

var validScopes = []string{"home", "store", "db"}

// NormalizeScopes filters a comma-separated scope list down to the valid
// set, preserving the caller's order.
func NormalizeScopes(scopes string) string {
	var kept []string
	for _, scope := range strings.Split(scopes, ",") {
		for _, valid := range validScopes {
			if scope == valid {
				kept = append(kept, scope)
				break
			}
		}
	}
	return strings.Join(kept, ",")
}

func HasScope(scopes, scope string) bool {
	for _, s := range strings.Split(scopes, ",") {
		if s == scope {
			return true
		}
	}
	return false
}
