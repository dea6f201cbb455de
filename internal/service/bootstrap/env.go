package bootstrap

import "strings"

// prependEnv puts value in front of the list variable key, adding it when absent.
// Windows variable names are case-insensitive, hence foldCase.
func prependEnv(environ []string, key, value, separator string, foldCase bool) []string {
	out := make([]string, 0, len(environ)+1)
	found := false

	for _, kv := range environ {
		name, current, ok := strings.Cut(kv, "=")
		if !ok || found || !sameKey(name, key, foldCase) {
			out = append(out, kv)
			continue
		}

		found = true

		if current == "" {
			out = append(out, name+"="+value)
		} else {
			out = append(out, name+"="+value+separator+current)
		}
	}

	if !found {
		out = append(out, key+"="+value)
	}

	return out
}

func sameKey(a, b string, foldCase bool) bool {
	if foldCase {
		return strings.EqualFold(a, b)
	}

	return a == b
}
