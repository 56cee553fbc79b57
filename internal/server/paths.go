package server

import "strings"

// parseSessionPath splits /api/sessions/{code}[/{action}[/{sub}]] into a
// session code and an action of up to two segments ("questions/open").
func parseSessionPath(path string) (string, string, bool) {
	const prefix = "/api/sessions/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	code := parts[0]
	switch len(parts) {
	case 1:
		return code, "", true
	case 2:
		return code, parts[1], true
	case 3:
		return code, parts[1] + "/" + parts[2], true
	}
	return "", "", false
}
