package plugin

import (
	"encoding/json"
	"net/http"
	"strings"
)

// AuthPlugin is an optional bearer-token check for dynamic routes. Paths
// under the protected prefixes require the configured token; everything
// else passes through.
type AuthPlugin struct {
	Token             string
	ProtectedPrefixes []string
}

// Name implements Plugin.
func (p *AuthPlugin) Name() string { return "auth" }

// BeforeRequest rejects protected requests without a valid bearer token.
func (p *AuthPlugin) BeforeRequest(w http.ResponseWriter, r *http.Request) bool {
	if p.Token == "" || !p.protects(r.URL.Path) {
		return false
	}

	header := r.Header.Get("Authorization")
	if header == "Bearer "+p.Token {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": "Unauthorized",
	})
	return true
}

func (p *AuthPlugin) protects(path string) bool {
	if len(p.ProtectedPrefixes) == 0 {
		return true
	}
	for _, prefix := range p.ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
