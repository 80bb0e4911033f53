package principal

import (
	"fmt"

	"github.com/kailas-cloud/searchagent/internal/domain"
	domprincipal "github.com/kailas-cloud/searchagent/internal/domain/principal"
)

func principalToHash(p domprincipal.Principal) map[string]string {
	return map[string]string{
		"id":      p.ID(),
		"email":   p.Email(),
		"name":    p.Name(),
		"locale":  p.PreferredLocale(),
		"section": string(p.RegisteredOn()),
	}
}

// FromHash hydrates a Principal from an HGETALL result map.
func FromHash(m map[string]string) (domprincipal.Principal, error) {
	if m["id"] == "" || m["email"] == "" {
		return domprincipal.Principal{}, fmt.Errorf("principal hash missing id or email: %w", domain.ErrInvalidPrincipal)
	}
	return domprincipal.Reconstruct(m["id"], m["email"], m["name"], m["locale"], domain.Section(m["section"])), nil
}
