package storedsearch

import (
	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
)

// Owner is the principal a stored search belongs to, tagged with its section.
// It is either Marketplace(principal) or Premium(principal), never both.
type Owner struct {
	section   domain.Section
	principal principal.Principal
}

// MarketplaceOwner tags p as a marketplace owner.
func MarketplaceOwner(p principal.Principal) Owner {
	return Owner{section: domain.SectionMarketplace, principal: p}
}

// PremiumOwner tags p as a premium owner.
func PremiumOwner(p principal.Principal) Owner {
	return Owner{section: domain.SectionPremium, principal: p}
}

// OwnerFrom resolves the owner from the two nullable references used by storage.
// First match wins: a marketplace principal takes priority over a premium one.
func OwnerFrom(marketplace, premium *principal.Principal) (Owner, error) {
	switch {
	case marketplace != nil:
		return MarketplaceOwner(*marketplace), nil
	case premium != nil:
		return PremiumOwner(*premium), nil
	default:
		return Owner{}, domain.ErrNoOwner
	}
}

// Section returns the section the owner reference was resolved from.
func (o Owner) Section() domain.Section { return o.section }

// Principal returns the owning principal.
func (o Owner) Principal() principal.Principal { return o.principal }

// IsZero reports whether the owner was never set.
func (o Owner) IsZero() bool { return o.section == "" }
