package storedsearch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/search/criteria"
	domss "github.com/kailas-cloud/searchagent/internal/domain/storedsearch"
)

// Hash field names. A record references its owner through exactly one of the two principal fields;
// legacy records with both set resolve to the marketplace principal.
const (
	fieldMarketplace = "marketplace_principal"
	fieldPremium     = "premium_principal"
	fieldCriteria    = "criteria"
	fieldWatermark   = "watermark"
	fieldEnabled     = "enabled"
)

// row is the raw, not yet hydrated form of a stored search hash.
type row struct {
	marketplaceID string
	premiumID     string
	criteria      criteria.Criteria
	watermark     time.Time
	enabled       bool
}

func searchToHash(s domss.StoredSearch) (map[string]string, error) {
	c, err := json.Marshal(s.Criteria())
	if err != nil {
		return nil, fmt.Errorf("marshal criteria: %w", err)
	}

	m := map[string]string{
		fieldMarketplace: "",
		fieldPremium:     "",
		fieldCriteria:    string(c),
		fieldWatermark:   "",
		fieldEnabled:     "0",
	}
	switch s.Section() {
	case domain.SectionMarketplace:
		m[fieldMarketplace] = s.Owner().Principal().ID()
	case domain.SectionPremium:
		m[fieldPremium] = s.Owner().Principal().ID()
	}
	if wm, ok := s.Watermark(); ok {
		m[fieldWatermark] = formatWatermark(wm)
	}
	if s.Enabled() {
		m[fieldEnabled] = "1"
	}
	return m, nil
}

func watermarkHash(wm time.Time) map[string]string {
	return map[string]string{fieldWatermark: formatWatermark(wm)}
}

func formatWatermark(wm time.Time) string { return strconv.FormatInt(wm.UnixMilli(), 10) }

func rowFromHash(m map[string]string) (row, error) {
	r := row{
		marketplaceID: m[fieldMarketplace],
		premiumID:     m[fieldPremium],
		enabled:       m[fieldEnabled] == "1" || m[fieldEnabled] == "true",
	}

	if raw := m[fieldCriteria]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.criteria); err != nil {
			return row{}, fmt.Errorf("unmarshal criteria: %w", err)
		}
	}

	if raw := m[fieldWatermark]; raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return row{}, fmt.Errorf("invalid watermark %q: %w", raw, err)
		}
		r.watermark = time.UnixMilli(ms).UTC()
	}

	return r, nil
}
