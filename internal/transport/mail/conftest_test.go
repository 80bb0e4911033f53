package mail

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
)

var created = time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)

func testPrincipal(name string) principal.Principal {
	return principal.Reconstruct("42", "ann@example.com", name, "da", domain.SectionMarketplace)
}

func testListings(t *testing.T, n int) []listing.Listing {
	t.Helper()
	out := make([]listing.Listing, n)
	for i := range n {
		l, err := listing.New(
			fmt.Sprintf("h%d", i+1),
			listing.Attrs{
				Title:   fmt.Sprintf("House %d", i+1),
				City:    "Aarhus",
				Address: "Strandvejen 1",
				Price:   2500000,
				Area:    120,
				Rooms:   4,
			},
			[]domain.Section{domain.SectionMarketplace},
			created, created,
		)
		if err != nil {
			t.Fatalf("listing.New: %v", err)
		}
		out[i] = l
	}
	return out
}

func testRenderer(t *testing.T, maxListings int) *Renderer {
	t.Helper()
	r, err := NewRenderer(RendererOptions{
		BaseURL:       "https://boliger.example.dk/",
		MaxListings:   maxListings,
		DefaultLocale: language.Danish,
	})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}
