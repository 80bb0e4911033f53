package mail

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
)

func TestRender_SubjectPerLocaleAndSection(t *testing.T) {
	r := testRenderer(t, 0)

	tests := []struct {
		name    string
		locale  language.Tag
		section domain.Section
		n       int
		want    string
	}{
		{"english plural", language.English, domain.SectionMarketplace, 3, "3 new houses on the marketplace"},
		{"english singular", language.English, domain.SectionPremium, 1, "1 new house in Premium"},
		{"danish", language.Danish, domain.SectionMarketplace, 2, "2 nye boliger på markedspladsen"},
		{"swedish regional", language.MustParse("sv-SE"), domain.SectionPremium, 1, "1 ny bostad i Premium"},
		{"unsupported falls back", language.French, domain.SectionMarketplace, 1, "1 ny bolig på markedspladsen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := r.Render(testPrincipal("Ann"), tt.locale, tt.section, testListings(t, tt.n))
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if msg.Subject != tt.want {
				t.Errorf("subject = %q, want %q", msg.Subject, tt.want)
			}
		})
	}
}

func TestRender_Body(t *testing.T) {
	r := testRenderer(t, 0)

	msg, err := r.Render(testPrincipal("Ann"), language.English, domain.SectionMarketplace, testListings(t, 2))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.To != "ann@example.com" || msg.ToName != "Ann" || msg.Locale != language.English {
		t.Errorf("unexpected envelope: %+v", msg)
	}

	for _, want := range []string{
		"Hi Ann,",
		"House 1, Strandvejen 1, Aarhus",
		"4 rooms",
		"https://boliger.example.dk/marketplace/houses/h2",
		"See all results: https://boliger.example.dk/marketplace",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, `<html lang="en">`) ||
		!strings.Contains(msg.HTML, `href="https://boliger.example.dk/marketplace/houses/h1"`) {
		t.Errorf("unexpected html body:\n%s", msg.HTML)
	}
}

func TestRender_TruncatesListings(t *testing.T) {
	r := testRenderer(t, 2)

	msg, err := r.Render(testPrincipal("Ann"), language.English, domain.SectionMarketplace, testListings(t, 5))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "5 new houses on the marketplace" {
		t.Errorf("subject should count every listing, got %q", msg.Subject)
	}
	if strings.Contains(msg.Text, "House 3") {
		t.Error("listing beyond the cap rendered")
	}
	if !strings.Contains(msg.Text, "... and 3 more houses") {
		t.Errorf("missing remainder line:\n%s", msg.Text)
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	r := testRenderer(t, 0)
	l := listing.Reconstruct("x1", listing.Attrs{Title: "<script>alert(1)</script>", URL: "/custom/page"},
		[]domain.Section{domain.SectionPremium}, created, created)

	msg, err := r.Render(testPrincipal(""), language.English, domain.SectionPremium, []listing.Listing{l})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("title not escaped in html body")
	}
	if !strings.Contains(msg.Text, "https://boliger.example.dk/custom/page") {
		t.Errorf("relative url not resolved:\n%s", msg.Text)
	}
	if !strings.HasPrefix(msg.Text, "Hi,\n") {
		t.Errorf("anonymous greeting expected:\n%s", msg.Text)
	}
}

func TestRender_AbsoluteURLKept(t *testing.T) {
	r := testRenderer(t, 0)
	l := listing.Reconstruct("x1", listing.Attrs{Title: "T", URL: "https://partner.example.com/h/9"},
		[]domain.Section{domain.SectionPremium}, created, created)

	msg, err := r.Render(testPrincipal("Ann"), language.English, domain.SectionPremium, []listing.Listing{l})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg.Text, "https://partner.example.com/h/9") {
		t.Errorf("absolute url rewritten:\n%s", msg.Text)
	}
}

func TestRender_NoListings(t *testing.T) {
	r := testRenderer(t, 0)
	if _, err := r.Render(testPrincipal("Ann"), language.English, domain.SectionPremium, nil); !errors.Is(err, ErrNoListings) {
		t.Fatalf("expected ErrNoListings, got %v", err)
	}
}

func TestNewRenderer_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts RendererOptions
	}{
		{"relative base", RendererOptions{BaseURL: "boliger.dk", DefaultLocale: language.Danish}},
		{"negative cap", RendererOptions{MaxListings: -1, DefaultLocale: language.Danish}},
		{"unsupported default", RendererOptions{DefaultLocale: language.German}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderer(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
