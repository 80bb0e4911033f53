package mail

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
)

// ErrNoListings is returned when asked to render a notification without listings.
var ErrNoListings = errors.New("no listings to notify about")

// Message is a rendered notification ready for a transport.
type Message struct {
	To      string
	ToName  string
	Locale  language.Tag
	Subject string
	Text    string
	HTML    string
}

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// BaseURL is the public site root used for relative listing links.
	BaseURL string
	// MaxListings caps the listings shown in one mail; 0 shows all.
	MaxListings int
	// DefaultLocale is used when the principal locale has no translation.
	DefaultLocale language.Tag
}

// Renderer builds localized new-listings notifications.
type Renderer struct {
	base        *url.URL
	maxListings int
	printers    *printers
}

// NewRenderer creates a renderer. DefaultLocale must be one of Supported.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if opts.BaseURL != "" && (base.Scheme == "" || base.Host == "") {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	if opts.MaxListings < 0 {
		return nil, fmt.Errorf("max listings must not be negative, got %d", opts.MaxListings)
	}
	if !IsSupported(opts.DefaultLocale) {
		return nil, fmt.Errorf("default locale %s has no translations", opts.DefaultLocale)
	}

	p, err := newPrinters(opts.DefaultLocale)
	if err != nil {
		return nil, err
	}
	return &Renderer{base: base, maxListings: opts.MaxListings, printers: p}, nil
}

type view struct {
	Lang       string
	Greeting   string
	Intro      string
	Items      []item
	More       string
	ViewAll    string
	ViewAllURL string
	Footer     string
}

type item struct {
	Title   string
	Place   string
	Details string
	URL     string
}

// Render produces the notification for p about listings found on section.
func (r *Renderer) Render(
	p principal.Principal, locale language.Tag, section domain.Section, listings []listing.Listing,
) (Message, error) {
	if len(listings) == 0 {
		return Message{}, ErrNoListings
	}
	tag, pr := r.printers.resolve(locale)

	subjectKey := keySubjectMarketplace
	if section == domain.SectionPremium {
		subjectKey = keySubjectPremium
	}

	v := view{
		Lang:       tag.String(),
		Greeting:   greeting(pr, p.Name()),
		Intro:      pr.Sprintf(keyIntro),
		ViewAll:    pr.Sprintf(keyViewAll),
		ViewAllURL: r.link("/" + string(section)),
		Footer:     pr.Sprintf(keyFooter),
	}

	shown := listings
	if r.maxListings > 0 && len(shown) > r.maxListings {
		shown = shown[:r.maxListings]
		v.More = pr.Sprintf(keyMore, len(listings)-r.maxListings)
	}
	for _, l := range shown {
		v.Items = append(v.Items, r.item(pr, section, l))
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlBody.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}

	return Message{
		To:      p.Email(),
		ToName:  p.Name(),
		Locale:  tag,
		Subject: pr.Sprintf(subjectKey, len(listings)),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func greeting(pr *message.Printer, name string) string {
	if strings.TrimSpace(name) == "" {
		return pr.Sprintf(keyGreetingAnonymous)
	}
	return pr.Sprintf(keyGreeting, name)
}

func (r *Renderer) item(pr *message.Printer, section domain.Section, l listing.Listing) item {
	var place []string
	for _, s := range []string{l.Address(), l.City()} {
		if s != "" {
			place = append(place, s)
		}
	}

	details := []string{pr.Sprintf(keyPrice, l.Price())}
	if l.Area() > 0 {
		details = append(details, pr.Sprintf("%.0f m²", l.Area()))
	}
	if l.Rooms() > 0 {
		details = append(details, pr.Sprintf(keyRooms, l.Rooms()))
	}

	href := l.URL()
	if href == "" {
		href = "/" + string(section) + "/houses/" + l.ID()
	}

	return item{
		Title:   l.Title(),
		Place:   strings.Join(place, ", "),
		Details: strings.Join(details, " · "),
		URL:     r.link(href),
	}
}

// link resolves href against the base URL; absolute links pass through.
func (r *Renderer) link(href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() || r.base.Host == "" {
		return href
	}
	out := *r.base
	out.Path = strings.TrimRight(r.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	out.RawQuery = ref.RawQuery
	out.Fragment = ref.Fragment
	return out.String()
}

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`{{.Greeting}}

{{.Intro}}
{{range .Items}}
* {{.Title}}{{if .Place}}, {{.Place}}{{end}}
  {{.Details}}
  {{.URL}}
{{end}}{{if .More}}
{{.More}}
{{end}}
{{.ViewAll}}: {{.ViewAllURL}}

--
{{.Footer}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<body style="font-family: sans-serif;">
<p>{{.Greeting}}</p>
<p>{{.Intro}}</p>
<ul>
{{- range .Items}}
<li><a href="{{.URL}}">{{.Title}}</a>{{if .Place}}<br>{{.Place}}{{end}}<br><small>{{.Details}}</small></li>
{{- end}}
</ul>
{{- if .More}}
<p>{{.More}}</p>
{{- end}}
<p><a href="{{.ViewAllURL}}">{{.ViewAll}}</a></p>
<hr>
<p><small>{{.Footer}}</small></p>
</body>
</html>
`))
