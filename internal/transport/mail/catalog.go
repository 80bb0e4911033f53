package mail

import (
	"fmt"
	"slices"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	keySubjectMarketplace = "subject.marketplace"
	keySubjectPremium     = "subject.premium"
	keyGreeting           = "greeting"
	keyGreetingAnonymous  = "greeting.anonymous"
	keyIntro              = "intro"
	keyRooms              = "rooms"
	keyPrice              = "price"
	keyMore               = "more"
	keyViewAll            = "view_all"
	keyFooter             = "footer"
)

// Supported lists the locales with a full translation set.
var Supported = []language.Tag{language.Danish, language.English, language.Swedish}

type translation struct {
	key  string
	msgs map[language.Tag]catalog.Message
}

func str(s string) catalog.Message { return catalog.String(s) }

func countable(one, other string) catalog.Message {
	return plural.Selectf(1, "%d", plural.One, one, plural.Other, other)
}

var translations = []translation{
	{keySubjectMarketplace, map[language.Tag]catalog.Message{
		language.Danish:  countable("%d ny bolig på markedspladsen", "%d nye boliger på markedspladsen"),
		language.English: countable("%d new house on the marketplace", "%d new houses on the marketplace"),
		language.Swedish: countable("%d ny bostad på marknadsplatsen", "%d nya bostäder på marknadsplatsen"),
	}},
	{keySubjectPremium, map[language.Tag]catalog.Message{
		language.Danish:  countable("%d ny bolig i Premium", "%d nye boliger i Premium"),
		language.English: countable("%d new house in Premium", "%d new houses in Premium"),
		language.Swedish: countable("%d ny bostad i Premium", "%d nya bostäder i Premium"),
	}},
	{keyGreeting, map[language.Tag]catalog.Message{
		language.Danish:  str("Hej %s,"),
		language.English: str("Hi %s,"),
		language.Swedish: str("Hej %s,"),
	}},
	{keyGreetingAnonymous, map[language.Tag]catalog.Message{
		language.Danish:  str("Hej,"),
		language.English: str("Hi,"),
		language.Swedish: str("Hej,"),
	}},
	{keyIntro, map[language.Tag]catalog.Message{
		language.Danish:  str("Din søgeagent har fundet nye boliger:"),
		language.English: str("Your search agent found new houses:"),
		language.Swedish: str("Din sökagent har hittat nya bostäder:"),
	}},
	{keyRooms, map[language.Tag]catalog.Message{
		language.Danish:  countable("%d værelse", "%d værelser"),
		language.English: countable("%d room", "%d rooms"),
		language.Swedish: countable("%d rum", "%d rum"),
	}},
	{keyPrice, map[language.Tag]catalog.Message{
		language.Danish:  str("%.0f kr."),
		language.English: str("DKK %.0f"),
		language.Swedish: str("%.0f kr"),
	}},
	{keyMore, map[language.Tag]catalog.Message{
		language.Danish:  countable("... og %d bolig mere", "... og %d boliger mere"),
		language.English: countable("... and %d more house", "... and %d more houses"),
		language.Swedish: countable("... och %d bostad till", "... och %d bostäder till"),
	}},
	{keyViewAll, map[language.Tag]catalog.Message{
		language.Danish:  str("Se alle resultater"),
		language.English: str("See all results"),
		language.Swedish: str("Se alla resultat"),
	}},
	{keyFooter, map[language.Tag]catalog.Message{
		language.Danish:  str("Du modtager denne e-mail, fordi du har en aktiv søgeagent."),
		language.English: str("You receive this email because you have an active search agent."),
		language.Swedish: str("Du får detta mejl eftersom du har en aktiv sökagent."),
	}},
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, tr := range translations {
		for tag, msg := range tr.msgs {
			if err := b.Set(tag, tr.key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s/%s: %w", tag, tr.key, err)
			}
		}
	}
	return b, nil
}

// printers resolves requested locales to the closest supported one.
type printers struct {
	matcher  language.Matcher
	tags     []language.Tag
	byTag    map[language.Tag]*message.Printer
	fallback language.Tag
}

func newPrinters(fallback language.Tag) (*printers, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}

	// The fallback goes first: Matcher returns index 0 when nothing matches.
	tags := []language.Tag{fallback}
	for _, t := range Supported {
		if t != fallback {
			tags = append(tags, t)
		}
	}

	p := &printers{
		matcher:  language.NewMatcher(tags),
		tags:     tags,
		byTag:    make(map[language.Tag]*message.Printer, len(tags)),
		fallback: fallback,
	}
	for _, t := range tags {
		p.byTag[t] = message.NewPrinter(t, message.Catalog(cat))
	}
	return p, nil
}

// resolve returns the supported tag for requested and its printer.
func (p *printers) resolve(requested language.Tag) (language.Tag, *message.Printer) {
	_, idx, conf := p.matcher.Match(requested)
	tag := p.tags[idx]
	if conf == language.No {
		tag = p.fallback
	}
	return tag, p.byTag[tag]
}

// IsSupported reports whether tag has a translation set.
func IsSupported(tag language.Tag) bool { return slices.Contains(Supported, tag) }
