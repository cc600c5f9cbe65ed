package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// ShareText renders the invitation the client hands to share targets.
func ShareText(e Event, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	d := time.UnixMilli(e.Date).In(loc)
	date := fmt.Sprintf("%02d de %s de %d", d.Day(), spanishMonths[d.Month()-1], d.Year())

	var b strings.Builder
	b.WriteString("🎉 ¡Te invito a este evento!\n\n")
	fmt.Fprintf(&b, "📅 %s\n\n", e.Title)
	fmt.Fprintf(&b, "📍 %s\n", e.Location)
	fmt.Fprintf(&b, "🗓️ %s a las %s\n\n", date, e.Time)
	b.WriteString(e.Description)
	b.WriteString("\n\n📱 Descarga EventCenter para más detalles")
	return b.String()
}

// ShareLinks holds ready-made share targets for an event.
type ShareLinks struct {
	Text     string `json:"text"`
	WhatsApp string `json:"whatsapp"`
	Twitter  string `json:"twitter"`
}

func NewShareLinks(e Event, loc *time.Location) ShareLinks {
	text := ShareText(e, loc)
	escaped := url.QueryEscape(text)
	return ShareLinks{
		Text:     text,
		WhatsApp: "https://wa.me/?text=" + escaped,
		Twitter:  "https://twitter.com/intent/tweet?text=" + escaped,
	}
}
