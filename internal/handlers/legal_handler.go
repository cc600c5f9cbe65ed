package handlers

import (
	"html"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const pageStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

// LegalHandler serves the static legal pages linked from the app.
type LegalHandler struct {
	appName string
}

func NewLegalHandler(appName string) *LegalHandler {
	if appName == "" {
		appName = "EventCenter"
	}
	return &LegalHandler{appName: html.EscapeString(appName)}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
` + pageStyle + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Information We Collect</h2>
<p>We store your name, email address and profile photo, the events you create, the events you attend and the reviews you write. If you sign in with Google or Apple, we receive the identifier of that account.</p>
<h2>Who Can See It</h2>
<p>Events, organizer names and reviews are public. Only the organizer of an event can see the list of its attendees.</p>
<h2>Notifications</h2>
<p>Organizers are told when someone confirms attendance or reviews their event. Attendees get a reminder the day before.</p>
<h2>Data Storage</h2>
<p>Your data is stored on encrypted servers and cached on the device for offline use. We do not sell your personal information to third parties.</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + h.appName + `</title>
` + pageStyle + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: October 2026</p>
<h2>Events</h2>
<p>Organizers are responsible for the accuracy of the events they publish and for the license they choose for its content.</p>
<h2>Reviews</h2>
<p>Reviews may be written once an event has taken place. Offensive language, links and contact details are rejected.</p>
<h2>Termination</h2>
<p>We may remove events or reviews that violate these terms.</p>
</body></html>`)
}

// License describes the Creative Commons license with the given code.
// Unknown codes fall back to the default license.
func (h *LegalHandler) License(c *fiber.Ctx) error {
	l := domain.LicenseFromCode(c.Params("code"))
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>` + html.EscapeString(l.FullName) + ` - ` + h.appName + `</title>
` + pageStyle + `
</head><body>
<h1>` + html.EscapeString(l.FullName) + `</h1>
<p><img src="` + html.EscapeString(l.IconURL) + `" alt="` + html.EscapeString(l.Code) + `"></p>
<p>` + html.EscapeString(l.Description) + `</p>
</body></html>`)
}
