package domain

import (
	"net/url"
	"strings"
)

// DefaultSiteURL is the hardcoded canonical HTTPS origin used when no site
// URL is configured. Native shells run under a non-HTTP origin the identity
// provider will not allow-list, so this stable origin is always the redirect
// target regardless of platform.
const DefaultSiteURL = "https://mountainpathway.app"

// CallbackPath is where the identity provider sends the user back to.
const CallbackPath = "/auth/callback"

// PublicSiteURL returns the canonical HTTPS origin with any trailing slash
// stripped, falling back to DefaultSiteURL when unconfigured.
func PublicSiteURL(configured string) string {
	site := strings.TrimSpace(configured)
	if site == "" {
		site = DefaultSiteURL
	}
	return strings.TrimRight(site, "/")
}

// CallbackRedirectTo computes the redirect target handed to the identity
// provider. Native flows always land on the public site with native=1 so the
// callback page can bounce into the app; web flows stay on their own origin.
func CallbackRedirectTo(isNative bool, webOrigin, configured string) string {
	if isNative {
		return PublicSiteURL(configured) + CallbackPath + "?native=1"
	}
	origin := strings.TrimRight(strings.TrimSpace(webOrigin), "/")
	if origin == "" {
		origin = PublicSiteURL(configured)
	}
	return origin + CallbackPath
}

type RedirectKind string

const (
	RedirectPKCE RedirectKind = "pkce"
	RedirectHash RedirectKind = "hash"
	RedirectNone RedirectKind = "none"
)

// Redirect is a classified incoming auth callback URL.
type Redirect struct {
	Kind         RedirectKind
	Code         string
	AccessToken  string
	RefreshToken string
	Type         string
	Next         string
}

// ParseAuthRedirect classifies a callback URL as a PKCE code exchange, an
// implicit hash-token handoff, or neither. Malformed input never errors; it
// degrades to RedirectNone.
func ParseAuthRedirect(raw string) Redirect {
	u, err := url.Parse(raw)
	if err != nil {
		return Redirect{Kind: RedirectNone}
	}
	query := u.Query()

	if code := query.Get("code"); code != "" {
		return Redirect{
			Kind: RedirectPKCE,
			Code: code,
			Type: query.Get("type"),
			Next: query.Get("next"),
		}
	}

	fragment, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return Redirect{Kind: RedirectNone}
	}
	if token := fragment.Get("access_token"); token != "" {
		next := query.Get("next")
		if next == "" {
			next = fragment.Get("next")
		}
		return Redirect{
			Kind:         RedirectHash,
			AccessToken:  token,
			RefreshToken: fragment.Get("refresh_token"),
			Type:         fragment.Get("type"),
			Next:         next,
		}
	}
	return Redirect{Kind: RedirectNone}
}

// SafeNext validates a next redirect hint against open-redirect abuse: only
// same-origin relative paths pass. Anything else is discarded by the caller
// in favor of a default destination.
func SafeNext(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	return raw, true
}

// DeepLink builds the custom-scheme URL that hands the untouched callback
// parameters to the native shell. Empty parameters are omitted.
func DeepLink(scheme, code, typ, next string) string {
	params := url.Values{}
	if code != "" {
		params.Set("code", code)
	}
	if typ != "" {
		params.Set("type", typ)
	}
	if next != "" {
		params.Set("next", next)
	}
	link := scheme + "://auth/callback"
	if encoded := params.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}

// CallbackDecision is the resolved handling plan for an incoming callback
// request: either hand off to the native shell via a deep link, or continue
// the web flow toward Next.
type CallbackDecision struct {
	Native   bool
	DeepLink string
	Redirect Redirect
	Next     string
}

// DecideCallback classifies a callback request and picks its destination. A
// recovery callback always forces the reset-password page; any other next
// hint must pass SafeNext or is replaced by the root. Native handling is
// chosen by explicit hint or by user agent.
func DecideCallback(rawURL, userAgent, scheme, resetPath string, nativeHint bool) CallbackDecision {
	redirect := ParseAuthRedirect(rawURL)

	next := "/"
	if safe, ok := SafeNext(redirect.Next); ok {
		next = safe
	}
	if redirect.Type == CallbackTypeRecovery {
		next = resetPath
	}

	decision := CallbackDecision{
		Native:   nativeHint || IsMobileUA(userAgent),
		Redirect: redirect,
		Next:     next,
	}
	if decision.Native {
		decision.DeepLink = DeepLink(scheme, redirect.Code, redirect.Type, next)
	}
	return decision
}

// mobileMarkers are the user-agent fragments that route a callback into the
// native deep-link branch.
var mobileMarkers = []string{"android", "iphone", "ipad", "ipod", "mobile"}

func IsMobileUA(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
