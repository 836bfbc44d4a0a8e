package dto

import "time"

type SessionOutput struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type SignInOutput struct {
	Session SessionOutput
	Next    string
}

type RedirectURLOutput struct {
	URL string
}

// CallbackInput carries the raw request facts the callback endpoint saw.
type CallbackInput struct {
	RawURL     string
	UserAgent  string
	NativeHint bool
}

// CallbackPlan tells the transport layer what to do with a callback request.
// Exactly one of the branches applies: bounce into the native app via
// DeepLink, collect fragment tokens client-side (NeedsTokens), or continue
// to RedirectTo on the web, already signed in when SignedIn is set.
type CallbackPlan struct {
	Native      bool
	DeepLink    string
	RedirectTo  string
	NeedsTokens bool
	SignedIn    bool
	Session     SessionOutput
}
