package in

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"

	"pathway/internal/modules/auth/dto"
	authin "pathway/internal/modules/auth/port/in"
	apperrors "pathway/internal/platform/errors"
)

// HTTPHandler exposes the auth callback surface. It never inspects URLs
// itself; classification and the code exchange live behind the port.
type HTTPHandler struct {
	usecase authin.Usecase
}

func NewHTTPHandler(usecase authin.Usecase) *HTTPHandler {
	return &HTTPHandler{usecase: usecase}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/callback", h.callback)
	mux.HandleFunc("GET /auth/callback/recovery", h.recoveryCallback)
	mux.HandleFunc("POST /auth/session", h.session)
	mux.HandleFunc("POST /auth/signout", h.signOut)
	mux.HandleFunc("GET /auth/signin-url", h.signInURL)
}

func (h *HTTPHandler) callback(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, r.URL.String())
}

// recoveryCallback is the address a password-recovery email points at. It is
// the regular callback with the recovery type pinned, so the resolver forces
// the reset-password destination no matter what the query says.
func (h *HTTPHandler) recoveryCallback(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	q := u.Query()
	q.Set("type", "recovery")
	u.RawQuery = q.Encode()
	h.resolve(w, r, u.String())
}

func (h *HTTPHandler) resolve(w http.ResponseWriter, r *http.Request, rawURL string) {
	plan, err := h.usecase.ResolveCallback(r.Context(), dto.CallbackInput{
		RawURL:     rawURL,
		UserAgent:  r.UserAgent(),
		NativeHint: r.URL.Query().Get("native") == "1",
	})
	if err != nil {
		h.callbackError(w, r, err)
		return
	}

	switch {
	case plan.Native:
		// template.URL keeps the custom scheme from being sanitized away.
		h.render(w, deepLinkPage, map[string]any{"DeepLink": template.URL(plan.DeepLink)})
	case plan.NeedsTokens:
		h.render(w, hashHandoffPage, map[string]any{"Next": plan.RedirectTo})
	default:
		http.Redirect(w, r, plan.RedirectTo, http.StatusSeeOther)
	}
}

func (h *HTTPHandler) session(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, err := h.usecase.CompleteHashSignIn(r.Context(), body.AccessToken, body.RefreshToken); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.SignOut(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *HTTPHandler) signInURL(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.RedirectURL(r.Context(), r.URL.Query().Get("native") == "1", r.Header.Get("Origin"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"url": out.URL})
}

// callbackError keeps the user on a page: a rejected or expired code bounces
// back to the root with a marker the front end can show, anything else is a
// server-side failure.
func (h *HTTPHandler) callbackError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrUnauthenticated) || errors.Is(err, apperrors.ErrValidation) {
		http.Redirect(w, r, "/?auth_error=1", http.StatusSeeOther)
		return
	}
	h.writeError(w, err)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrNotConfigured):
		http.Error(w, "auth backend is not configured", http.StatusServiceUnavailable)
	default:
		log.Printf("auth: callback handler: %v", err)
		http.Error(w, "internal error", http.StatusBadGateway)
	}
}

func (h *HTTPHandler) render(w http.ResponseWriter, page *template.Template, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		log.Printf("auth: render callback page: %v", err)
	}
}

// deepLinkPage bounces a mobile browser into the installed app. The open is
// attempted immediately and retried once; the button and the plain link stay
// for browsers that block scripted navigation to custom schemes.
var deepLinkPage = template.Must(template.New("deeplink").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Opening the app…</title></head>
<body>
<p>Opening The Mountain Pathway…</p>
<p><button onclick="openApp()">Open the app</button></p>
<p>If nothing happens, <a href="{{.DeepLink}}">tap here</a>.</p>
<script>
// Fragment tokens never reach the server, so they are carried over here.
function openApp() { window.location.replace({{.DeepLink}} + window.location.hash); }
openApp();
setTimeout(openApp, 1500);
</script>
</body>
</html>
`))

// hashHandoffPage runs when the provider delivered tokens in the URL
// fragment, which never reaches the server. It posts them to the session
// endpoint and then continues to the intended destination.
var hashHandoffPage = template.Must(template.New("handoff").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Signing in…</title></head>
<body>
<p>Signing in…</p>
<script>
(function () {
	var next = {{.Next}};
	var params = new URLSearchParams(window.location.hash.replace(/^#/, ""));
	var token = params.get("access_token");
	if (!token) { window.location.replace("/?auth_error=1"); return; }
	fetch("/auth/session", {
		method: "POST",
		headers: { "Content-Type": "application/json" },
		body: JSON.stringify({ access_token: token, refresh_token: params.get("refresh_token") || "" })
	}).then(function (resp) {
		window.location.replace(resp.ok ? next : "/?auth_error=1");
	}).catch(function () {
		window.location.replace("/?auth_error=1");
	});
})();
</script>
</body>
</html>
`))
