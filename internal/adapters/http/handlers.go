package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"fieldhouse/internal/adapters/http/middleware"
	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/intake"
	"fieldhouse/internal/domain/member"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
	writeErrorKind(w, http.StatusInternalServerError, string(apperr.KindInternal), "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
// An empty body decodes as an empty object.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("body", "malformed JSON: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeErrorKind(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// writeError maps err onto the taxonomy. Internal errors are logged, never echoed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		internalError(w, r, err)
		return
	}
	detail := errorDetail{Kind: string(kind), Message: apperr.PublicMessage(err)}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		detail.Field = ve.Field
	}
	writeJSON(w, apperr.HTTPStatus(err), errorBody{Error: detail})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="/login">
{{.CSRFField}}
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button>
</form>
</body></html>
`))

// handleLoginForm serves GET /login with a CSRF-protected form.
func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, map[string]any{"CSRFField": csrf.TemplateField(r)}); err != nil {
		slog.Error("render_failed", "page", "login", "error", err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /login from JSON clients and the HTML form.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSONRequest(r) {
		if err := strictDecode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, apperr.Validation("body", "invalid form submission"))
			return
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{MemberStore: s.stores.MemberStore, Now: s.opts.Now})
	if err != nil {
		if errors.Is(err, orchestrators.ErrInvalidCredentials) || errors.Is(err, orchestrators.ErrAccountLocked) {
			writeErrorKind(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}
		internalError(w, r, err)
		return
	}

	token, err := s.sessions.Create(result.MemberID, result.Email, result.Role)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if err := s.cookies.Set(w, token); err != nil {
		s.sessions.Delete(token)
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"memberId": result.MemberID,
		"email":    result.Email,
		"role":     string(result.Role),
	})
}

// handleLogout handles POST /logout. Logging out without a session succeeds.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := s.cookies.Token(r); ok {
		s.sessions.Delete(token)
	}
	s.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// actorFrom returns the caller's identity, if signed in. The role is read
// from the member store on every call so a role change applies to live
// sessions; a session whose member no longer exists is dropped.
func (s *server) actorFrom(r *http.Request) (orchestrators.Actor, bool, error) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		return orchestrators.Actor{}, false, nil
	}
	m, err := s.stores.MemberStore.GetByID(r.Context(), sess.MemberID)
	if errors.Is(err, member.ErrNotFound) {
		if token, ok := s.cookies.Token(r); ok {
			s.sessions.Delete(token)
		}
		return orchestrators.Actor{}, false, nil
	}
	if err != nil {
		return orchestrators.Actor{}, false, err
	}
	return orchestrators.Actor{MemberID: m.ID, Role: m.Role}, true, nil
}

func (s *server) intakeDeps() orchestrators.IntakeDeps {
	return orchestrators.IntakeDeps{
		Forwarder:    s.collab.Forwarder,
		Notifier:     s.collab.Notifier,
		Unsubscriber: s.collab.Unsubscriber,
	}
}

// handleIntake handles POST /api/intake, the public lead form.
// Once validation passes the submitter is always told the lead was accepted.
func (s *server) handleIntake(w http.ResponseWriter, r *http.Request) {
	var lead intake.Lead
	if err := strictDecode(r, &lead); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := orchestrators.ExecuteSubmitIntake(r.Context(), lead, s.intakeDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted":  true,
		"forwarded": result.Forwarded,
		"notified":  result.Notified,
	})
}

const unsubscribedCopy = `## You're unsubscribed

We won't send you any more program updates or offers.
If this was a mistake, just reply to any of our past emails or fill in the interest form again.`

const unsubscribeInvalidCopy = `## We couldn't find that address

The unsubscribe link looks incomplete. Please use the link from the bottom of one of our emails.`

var unsubscribePage = template.Must(template.New("unsubscribe").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Email preferences</title></head>
<body>
<main>
{{.Body}}
{{if .Email}}<p>Address: {{.Email}}</p>{{end}}
</main>
</body></html>
`))

func renderMarkdownPage(w http.ResponseWriter, status int, md, email string) {
	var buf bytes.Buffer
	body := template.HTML(template.HTMLEscapeString(md))
	if err := mdRenderer.Convert([]byte(md), &buf); err == nil {
		body = template.HTML(buf.String())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := unsubscribePage.Execute(w, map[string]any{"Body": body, "Email": email}); err != nil {
		slog.Error("render_failed", "page", "unsubscribe", "error", err)
	}
}

// handleUnsubscribe handles GET /unsubscribe?email=. A valid address always
// gets the confirmation page, whether or not the lead system was reachable.
func (s *server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if _, err := orchestrators.ExecuteUnsubscribe(r.Context(), email, s.intakeDeps()); err != nil {
		renderMarkdownPage(w, http.StatusBadRequest, unsubscribeInvalidCopy, "")
		return
	}
	renderMarkdownPage(w, http.StatusOK, unsubscribedCopy, strings.TrimSpace(email))
}

type checkoutRequest struct {
	ProductID string `json:"productId"`
}

// handleCheckout handles POST /api/checkout. When the provider is missing or
// failing the error message asks the customer to phone instead.
func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	url, err := orchestrators.ExecuteCheckoutLink(r.Context(), req.ProductID, orchestrators.CheckoutDeps{Linker: s.collab.Checkout})
	if err != nil {
		kind := apperr.KindOf(err)
		if kind != apperr.KindUpstream && kind != apperr.KindUnconfigured {
			writeError(w, r, err)
			return
		}
		writeErrorKind(w, apperr.HTTPStatus(err), string(kind), orchestrators.CheckoutFallbackMessage(s.opts.BusinessPhone))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
