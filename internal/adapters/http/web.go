package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldhouse/internal/adapters/http/middleware"
	attendanceStore "fieldhouse/internal/adapters/storage/attendance"
	bookingStore "fieldhouse/internal/adapters/storage/booking"
	enrollmentStore "fieldhouse/internal/adapters/storage/enrollment"
	guardianStore "fieldhouse/internal/adapters/storage/guardian"
	memberStore "fieldhouse/internal/adapters/storage/member"
	programStore "fieldhouse/internal/adapters/storage/program"
	scheduleStore "fieldhouse/internal/adapters/storage/schedule"
	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/domain/schedule"
)

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore     memberStore.Store
	ProgramStore    programStore.Store
	EnrollmentStore enrollmentStore.Store
	ScheduleStore   scheduleStore.Store
	AttendanceStore attendanceStore.Store
	BookingStore    bookingStore.Store
	GuardianStore   guardianStore.Store
}

// Collaborators are the external services. Leave a field nil when the
// deployment does not configure that service.
type Collaborators struct {
	Forwarder    orchestrators.LeadForwarder
	Notifier     orchestrators.LeadNotifier
	Unsubscriber orchestrators.Unsubscriber
	Checkout     orchestrators.CheckoutLinker
}

// Options tunes the HTTP surface.
type Options struct {
	CSRFKey        []byte // 32 bytes
	SessionKey     []byte // at least 32 bytes
	Secure         bool   // HTTPS-only cookies and strict CSRF referer checks
	TrustedOrigins []string
	DayOrder       schedule.DayOrder
	BusinessPhone  string
	RateLimitRPS   float64
	RateLimitBurst int
	SlowRequest    time.Duration

	// Now and GenerateID are injectable for tests; nil uses the clock and UUIDs.
	Now        orchestrators.NowFunc
	GenerateID orchestrators.IDFunc
}

// server carries everything handlers need. One is built per NewMux call.
type server struct {
	stores   Stores
	collab   Collaborators
	opts     Options
	sessions *middleware.SessionStore
	cookies  *middleware.Cookies
	procs    map[string]procedure
}

// NewMux wires HTTP handlers for the app.
func NewMux(s Stores, c Collaborators, opts Options) http.Handler {
	if len(opts.DayOrder) == 0 {
		opts.DayOrder = schedule.DefaultDayOrder()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 2 * int(opts.RateLimitRPS+0.5)
	}

	srv := &server{
		stores:   s,
		collab:   c,
		opts:     opts,
		sessions: middleware.NewSessionStore(),
		cookies:  middleware.NewCookies(opts.SessionKey, opts.Secure),
	}
	srv.procs = srv.procedures()

	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	// SecurityHeaders -> RateLimit -> Auth -> CSRF -> Timing -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Auth(srv.sessions, srv.cookies),
		middleware.CSRF(opts.CSRFKey, opts.Secure, opts.TrustedOrigins),
		middleware.Timing(opts.SlowRequest),
	)
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("POST /api/intake", s.handleIntake)
	mux.HandleFunc("GET /unsubscribe", s.handleUnsubscribe)
	mux.HandleFunc("POST /api/checkout", s.handleCheckout)

	mux.HandleFunc("POST /rpc/{procedure}", s.handleRPC)
}
