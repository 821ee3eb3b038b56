package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires the handlers and middleware for the scheduler's HTTP
// surface. RequireSession gates the host-only admin routes (event types,
// connected accounts, calendars); Availability and the whole /bookings
// surface (Commit, Get, Reschedule, Cancel) stay public since guests never
// authenticate — reschedule and cancel instead check a guest email match
// inside the application layer. Middleware applies to every route, in
// order, innermost last (so Middleware[0] runs first).
type RouterConfig struct {
	Auth           *AuthHandler
	Availability   *AvailabilityHandler
	Bookings       *BookingHandler
	EventTypes     *EventTypeHandler
	Accounts       *AccountHandler
	RequireSession func(http.Handler) http.Handler
	Middleware     []func(http.Handler) http.Handler

	// RateLimitBooking, RateLimitAvailability, and RateLimitOAuth wrap
	// their routes with a per-client fixed-window limiter: RateLimitBooking
	// wraps POST /bookings, RateLimitAvailability wraps GET /availability,
	// and RateLimitOAuth wraps POST /sessions and /accounts (GET and POST,
	// inside the session gate). Nil leaves the route unlimited.
	RateLimitBooking      func(http.Handler) http.Handler
	RateLimitAvailability func(http.Handler) http.Handler
	RateLimitOAuth        func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireSession := cfg.RequireSession
	if requireSession == nil {
		requireSession = func(next http.Handler) http.Handler { return next }
	}

	oauthLimit := cfg.RateLimitOAuth
	if oauthLimit == nil {
		oauthLimit = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Auth != nil {
		mux.Handle("/sessions", oauthLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})))
		mux.Handle("/sessions/current", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})))
	}

	availabilityLimit := cfg.RateLimitAvailability
	if availabilityLimit == nil {
		availabilityLimit = func(next http.Handler) http.Handler { return next }
	}
	bookingLimit := cfg.RateLimitBooking
	if bookingLimit == nil {
		bookingLimit = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Availability != nil {
		mux.Handle("/availability", availabilityLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Availability.ListSlots(w, r)
		})))
	}

	if cfg.Bookings != nil {
		mux.Handle("/bookings", bookingLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Bookings.Commit(w, r)
		})))
		mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
			uid := strings.TrimPrefix(r.URL.Path, "/bookings/")
			if uid == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithBookingUID(r.Context(), uid)
			r = r.WithContext(ctx)
			switch r.Method {
			case http.MethodGet:
				cfg.Bookings.Get(w, r)
			case http.MethodPatch:
				cfg.Bookings.Reschedule(w, r)
			case http.MethodDelete:
				cfg.Bookings.Cancel(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	if cfg.EventTypes != nil {
		mux.Handle("/event-types", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.EventTypes.List(w, r)
			case http.MethodPost:
				cfg.EventTypes.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.HandleFunc("/event-types/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/event-types/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithEventTypeID(r.Context(), id)
			r = r.WithContext(ctx)

			if r.Method == http.MethodGet {
				// Public: guests resolve an event type by id to render a booking page.
				cfg.EventTypes.Get(w, r)
				return
			}

			requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodPut:
					cfg.EventTypes.Update(w, r)
				case http.MethodDelete:
					cfg.EventTypes.Deactivate(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			})).ServeHTTP(w, r)
		})
	}

	if cfg.Accounts != nil {
		mux.Handle("/accounts", requireSession(oauthLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Accounts.List(w, r)
			case http.MethodPost:
				cfg.Accounts.Connect(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))))
		mux.Handle("/accounts/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/accounts/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			if id, ok := strings.CutSuffix(rest, "/calendars"); ok {
				if id == "" {
					http.NotFound(w, r)
					return
				}
				ctx := ContextWithAccountID(r.Context(), id)
				r = r.WithContext(ctx)
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Accounts.ListCalendars(w, r)
				return
			}

			ctx := ContextWithAccountID(r.Context(), rest)
			r = r.WithContext(ctx)
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Accounts.Disconnect(w, r)
		})))
		mux.Handle("/calendars/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/calendars/")
			id, ok := strings.CutSuffix(rest, "/selection")
			if !ok || id == "" {
				http.NotFound(w, r)
				return
			}
			ctx := ContextWithCalendarID(r.Context(), id)
			r = r.WithContext(ctx)
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Accounts.SetCalendarSelection(w, r)
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
