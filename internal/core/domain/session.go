package domain

// SessionStatus is the authentication state of the console process.
type SessionStatus string

const (
	SessionUnknown       SessionStatus = "unknown"
	SessionValidating    SessionStatus = "validating"
	SessionAuthenticated SessionStatus = "authenticated"
	SessionAnonymous     SessionStatus = "anonymous"
)

// Loading reports whether the status is not final yet. Pages must render a
// loading state rather than redirect while this is true.
func (s SessionStatus) Loading() bool {
	return s == SessionUnknown || s == SessionValidating
}

// DemotionReason records why startup revalidation ended in anonymous.
type DemotionReason string

const (
	DemotionNone        DemotionReason = ""
	DemotionExpired     DemotionReason = "expired"
	DemotionRejected    DemotionReason = "rejected"
	DemotionUnreachable DemotionReason = "unreachable"
	DemotionMalformed   DemotionReason = "malformed"
)

// Session is a point-in-time copy of the session store.
//
// Invariants: User != nil iff Status == SessionAuthenticated;
// Token != "" iff Status is validating or authenticated.
type Session struct {
	Status  SessionStatus  `json:"status"`
	User    *User          `json:"user,omitempty"`
	Token   string         `json:"-"`
	Demoted DemotionReason `json:"demoted,omitempty"`
}

// Authenticated is shorthand for Status == SessionAuthenticated.
func (s Session) Authenticated() bool { return s.Status == SessionAuthenticated }
