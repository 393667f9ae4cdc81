// Package guard decides whether a caller may enter an attendance-gated area.
//
// Decide is pure: the caller passes the session role, the attendance record and
// the loading flags it currently knows, and gets back a single decision.
// The HTTP middleware (middleware.RequireAttendance) and the dashboard session
// (dashboard.Session.Access) both build an Input per evaluation instead of
// reading shared session state.
package guard

import (
	"net/url"
	"strings"

	"github.com/cleanspin/laundry-ops/internal/models"
)

// Kind is the outcome of an access decision
type Kind string

const (
	// Hold means nothing may be rendered yet: data is loading, or a redirect
	// would point at the page the caller is already on.
	Hold       Kind = "HOLD"
	Allow      Kind = "ALLOW"
	GoSignIn   Kind = "GO_SIGN_IN"
	GoRedirect Kind = "GO_REDIRECT"
)

// Decision is the result of Decide; Target is set only for GoRedirect
type Decision struct {
	Kind   Kind
	Target string
}

// Input is everything an access decision depends on
type Input struct {
	HasSession          bool
	Role                *models.Role
	AllowedRoles        []models.Role
	Attendance          *models.AttendanceRecord
	Pathname            string
	IsLoadingProfile    bool
	IsLoadingAttendance bool
	RequireCheckIn      bool
	RedirectTarget      string
}

// Decide evaluates the admission rules in order; the first match wins.
// An empty AllowedRoles admits nobody.
func Decide(in Input) Decision {
	if !in.HasSession {
		return Decision{Kind: GoSignIn}
	}
	if in.IsLoadingProfile {
		return Decision{Kind: Hold}
	}
	if in.Role == nil || !in.Role.Valid() || !models.HasRole(*in.Role, in.AllowedRoles...) {
		return Decision{Kind: GoSignIn}
	}
	if !in.RequireCheckIn {
		return Decision{Kind: Allow}
	}
	if in.IsLoadingAttendance {
		return Decision{Kind: Hold}
	}
	if in.Attendance.IsCheckedIn() && !in.Attendance.IsCompleted() {
		return Decision{Kind: Allow}
	}
	if samePath(in.Pathname, in.RedirectTarget) {
		return Decision{Kind: Hold}
	}
	return Decision{Kind: GoRedirect, Target: in.RedirectTarget}
}

// CheckInTarget builds the redirect target for the check-in page, keeping the
// originally requested path in the "next" query parameter.
func CheckInTarget(checkInPath, requested string) string {
	if requested == "" || samePath(requested, checkInPath) {
		return checkInPath
	}
	return checkInPath + "?" + url.Values{"next": {requested}}.Encode()
}

// samePath compares the path components, ignoring query strings
func samePath(a, b string) bool {
	a, _, _ = strings.Cut(a, "?")
	b, _, _ = strings.Cut(b, "?")
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
