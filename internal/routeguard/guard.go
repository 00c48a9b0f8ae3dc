// Package routeguard decides, for one navigation event, whether to render
// the requested path or redirect. It is a pure function over a session
// snapshot: the routing layer evaluates it explicitly on every navigation,
// and it never mutates session state.
package routeguard

import (
	"strings"

	"studygenie/internal/session"
)

// Class partitions paths by the access they require.
type Class int

const (
	// PathPublic pages (login, register) need no session.
	PathPublic Class = iota
	// PathOnboarding is reachable only while authenticated but not yet
	// onboarded.
	PathOnboarding
	// PathProtected pages need an authenticated, onboarded session.
	PathProtected
)

// Well-known navigation targets.
const (
	LoginPath      = "/login"
	RegisterPath   = "/register"
	OnboardingPath = "/onboarding"
	DashboardPath  = "/dashboard"
)

// Decision is the outcome of one navigation event. Exactly one of Render
// or Redirect applies; Placeholder marks the loading state render.
type Decision struct {
	Render      bool
	Placeholder bool
	Redirect    string
}

func render() Decision            { return Decision{Render: true} }
func placeholder() Decision       { return Decision{Render: true, Placeholder: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// Classify maps a requested path to its access class. Unknown paths are
// protected: the catch-all lands on the dashboard once the session allows
// it.
func Classify(path string) Class {
	switch normalize(path) {
	case LoginPath, RegisterPath:
		return PathPublic
	case OnboardingPath:
		return PathOnboarding
	default:
		return PathProtected
	}
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// Decide applies the routing decision table to one navigation event.
//
// Redirect targets are chosen so that re-evaluating the guard at the
// target with the same snapshot always renders; there is no snapshot from
// which the guard can loop.
func Decide(snap session.Snapshot, path string) Decision {
	// While the session is still bootstrapping nothing can be decided;
	// render the loading placeholder instead of guessing a redirect.
	if snap.Loading {
		return placeholder()
	}

	class := Classify(path)

	if !snap.Authenticated {
		if class == PathPublic {
			return render()
		}
		return redirect(LoginPath)
	}

	if !snap.Onboarded {
		if class == PathOnboarding {
			return render()
		}
		return redirect(OnboardingPath)
	}

	// Authenticated and onboarded: onboarding and the auth pages are
	// behind us.
	if class == PathOnboarding || class == PathPublic {
		return redirect(DashboardPath)
	}
	return render()
}
