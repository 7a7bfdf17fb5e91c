package account

import "strings"

// Auth flow destinations.
const (
	PathLogin           = "/login"
	PathSelectRole      = "/select-role"
	PathPendingApproval = "/pending-approval"
)

// Dashboard prefixes; requests under these (and their /api equivalents) are
// protected, everything else is public.
const (
	PathAdmin   = "/admin"
	PathTeacher = "/teacher"
	PathStudent = "/student"
	PathParent  = "/parent"
)

var protectedPrefixes = []string{PathAdmin, PathTeacher, PathStudent, PathParent}

// Identity is the authenticated caller's state as supplied by the session
// provider. Authorize takes it explicitly; there is no ambient session.
type Identity struct {
	AccountID      string
	Role           Role
	ApprovalStatus ApprovalStatus
	IsActive       bool
}

type Decision int

const (
	Allow Decision = iota
	Redirect
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "deny"
	}
}

// Verdict is the guard's outcome for one request. Location is only set for
// Redirect.
type Verdict struct {
	Decision Decision
	Location string
}

func allow() Verdict             { return Verdict{Decision: Allow} }
func deny() Verdict              { return Verdict{Decision: Deny} }
func redirect(to string) Verdict { return Verdict{Decision: Redirect, Location: to} }

// Authorize decides whether the caller may reach the requested path. It is a
// total function over well-formed identities: the outcome is always one of
// Allow, Redirect or Deny, checked in order:
//
//  1. deactivated accounts are denied everything, whether or not login
//     already failed upstream;
//  2. public paths are allowed unconditionally;
//  3. unapproved callers are sent to role selection (no role yet) or the
//     pending-approval screen;
//  4. approved callers reach their own dashboard prefix and are bounced back
//     to it from anyone else's.
func Authorize(ident Identity, path string) Verdict {
	if !ident.IsActive {
		return deny()
	}

	if !isProtected(path) {
		return allow()
	}

	if ident.ApprovalStatus != ApprovalApproved {
		if ident.Role == RoleUnassigned {
			return redirect(PathSelectRole)
		}
		return redirect(PathPendingApproval)
	}

	own := ident.Role.DashboardPath()
	if hasPathPrefix(path, own) || hasPathPrefix(path, "/api"+own) {
		return allow()
	}
	return redirect(own)
}

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if hasPathPrefix(path, p) || hasPathPrefix(path, "/api"+p) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches on whole path segments so that e.g. /administrivia is
// not protected by /admin.
func hasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
