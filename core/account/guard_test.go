package account

import "testing"

func ident(role Role, status ApprovalStatus, active bool) Identity {
	return Identity{AccountID: "acct-1", Role: role, ApprovalStatus: status, IsActive: active}
}

func TestAuthorizeDeniesDeactivated(t *testing.T) {
	paths := []string{"/admin", "/teacher/classes", "/student", "/parent/fees", "/api/admin/users"}
	for _, role := range append(AssignableRoles, RoleUnassigned) {
		for _, path := range paths {
			v := Authorize(ident(role, ApprovalApproved, false), path)
			if v.Decision != Deny {
				t.Errorf("Authorize(inactive %s, %q) = %v; want deny", role, path, v.Decision)
			}
		}
	}
}

func TestAuthorizeAllowsPublicPaths(t *testing.T) {
	paths := []string{"/", "/about", "/login", "/register", "/select-role", "/pending-approval", "/administrivia"}
	idents := []Identity{
		ident(RoleUnassigned, ApprovalPending, true),
		ident(RoleStudent, ApprovalPending, true),
		ident(RoleTeacher, ApprovalRejected, true),
		ident(RoleAdmin, ApprovalApproved, true),
	}
	for _, id := range idents {
		for _, path := range paths {
			v := Authorize(id, path)
			if v.Decision != Allow {
				t.Errorf("Authorize(%s/%s, %q) = %v; want allow", id.Role, id.ApprovalStatus, path, v.Decision)
			}
		}
	}
}

func TestAuthorizeUnapprovedRedirects(t *testing.T) {
	tests := []struct {
		name         string
		id           Identity
		path         string
		wantLocation string
	}{
		{"unassigned goes to role selection", ident(RoleUnassigned, ApprovalPending, true), "/student", PathSelectRole},
		{"unassigned on api path", ident(RoleUnassigned, ApprovalPending, true), "/api/admin/users", PathSelectRole},
		{"pending teacher", ident(RoleTeacher, ApprovalPending, true), "/teacher", PathPendingApproval},
		{"pending teacher on own api", ident(RoleTeacher, ApprovalPending, true), "/api/teacher/classes", PathPendingApproval},
		{"rejected student", ident(RoleStudent, ApprovalRejected, true), "/student", PathPendingApproval},
		{"pending admin on foreign prefix", ident(RoleAdmin, ApprovalPending, true), "/student", PathPendingApproval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Authorize(tt.id, tt.path)
			if v.Decision != Redirect {
				t.Fatalf("Authorize() = %v; want redirect", v.Decision)
			}
			if v.Location != tt.wantLocation {
				t.Errorf("Authorize() location = %q; want %q", v.Location, tt.wantLocation)
			}
		})
	}
}

func TestAuthorizeApproved(t *testing.T) {
	tests := []struct {
		name         string
		role         Role
		path         string
		want         Decision
		wantLocation string
	}{
		{"student on own dashboard", RoleStudent, "/student", Allow, ""},
		{"student on own subpath", RoleStudent, "/student/grades/123", Allow, ""},
		{"student on own api", RoleStudent, "/api/student/grades", Allow, ""},
		{"student on teacher path", RoleStudent, "/teacher/classes", Redirect, PathStudent},
		{"teacher on admin path", RoleTeacher, "/admin/users", Redirect, PathTeacher},
		{"parent on student api", RoleParent, "/api/student/grades", Redirect, PathParent},
		{"admin on own path", RoleAdmin, "/admin/users", Allow, ""},
		{"admin on teacher path", RoleAdmin, "/teacher", Redirect, PathAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Authorize(ident(tt.role, ApprovalApproved, true), tt.path)
			if v.Decision != tt.want {
				t.Fatalf("Authorize() = %v; want %v", v.Decision, tt.want)
			}
			if v.Location != tt.wantLocation {
				t.Errorf("Authorize() location = %q; want %q", v.Location, tt.wantLocation)
			}
		})
	}
}

func TestDashboardPathIsTotal(t *testing.T) {
	for _, role := range AssignableRoles {
		if p := role.DashboardPath(); p == "" || p == PathSelectRole {
			t.Errorf("DashboardPath(%s) = %q; want a dashboard prefix", role, p)
		}
	}
	if p := RoleUnassigned.DashboardPath(); p != PathSelectRole {
		t.Errorf("DashboardPath(unassigned) = %q; want %q", p, PathSelectRole)
	}
}
