package rbac_test

import (
	"testing"

	"github.com/redalab/redalab-backend/internal/rbac"
)

func TestDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "essay:create", true},
		{"student", "essay:correct", false},
		{"teacher", "essay:correct", true},
		{"teacher", "essay:create", false},
		{"admin", "essay:correct", true},
		{"admin", "anything:at-all", true},
		{"guest", "essay:view-own", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, role := range []string{"student", "teacher", "admin"} {
		if !rbac.Known(role) {
			t.Errorf("Known(%s) = false", role)
		}
	}
	if rbac.Known("guest") {
		t.Error("Known(guest) = true")
	}
}
