package auth

import "testing"

func TestIsAuthorized(t *testing.T) {
	a := NewAuthorizer([]int64{111, 222})
	if !a.IsAuthorized(111) {
		t.Error("Expected 111 to be authorized")
	}
	if !a.IsAuthorized(222) {
		t.Error("Expected 222 to be authorized")
	}
	if a.IsAuthorized(333) {
		t.Error("Expected 333 to be rejected")
	}
}

func TestEmptyAllowList(t *testing.T) {
	a := NewAuthorizer(nil)
	if a.IsAuthorized(1) {
		t.Error("Expected rejection with empty allow-list")
	}
}
