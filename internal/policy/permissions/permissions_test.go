package permissions

import "testing"

func TestIsAdminStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   bool
	}{
		{status: "creator", want: true},
		{status: "administrator", want: true},
		{status: "member", want: false},
		{status: "restricted", want: false},
		{status: "kicked", want: false},
		{status: "left", want: false},
		{status: "", want: false},
		{status: "Administrator", want: false},
	}

	for _, tt := range tests {
		if got := IsAdminStatus(tt.status); got != tt.want {
			t.Fatalf("IsAdminStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsStaffSkipsBots(t *testing.T) {
	t.Parallel()

	if IsStaff("administrator", true) {
		t.Fatalf("bots must not be listed as staff")
	}
	if !IsStaff("creator", false) {
		t.Fatalf("creator must be listed as staff")
	}
}
