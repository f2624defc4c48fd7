package models

import "testing"

func TestValidChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    bool
	}{
		{"email", true},
		{"sms", true},
		{"push", true},
		{"", false},
		{"Email", false},
		{"fax", false},
	}

	for _, tt := range tests {
		if got := ValidChannel(tt.channel); got != tt.want {
			t.Errorf("ValidChannel(%q) = %v, want %v", tt.channel, got, tt.want)
		}
	}
}
