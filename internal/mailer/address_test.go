package mailer

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a@x.com", "a@x.com", false},
		{"  a@x.com ", "a@x.com", false},
		{"Ana <ana@homemarket.example.com>", "ana@homemarket.example.com", false},
		{"<b@x.com>", "b@x.com", false},
		{"not-an-address", "", true},
		{"a@localhost", "", true},
		{"a@.x.com", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("a@x.com"); got != "x.com" {
		t.Errorf("Domain = %q", got)
	}
	if got := Domain("nodomain"); got != "" {
		t.Errorf("Domain = %q, want empty", got)
	}
}
