package auth

import "testing"

func TestAuthorize(t *testing.T) {
	caller := &Identity{UserID: "u1", Email: "a@x.com"}

	tests := []struct {
		name       string
		req        Request
		caller     *Identity
		isAdmin    bool
		wantAllow  bool
		wantReason string
	}{
		{"skip auth without caller", Request{Recipients: []string{"z@y.com"}, SkipAuthorization: true}, nil, false, true, ""},
		{"no caller", Request{Recipients: []string{"a@x.com"}}, nil, false, false, ReasonAuthenticationRequired},
		{"admin sends anywhere", Request{Recipients: []string{"b@x.com", "c@y.com"}}, caller, true, true, ""},
		{"self send", Request{Recipients: []string{"a@x.com"}}, caller, false, true, ""},
		{"self send case-insensitive", Request{Recipients: []string{"A@X.COM"}}, caller, false, true, ""},
		{"other recipient", Request{Recipients: []string{"b@x.com"}}, caller, false, false, ReasonRecipientMismatch},
		{"one of many mismatches", Request{Recipients: []string{"a@x.com", "b@x.com"}}, caller, false, false, ReasonRecipientMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.req, tt.caller, tt.isAdmin)
			if got.Allowed != tt.wantAllow {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllow)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		identity *Identity
		want     bool
	}{
		{nil, false},
		{&Identity{Role: "admin"}, true},
		{&Identity{Role: "Super_Admin"}, true},
		{&Identity{Role: "authenticated"}, false},
		{&Identity{}, false},
	}
	for _, tt := range tests {
		if got := tt.identity.IsAdmin(); got != tt.want {
			t.Errorf("IsAdmin(%+v) = %v, want %v", tt.identity, got, tt.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def", "abc.def", nil},
		{"bearer   abc", "abc", nil},
		{"", "", ErrMissingToken},
		{"Basic abc", "", ErrTokenMalformed},
		{"Bearer ", "", ErrTokenMalformed},
		{"abc", "", ErrTokenMalformed},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if err != tt.wantErr || got != tt.want {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
		}
	}
}
