package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

func TestRequestOTP_RegisterThenVerify(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, call{method: http.MethodPost, path: "/auth/otp/request", body: OTPRequest{
		Phone: "+998 90 123-45-67", Action: domain.OTPRegister, FirstName: "Aziz",
	}})
	if w.Code != http.StatusAccepted {
		t.Fatalf("request -> %d %s", w.Code, w.Body.String())
	}
	ack := decode[OTPRequestResponse](t, w)
	if ack.Status != "sent" || ack.ExpiresIn != 300 {
		t.Fatalf("ack = %+v", ack)
	}
	code := f.sender.code()
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}
	if strings.Contains(w.Body.String(), code) {
		t.Fatalf("code echoed in response: %s", w.Body.String())
	}

	w = f.do(t, call{method: http.MethodPost, path: "/auth/otp/verify", body: OTPVerifyRequest{Code: code}})
	if w.Code != http.StatusOK {
		t.Fatalf("verify -> %d %s", w.Code, w.Body.String())
	}
	s := decode[SessionResponse](t, w)
	if s.Access == "" || s.Refresh == "" || s.AccessExpiresAt.IsZero() {
		t.Fatalf("session = %+v", s)
	}
	if s.User.Phone != phoneA || !s.User.Verified || s.User.Role != domain.RoleVisitor {
		t.Fatalf("user = %+v", s.User)
	}

	// The code is single use.
	w = f.do(t, call{method: http.MethodPost, path: "/auth/otp/verify", body: OTPVerifyRequest{Code: code}})
	if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeInvalidCode {
		t.Fatalf("reuse -> %d %s", w.Code, w.Body.String())
	}

	// /auth/me with the fresh access token.
	w = f.do(t, call{method: http.MethodGet, path: "/auth/me", token: s.Access})
	if w.Code != http.StatusOK {
		t.Fatalf("me -> %d %s", w.Code, w.Body.String())
	}
	if me := decode[UserView](t, w); me.Kind != "account" || me.FirstName != "Aziz" {
		t.Fatalf("me = %+v", me)
	}

	// Refresh rotates the pair.
	w = f.do(t, call{method: http.MethodPost, path: "/auth/token/refresh", body: RefreshRequest{Refresh: s.Refresh}})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh -> %d %s", w.Code, w.Body.String())
	}
	// An access token is not a refresh token.
	w = f.do(t, call{method: http.MethodPost, path: "/auth/token/refresh", body: RefreshRequest{Refresh: s.Access}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access -> %d", w.Code)
	}
}

func TestRequestOTP_ErrorMappings(t *testing.T) {
	f := newFixture(t)
	f.accountToken(t, phoneA, "Aziz")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"bad json", "{bad", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad phone", OTPRequest{Phone: "12ab", Action: domain.OTPLogin}, http.StatusBadRequest, ErrCodeBadRequest},
		{"bad action", OTPRequest{Phone: phoneB, Action: "reset"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"register without name", OTPRequest{Phone: phoneB, Action: domain.OTPRegister}, http.StatusBadRequest, ErrCodeBadRequest},
		{"register known phone", OTPRequest{Phone: phoneA, Action: domain.OTPRegister, FirstName: "A"}, http.StatusConflict, ErrCodeAlreadyRegistered},
		{"login unknown phone", OTPRequest{Phone: phoneB, Action: domain.OTPLogin}, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, call{method: http.MethodPost, path: "/auth/otp/request", body: tc.body})
			if w.Code != tc.status || errCode(t, w) != tc.code {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRequestOTP_DeliveryFailureHidesProviderText(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("eskiz: 500 balance exhausted for account 42")

	w := f.do(t, call{method: http.MethodPost, path: "/auth/otp/request", body: OTPRequest{
		Phone: phoneB, Action: domain.OTPRegister, FirstName: "Aziz",
	}})
	if w.Code != http.StatusBadGateway || errCode(t, w) != ErrCodeDeliveryFailed {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "balance") {
		t.Fatalf("provider text leaked: %s", w.Body.String())
	}
}

func TestVerifyOTP_MalformedCode(t *testing.T) {
	f := newFixture(t)
	for _, code := range []string{"", "12345", "abcdef", "1234567"} {
		w := f.do(t, call{method: http.MethodPost, path: "/auth/otp/verify", body: OTPVerifyRequest{Code: code}})
		if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeInvalidCode {
			t.Fatalf("code %q -> %d %s", code, w.Code, w.Body.String())
		}
	}
}

func TestStaffLogin_CreateStaff_Me(t *testing.T) {
	f := newFixture(t)
	admin := f.staffToken(t, "root", domain.RoleAdmin)

	w := f.do(t, call{method: http.MethodPost, path: "/staff", token: admin, body: CreateStaffRequest{
		Username: "hr.lead", Password: "long-enough-password", Role: "hr",
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create staff -> %d %s", w.Code, w.Body.String())
	}
	if v := decode[UserView](t, w); v.Kind != "staff" || v.Role != domain.RoleHR {
		t.Fatalf("staff view = %+v", v)
	}

	w = f.do(t, call{method: http.MethodPost, path: "/staff", token: admin, body: CreateStaffRequest{
		Username: "hr.lead", Password: "long-enough-password", Role: "hr",
	}})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate -> %d", w.Code)
	}
	w = f.do(t, call{method: http.MethodPost, path: "/staff", token: admin, body: CreateStaffRequest{
		Username: "x", Password: "long-enough-password", Role: "visitor",
	}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("visitor role -> %d", w.Code)
	}

	w = f.do(t, call{method: http.MethodPost, path: "/auth/staff/login", body: StaffLoginRequest{Username: "hr.lead", Password: "wrong-password"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password -> %d", w.Code)
	}
	w = f.do(t, call{method: http.MethodPost, path: "/auth/staff/login", body: StaffLoginRequest{Username: "hr.lead", Password: "long-enough-password"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login -> %d %s", w.Code, w.Body.String())
	}
	s := decode[SessionResponse](t, w)
	if s.User.Username != "hr.lead" || s.User.Role != domain.RoleHR {
		t.Fatalf("login user = %+v", s.User)
	}

	w = f.do(t, call{method: http.MethodGet, path: "/auth/me", token: s.Access})
	if w.Code != http.StatusOK || decode[UserView](t, w).Username != "hr.lead" {
		t.Fatalf("me -> %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, call{method: http.MethodGet, path: "/auth/me"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me -> %d", w.Code)
	}
}
