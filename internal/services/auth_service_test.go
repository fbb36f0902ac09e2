package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/config"
	"github.com/tbourn/metrosite-backend/internal/domain"
	"github.com/tbourn/metrosite-backend/internal/otpstore"
	"github.com/tbourn/metrosite-backend/internal/repo"
)

// ---------- fakes ----------

type sentSMS struct{ phone, message string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSender) Send(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{phone, message})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTokens(t *testing.T) *auth.Issuer {
	t.Helper()
	i, err := auth.NewIssuer(config.JWTConfig{
		Secret:     strings.Repeat("k", 32),
		Issuer:     "metrosite",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return i
}

type authFixture struct {
	db     *gorm.DB
	store  *otpstore.Store
	sender *fakeSender
	svc    *AuthService
	clock  time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newSvcDB(t)
	store, err := otpstore.Open("")
	if err != nil {
		t.Fatalf("otpstore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &authFixture{db: db, store: store, sender: &fakeSender{}, clock: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}
	f.svc = NewAuthService(db, store, f.sender, newTokens(t))
	f.svc.Now = func() time.Time { return f.clock }
	return f
}

// ---------- Request ----------

func TestRequest_RegisterDeliversThenStores(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.svc.Request(ctx, "+998 90 123-45-67", domain.OTPRegister, "Aziz", "Aliyev")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(code) != 6 || strings.Trim(code, "0123456789") != "" {
		t.Fatalf("code = %q, want 6 digits", code)
	}
	if f.sender.count() != 1 {
		t.Fatalf("sent %d messages, want 1", f.sender.count())
	}
	msg := f.sender.sent[0]
	if msg.phone != phoneA || msg.message != "Metro: tasdiqlash kodingiz "+code {
		t.Fatalf("sms = %+v", msg)
	}
	ok, err := f.store.Exists(ctx, code)
	if err != nil || !ok {
		t.Fatalf("code not stored: %v %v", ok, err)
	}
}

func TestRequest_Validation(t *testing.T) {
	f := newAuthFixture(t)
	seedAccount(t, f.db, phoneA, "Aziz", "Aliyev")
	ctx := context.Background()

	tests := []struct {
		name   string
		phone  string
		action domain.OTPAction
		first  string
		want   error
	}{
		{"bad phone", "12345", domain.OTPRegister, "A", ErrInvalidPhone},
		{"bad action", "+998911111111", domain.OTPAction("reset"), "A", ErrInvalidAction},
		{"already registered", phoneA, domain.OTPRegister, "A", ErrAlreadyRegistered},
		{"missing name", "+998911111111", domain.OTPRegister, "  ", ErrNameRequired},
		{"unknown login", "+998911111111", domain.OTPLogin, "", ErrAccountNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, err := f.svc.Request(ctx, tc.phone, tc.action, tc.first, "")
			if !errors.Is(err, tc.want) || code != "" {
				t.Fatalf("got (%q, %v), want %v", code, err, tc.want)
			}
		})
	}
	if f.sender.count() != 0 {
		t.Fatalf("rejected requests must not send SMS, sent %d", f.sender.count())
	}
}

func TestRequest_DeliveryFailureStoresNothing(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.err = errors.New("gateway down")
	f.svc.NewCode = func() (string, error) { return "111111", nil }

	_, err := f.svc.Request(context.Background(), phoneA, domain.OTPRegister, "Aziz", "")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("want ErrDeliveryFailed, got %v", err)
	}
	if ok, _ := f.store.Exists(context.Background(), "111111"); ok {
		t.Fatalf("code stored after failed delivery")
	}
}

func TestRequest_RegeneratesOnCollision(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	codes := []string{"222222", "222222", "333333"}
	f.svc.NewCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	if c, err := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", ""); err != nil || c != "222222" {
		t.Fatalf("first = (%q, %v)", c, err)
	}
	c, err := f.svc.Request(ctx, "+998911111111", domain.OTPRegister, "Bobur", "")
	if err != nil || c != "333333" {
		t.Fatalf("second = (%q, %v), want 333333", c, err)
	}
	if f.sender.count() != 2 {
		t.Fatalf("a colliding code must not be sent; sent %d", f.sender.count())
	}
}

// ---------- Verify ----------

func TestVerify_RegisterCreatesVerifiedAccountAndComments(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	code, err := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", "Aliyev")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	sess, err := f.svc.Verify(ctx, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.Account == nil || !sess.Account.Verified || sess.Account.Phone != phoneA {
		t.Fatalf("account = %+v", sess.Account)
	}
	p, err := f.svc.Tokens.Parse(sess.Access, auth.TypeAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if p.Phone != phoneA || p.Role != domain.RoleVisitor || !p.IsAccount() {
		t.Fatalf("principal = %+v", p)
	}

	item := seedContent(t, f.db, domain.KindNews)
	comments := NewCommentService(f.db)
	c, err := comments.Post(ctx, item.ID, p.Phone, "Zo‘r yangilik!")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if c.Author != "Aziz Aliyev" {
		t.Fatalf("author = %q, want Aziz Aliyev", c.Author)
	}
}

func TestVerify_CodeIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code, _ := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", "")

	if _, err := f.svc.Verify(ctx, code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := f.svc.Verify(ctx, code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("second verify: want ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestVerify_ConcurrentExactlyOneWins(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code, _ := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", "")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Verify(ctx, code)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrInvalidOrExpiredCode) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestVerify_Expired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code, _ := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", "")

	f.clock = f.clock.Add(5*time.Minute + time.Second)
	if _, err := f.svc.Verify(ctx, code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("want ErrInvalidOrExpiredCode, got %v", err)
	}
	if _, err := repo.GetAccountByPhone(ctx, f.db, phoneA); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expired register must not create an account: %v", err)
	}
}

func TestVerify_UnknownAndEmpty(t *testing.T) {
	f := newAuthFixture(t)
	for _, code := range []string{"", "  ", "000000"} {
		if _, err := f.svc.Verify(context.Background(), code); !errors.Is(err, ErrInvalidOrExpiredCode) {
			t.Fatalf("code %q: want ErrInvalidOrExpiredCode, got %v", code, err)
		}
	}
}

func TestVerify_LoginAccountVanished(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	acc := seedAccount(t, f.db, phoneA, "Aziz", "")

	code, err := f.svc.Request(ctx, phoneA, domain.OTPLogin, "", "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := f.db.Delete(&domain.Account{}, "id = ?", acc.ID).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Verify(ctx, code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("want ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestVerify_LoginKeepsNames(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	seedAccount(t, f.db, phoneA, "Aziz", "Aliyev")

	code, _ := f.svc.Request(ctx, phoneA, domain.OTPLogin, "Ignored", "Name")
	sess, err := f.svc.Verify(ctx, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.Account.DisplayName() != "Aziz Aliyev" {
		t.Fatalf("login must not rename the account: %q", sess.Account.DisplayName())
	}
}

// ---------- Refresh ----------

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	code, _ := f.svc.Request(ctx, phoneA, domain.OTPRegister, "Aziz", "")
	sess, err := f.svc.Verify(ctx, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	next, err := f.svc.Refresh(ctx, sess.Refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.Account == nil || next.Account.ID != sess.Account.ID {
		t.Fatalf("refreshed account = %+v", next.Account)
	}
	if _, err := f.svc.Refresh(ctx, sess.Access); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("access as refresh: want ErrInvalidCredential, got %v", err)
	}
	if _, err := f.svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("garbage: want ErrInvalidCredential, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	acc := seedAccount(t, f.db, phoneA, "Aziz", "Aliyev")

	got, st, err := f.svc.Profile(ctx, auth.Principal{Subject: acc.ID, Kind: auth.KindAccount, Role: domain.RoleVisitor})
	if err != nil || st != nil || got.Phone != phoneA {
		t.Fatalf("Profile(account) = (%+v, %+v, %v)", got, st, err)
	}
	if _, _, err := f.svc.Profile(ctx, auth.Principal{Subject: "gone", Kind: auth.KindStaff, Role: domain.RoleHR}); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("missing staff: want ErrInvalidCredential, got %v", err)
	}
}
