package localauth

import (
	"testing"
	"time"

	testutil "github.com/schoolier/backend/tests"
)

func TestMakeVerifyToken(t *testing.T) {
	conf := testutil.NewConfig()

	acct := &account{
		id:        "acct-1",
		email:     "t@test.test",
		name:      "T",
		lastLogin: time.Now(),
	}
	_ = acct.setPassword("pwd")

	validToken, err := makeToken(acct)
	if err != nil {
		t.Fatalf("makeToken() failed: %v", err)
	}

	// generate an expired token
	dayLate := conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := makeToken(acct)
	if err != nil {
		t.Fatalf("makeToken() failed: %v", err)
	}
	nowFunc = time.Now // reset

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", wantErr: errInvalidToken},
		{name: "invalid parts len", token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := verifyToken(acct, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("token invalidated by password change", func(t *testing.T) {
		token, err := makeToken(acct)
		if err != nil {
			t.Fatalf("makeToken() failed: %v", err)
		}
		_ = acct.setPassword("new-pwd")
		if err := verifyToken(acct, token); err != errInvalidToken {
			t.Errorf("verifyToken() error = %v, want errInvalidToken after password change", err)
		}
	})
}

func TestEncodeDecodeUID(t *testing.T) {
	acct := &account{id: "some-uuid-value"}
	uid := encodeUID(acct)

	id, err := decodeUID(uid)
	if err != nil {
		t.Fatalf("decodeUID() failed: %v", err)
	}
	if id != acct.id {
		t.Errorf("decodeUID() = %q, want %q", id, acct.id)
	}

	if _, err = decodeUID("%%%not-base64%%%"); err == nil {
		t.Error("decodeUID() accepted invalid input")
	}
}
