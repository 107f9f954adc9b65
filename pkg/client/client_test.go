package client

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const secretJSON = `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := saveToken(path, want); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	got, err := TokenFromFile(path)
	if err != nil {
		t.Fatalf("TokenFromFile: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestNewFromJSON(t *testing.T) {
	dir := t.TempDir()

	t.Run("no token and not interactive", func(t *testing.T) {
		_, err := NewFromJSON([]byte(secretJSON), Config{TokenFile: filepath.Join(dir, "absent.json")})
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("got %v, want ErrNoToken", err)
		}
	})

	t.Run("cached token", func(t *testing.T) {
		path := filepath.Join(dir, "token.json")
		if err := saveToken(path, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}
		c, err := NewFromJSON([]byte(secretJSON), Config{TokenFile: path})
		if err != nil || c == nil {
			t.Errorf("got %v, %v", c, err)
		}
	})

	t.Run("invalid secret", func(t *testing.T) {
		if _, err := NewFromJSON([]byte(`{}`), Config{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateState()
	if a == "" || a == b {
		t.Errorf("states should be random and non-empty: %q %q", a, b)
	}
}
