package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func unsigned(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "geo", SilenceUsage: true, SilenceErrors: true}
	InitAuth(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(in))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	t.Setenv("GEO_TOKEN_FILE", path)
	t.Setenv("GEO_TOKEN", "")

	token := unsigned(t, jwt.MapClaims{
		"preferred_username": "alice",
		"iss":                "https://sso.example.com/realms/geo",
		"exp":                time.Now().Add(time.Hour).Unix(),
	})

	if _, err := execute(t, "Bearer "+token+"\n", "login"); err != nil {
		t.Fatalf("login: %v", err)
	}
	saved, err := os.ReadFile(path)
	if err != nil || string(saved) != token {
		t.Fatalf("token not saved: %v %q", err, saved)
	}

	out, err := execute(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "user:   alice") || !strings.Contains(out, "(valid)") {
		t.Errorf("unexpected whoami output: %s", out)
	}

	if _, err := execute(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _ = execute(t, "", "whoami")
	if !strings.Contains(out, "anonymous") {
		t.Errorf("expected anonymous after logout, got: %s", out)
	}
}

func TestLogin_RejectsNonJWT(t *testing.T) {
	t.Setenv("GEO_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	if _, err := execute(t, "", "login", "--token", "not-a-token"); err == nil || !strings.Contains(err.Error(), "not a JWT") {
		t.Errorf("expected not a JWT error, got %v", err)
	}
}

func TestWhoami_FallsBackToSubject(t *testing.T) {
	t.Setenv("GEO_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	t.Setenv("GEO_TOKEN", unsigned(t, jwt.MapClaims{"sub": "svc-loader", "exp": time.Now().Add(-time.Minute).Unix()}))

	out, err := execute(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "user:   svc-loader") || !strings.Contains(out, "(expired)") {
		t.Errorf("unexpected whoami output: %s", out)
	}
}
