package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/config"
)

func Test_tokenPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if got := tokenPath(dir); !strings.HasPrefix(got, dir) || !strings.HasSuffix(got, "token.json") {
		t.Fatalf("tokenPath unexpected: %s", got)
	}
}

func Test_token_SaveLoad(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "zoneshare")

	if _, err := loadToken(dir); !errors.Is(err, errLoginRequired) {
		t.Fatalf("expected errLoginRequired when token file missing, got %v", err)
	}
	if err := saveToken(dir, tokenFile{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	tok, err := loadToken(dir)
	if err != nil || tok != "tok" {
		t.Fatalf("loadToken: tok=%q err=%v", tok, err)
	}
	st, err := os.Stat(tokenPath(dir))
	if err != nil || st.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode: %v %v", st, err)
	}

	if err := saveToken(dir, tokenFile{AccessToken: "tok2", ExpiresAt: time.Now().Add(-time.Minute)}); err != nil {
		t.Fatalf("saveToken expired: %v", err)
	}
	if _, err := loadToken(dir); !errors.Is(err, errLoginRequired) {
		t.Fatalf("want errLoginRequired for expired token, got %v", err)
	}

	if err := os.WriteFile(tokenPath(dir), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadToken(dir); err == nil {
		t.Fatalf("want error for corrupt token file")
	}
}

func Test_readAll_File_And_Reader(t *testing.T) {
	t.Parallel()

	tmp := filepath.Join(t.TempDir(), "f.txt")
	_ = os.WriteFile(tmp, []byte("hello"), 0o600)
	b, err := readAll(nil, tmp)
	if err != nil || string(b) != "hello" {
		t.Fatalf("readAll(file): %q %v", b, err)
	}

	b, err = readAll(strings.NewReader("from-stdin"), "-")
	if err != nil || string(b) != "from-stdin" {
		t.Fatalf("readAll(stdin): %q %v", b, err)
	}
}

func Test_printJSON_WritesPretty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printJSON(&out, map[string]any{"a": 1})

	var m map[string]any
	if json.Unmarshal(out.Bytes(), &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("\n  ")) {
		t.Fatalf("printJSON should indent")
	}
}

func Test_BearerCreds_Metadata(t *testing.T) {
	t.Parallel()

	b := remote.BearerCreds{Token: "T"}
	md, err := b.GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata: %v", err)
	}
	if md["authorization"] != "Bearer T" {
		t.Fatalf("auth header mismatch: %v", md)
	}
	if !b.RequireTransportSecurity() {
		t.Fatalf("bearer creds must require TLS by default")
	}
}

func Test_loadTLS_Variants(t *testing.T) {
	t.Parallel()

	creds, err := loadTLS("", true)
	if err != nil || creds == nil {
		t.Fatalf("insecure: %v %v", creds, err)
	}

	creds, err = loadTLS("", false)
	if err != nil || creds == nil {
		t.Fatalf("default tls: %v %v", creds, err)
	}

	tmp := filepath.Join(t.TempDir(), "bad.pem")
	_ = os.WriteFile(tmp, []byte("not pem"), 0o600)
	creds, err = loadTLS(tmp, false)
	if err == nil || creds != nil {
		t.Fatalf("bad CA should error, got creds=%v err=%v", creds, err)
	}

	if _, err := loadTLS(filepath.Join(t.TempDir(), "missing.pem"), false); err == nil {
		t.Fatalf("missing CA should error")
	}
}

func Test_dialer_Plaintext(t *testing.T) {
	t.Parallel()

	cc, err := dialer(&config.Client{Addr: "localhost:1", Plaintext: true})(context.Background(), "tok")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = cc.Close()
}
