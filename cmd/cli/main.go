// Command zs is a command-line client for the zone-sharing record store.
package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/config"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccountID   string    `json:"account_id,omitempty"`
}

var errLoginRequired = errors.New("no valid token (login required)")

func tokenPath(dir string) string { return filepath.Join(dir, "token.json") }

func saveToken(dir string, tf tokenFile) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(dir), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken(dir string) (string, error) {
	b, err := os.ReadFile(tokenPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return "", errLoginRequired
	}
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errLoginRequired
	}
	return tf.AccessToken, nil
}

// ---- grpc dial ----

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}), nil
}

// dialer returns a connection factory for the configured server. An empty
// bearer produces an unauthenticated connection.
func dialer(cfg *config.Client) func(context.Context, string) (*grpc.ClientConn, error) {
	return func(_ context.Context, bearer string) (*grpc.ClientConn, error) {
		var creds credentials.TransportCredentials
		if cfg.Plaintext {
			creds = insecure.NewCredentials()
		} else {
			c, err := loadTLS(cfg.CACert, cfg.Insecure)
			if err != nil {
				return nil, err
			}
			creds = c
		}
		opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
		if bearer != "" {
			opts = append(opts, grpc.WithPerRPCCredentials(remote.BearerCreds{Token: bearer, Insecure: cfg.Plaintext}))
		}
		return grpc.NewClient(cfg.Addr, opts...)
	}
}

// ---- utils ----

func readAll(in io.Reader, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// promptPassword reads a password without echo when stdin is a terminal,
// otherwise it takes the first line of stdin.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level))
}

func usage() {
	fmt.Fprintf(os.Stderr, `zs CLI
Usage:
  zs [-config file] [-addr HOST:PORT] [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  register   -u <username> -p <password> [-name <display name>]
  login      -u <username> [-p <password>]      (saves token)
  whoami
  zones      [-shared]
  posts                                         (private and shared posts)
  add        -m <message>
  share                                         (prints the share descriptor)
  accept     -f <descriptor.json | ->
`)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration and dispatches the subcommand.
func main() {
	cfg, args, err := config.LoadClient(os.Args[1:], usage, os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	log := newLogger(cfg.Verbose)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	c := &cli{
		cfg:          cfg,
		log:          log,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		dial:         dialer(cfg),
		readPassword: promptPassword,
	}
	if err := c.run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
