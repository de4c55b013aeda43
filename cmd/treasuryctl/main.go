// Command treasuryctl is a small client for the treasury API. It keeps the
// session on disk between invocations.
//
//	treasuryctl login admin@cie.ci
//	treasuryctl can saisie create
//	treasuryctl whoami
//	treasuryctl logout
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/pkg/session"
	"github.com/noah-isme/treasury-api/pkg/storage"
)

// Exit codes. `can` reports a denial with exitDenied.
const (
	exitOK     = 0
	exitDenied = 1
	exitError  = 2
)

const usage = `usage: treasuryctl [flags] <command> [args]

commands:
  login <email>              authenticate (password from --password or TREASURY_PASSWORD)
  refresh                    exchange the refresh token for a new pair
  logout                     revoke the refresh token and clear the session
  whoami                     show the session user and resolved permissions
  can <resource> <action>    exit 0 when allowed, 1 when denied
`

type cli struct {
	api     *apiClient
	session *session.Store
	out     io.Writer
	getenv  func(string) string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := pflag.NewFlagSet("treasuryctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr(getenv, "TREASURY_SERVER", "http://localhost:8080/api/v1"), "API base URL")
	sessionDir := fs.String("session-dir", envOr(getenv, "TREASURY_SESSION_DIR", defaultSessionDir()), "directory holding the session files")
	password := fs.StringP("password", "p", "", "password for login")
	timeout := fs.Duration("timeout", 10*time.Second, "HTTP timeout")
	verbose := fs.BoolP("verbose", "v", false, "log session diagnostics")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitError
	}

	logr := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logr = l
		}
	}
	defer logr.Sync() //nolint:errcheck

	kv, err := storage.NewFileStore(*sessionDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	c := &cli{
		api:     newAPIClient(*server, *timeout),
		session: session.New(kv, session.WithLogger(logr)),
		out:     stdout,
		getenv:  getenv,
	}
	c.session.Restore()

	ctx := context.Background()
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var code int
	switch cmd {
	case "login":
		code, err = c.login(ctx, rest, *password)
	case "refresh":
		code, err = c.refresh(ctx)
	case "logout":
		code, err = c.logout(ctx)
	case "whoami":
		code, err = c.whoami(ctx)
	case "can":
		code, err = c.can(ctx, rest)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
		code = exitError
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
	}
	return code
}

func (c *cli) login(ctx context.Context, args []string, password string) (int, error) {
	if len(args) != 1 {
		return exitError, errors.New("login takes exactly one email")
	}
	if password == "" {
		password = c.getenv("TREASURY_PASSWORD")
	}
	if password == "" {
		return exitError, errors.New("password required (--password or TREASURY_PASSWORD)")
	}

	c.session.Begin()
	res, err := c.api.login(ctx, args[0], password)
	if err != nil {
		c.session.Fail()
		return exitError, err
	}
	tokens := session.Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		TokenType:    res.TokenType,
	}
	if err := c.session.Activate(tokens, res.User); err != nil {
		return exitError, fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.out, "logged in as %s (%s), session valid until %s\n", res.User.Name, res.User.Email, res.ExpiresAt.Local().Format(time.RFC1123))
	return exitOK, nil
}

func (c *cli) refresh(ctx context.Context) (int, error) {
	tokens, err := c.activeTokens()
	if err != nil {
		return exitError, err
	}
	res, err := c.api.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return exitError, err
	}
	if err := c.session.Replace(session.Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		TokenType:    res.TokenType,
	}); err != nil {
		return exitError, fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.out, "session refreshed until %s\n", res.ExpiresAt.Local().Format(time.RFC1123))
	return exitOK, nil
}

func (c *cli) logout(ctx context.Context) (int, error) {
	tokens, err := c.session.Token()
	if err != nil {
		return exitError, err
	}
	if tokens != nil {
		if err := c.api.logout(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
			fmt.Fprintln(c.out, "server logout failed, clearing local session:", err)
		}
	}
	if err := c.session.Logout(); err != nil {
		return exitError, err
	}
	fmt.Fprintln(c.out, "logged out")
	return exitOK, nil
}

func (c *cli) whoami(ctx context.Context) (int, error) {
	tokens, err := c.activeTokens()
	if err != nil {
		return exitError, err
	}
	claims := c.session.UserFromToken()
	if claims == nil {
		return exitError, errors.New("session expired, run login")
	}
	summary, err := c.api.permissions(ctx, tokens.AccessToken)
	if err != nil {
		return exitError, err
	}

	fmt.Fprintf(c.out, "user:    %s <%s>\n", claims.Name, claims.Email)
	profile := summary.ProfileID
	if summary.ProfileName != "" {
		profile = fmt.Sprintf("%s (%s, v%d)", summary.ProfileName, summary.ProfileID, summary.ProfileVersion)
	}
	fmt.Fprintf(c.out, "profile: %s\n", profile)
	if !summary.Resolved {
		fmt.Fprintln(c.out, "permissions could not be resolved; every check is denied")
		return exitOK, nil
	}
	for _, r := range summary.Resources {
		actions := make([]string, 0, len(summary.Permissions[r]))
		for _, a := range summary.Permissions[r] {
			actions = append(actions, string(a))
		}
		fmt.Fprintf(c.out, "  %-14s %s\n", r, strings.Join(actions, ","))
	}
	return exitOK, nil
}

func (c *cli) can(ctx context.Context, args []string) (int, error) {
	if len(args) != 2 {
		return exitError, errors.New("can takes a resource and an action")
	}
	resource, ok := models.ParseResource(args[0])
	if !ok {
		return exitError, fmt.Errorf("unknown resource %q", args[0])
	}
	action, ok := models.ParseAction(args[1])
	if !ok {
		return exitError, fmt.Errorf("unknown action %q", args[1])
	}
	tokens, err := c.activeTokens()
	if err != nil {
		return exitError, err
	}
	summary, err := c.api.permissions(ctx, tokens.AccessToken)
	if err != nil {
		return exitError, err
	}
	if models.NewGrants(permissionsOf(summary)).Has(resource, action) {
		fmt.Fprintf(c.out, "allowed: %s:%s\n", resource, action)
		return exitOK, nil
	}
	fmt.Fprintf(c.out, "denied: %s:%s\n", resource, action)
	return exitDenied, nil
}

// activeTokens returns the stored tokens or an error asking to log in.
func (c *cli) activeTokens() (*session.Tokens, error) {
	tokens, err := c.session.Token()
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		if c.session.State() == session.Expired {
			return nil, errors.New("session expired, run login")
		}
		return nil, errors.New("not logged in")
	}
	return tokens, nil
}

func permissionsOf(summary *models.PermissionSummary) models.Permissions {
	perms := make(models.Permissions, 0, len(summary.Permissions))
	for r, actions := range summary.Permissions {
		perms = append(perms, models.Permission{Resource: r, Actions: actions})
	}
	return perms
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "treasuryctl")
	}
	return ".treasuryctl"
}
