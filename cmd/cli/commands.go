package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/and161185/zone-sharing/internal/client/posts"
	"github.com/and161185/zone-sharing/internal/client/remote"
	"github.com/and161185/zone-sharing/internal/client/session"
	"github.com/and161185/zone-sharing/internal/client/sharing"
	"github.com/and161185/zone-sharing/internal/client/state"
	"github.com/and161185/zone-sharing/internal/client/syncer"
	"github.com/and161185/zone-sharing/internal/client/zones"
	"github.com/and161185/zone-sharing/internal/config"
	"github.com/and161185/zone-sharing/internal/model"
)

var errUsage = errors.New("usage")

type cli struct {
	cfg    *config.Client
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	dial         func(ctx context.Context, bearer string) (*grpc.ClientConn, error)
	readPassword func() (string, error)
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	rest := args[1:]
	switch args[0] {
	case "version":
		fmt.Fprintf(c.stdout, "zs %s (%s)\n", version, buildDate)
		return nil
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "whoami":
		return c.whoami(ctx)
	case "zones":
		return c.zones(ctx, rest)
	case "posts":
		return c.posts(ctx)
	case "add":
		return c.add(ctx, rest)
	case "share":
		return c.share(ctx)
	case "accept":
		return c.accept(ctx, rest)
	}
	return errUsage
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// open connects anonymously or with the saved access token.
func (c *cli) open(ctx context.Context, authed bool) (*remote.GRPCStore, func(), error) {
	bearer := ""
	if authed {
		tok, err := loadToken(c.cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		bearer = tok
	}
	cc, err := c.dial(ctx, bearer)
	if err != nil {
		return nil, nil, err
	}
	return remote.NewGRPCStore(cc), func() { _ = cc.Close() }, nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	name := fs.String("name", "", "display name (defaults to username)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *u == "" || *p == "" {
		return errors.New("need -u and -p")
	}
	if *name == "" {
		*name = *u
	}

	st, done, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	id, err := st.Register(ctx, *u, *p, *name)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, id)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *u == "" {
		return errors.New("need -u")
	}
	if *p == "" {
		pw, err := c.readPassword()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*p = pw
	}

	st, done, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	tok, id, err := st.Login(ctx, *u, *p)
	if err != nil {
		return err
	}
	exp := tok.ExpiresAt
	if exp.IsZero() {
		exp = time.Now().Add(15 * time.Minute)
	}
	if err := saveToken(c.cfg.StateDir, tokenFile{AccessToken: tok.AccessToken, ExpiresAt: exp, AccountID: id.String()}); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "ok")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	st, done, err := c.open(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	sess, err := session.Open(ctx, st)
	if err != nil {
		return err
	}
	name, err := sess.ResolveDisplayName(ctx, st)
	if err != nil {
		return err
	}
	printJSON(c.stdout, map[string]string{"account_id": sess.AccountID().String(), "display_name": name})
	return nil
}

type zoneRow struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
	ShareID string `json:"share_id,omitempty"`
}

func (c *cli) zones(ctx context.Context, args []string) error {
	fs := c.flags("zones")
	shared := fs.Bool("shared", false, "list zones shared with you")
	if err := fs.Parse(args); err != nil {
		return err
	}
	scope := model.ScopePrivate
	if *shared {
		scope = model.ScopeShared
	}

	st, done, err := c.open(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	zs, err := st.ListZones(ctx, scope)
	if err != nil {
		return err
	}
	rows := make([]zoneRow, 0, len(zs))
	for _, z := range zs {
		rows = append(rows, zoneRow{Name: z.ID.Name, OwnerID: z.ID.OwnerID.String(), ShareID: z.ShareID})
	}
	printJSON(c.stdout, rows)
	return nil
}

// core is the sync core wired for one command invocation.
type core struct {
	store *remote.GRPCStore
	sess  *session.Session
	zones *zones.Manager
	ctrl  *state.Controller
	share *sharing.Coordinator
}

func (c *cli) openCore(ctx context.Context) (*core, func(), error) {
	st, done, err := c.open(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Open(ctx, st)
	if err != nil {
		done()
		return nil, nil, err
	}
	zm := zones.NewManager(st, sess, c.log)
	ctrl := state.NewController(zm, syncer.NewEngine(st, c.log), posts.NewRepository(st, sess, c.log), c.log)
	ctrl.Subscribe(func(s state.State) {
		c.log.Debug("state", zap.Stringer("phase", s.Phase), zap.Int("private", len(s.Private)), zap.Int("shared", len(s.Shared)))
	})
	return &core{
		store: st,
		sess:  sess,
		zones: zm,
		ctrl:  ctrl,
		share: sharing.NewCoordinator(st, sess, c.cfg.ContainerID, c.log),
	}, done, nil
}

type postRow struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Zone      string    `json:"zone"`
	CreatedAt time.Time `json:"created_at"`
}

func postRows(ps []model.Post) []postRow {
	out := make([]postRow, 0, len(ps))
	for _, p := range ps {
		out = append(out, postRow{ID: p.ID, Message: p.Message, Author: p.Author, Zone: p.ZoneID.String(), CreatedAt: p.CreatedAt})
	}
	return out
}

func (c *cli) printState(s state.State) error {
	if s.Phase == state.Failed {
		return s.Err
	}
	printJSON(c.stdout, map[string][]postRow{
		"private": postRows(s.Private),
		"shared":  postRows(s.Shared),
	})
	return nil
}

func (c *cli) posts(ctx context.Context) error {
	app, done, err := c.openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := app.ctrl.Refresh(ctx); err != nil {
		return err
	}
	return c.printState(app.ctrl.Current())
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	msg := fs.String("m", "", "message")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, done, err := c.openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := app.ctrl.Refresh(ctx); err != nil {
		return err
	}
	if err := app.ctrl.AddPost(ctx, *msg); err != nil {
		return err
	}
	return c.printState(app.ctrl.Current())
}

func (c *cli) share(ctx context.Context) error {
	app, done, err := c.openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	if _, err := app.zones.EnsureUserZoneExists(ctx); err != nil {
		return err
	}
	g, ct, err := app.share.FetchOrCreateShare(ctx)
	if err != nil {
		return err
	}
	printJSON(c.stdout, sharing.Descriptor(g, ct))
	return nil
}

func (c *cli) accept(ctx context.Context, args []string) error {
	fs := c.flags("accept")
	file := fs.String("f", "", "descriptor file ('-'=stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("need -f")
	}
	b, err := readAll(c.stdin, *file)
	if err != nil {
		return err
	}
	var d model.ShareDescriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("parse descriptor: %w", err)
	}

	app, done, err := c.openCore(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := app.share.Validate(d); err != nil {
		return err
	}
	<-app.share.AcceptIncomingShare(ctx, d)

	// acceptance outcomes are only logged; confirm by listing the shared zones
	zs, err := app.store.ListZones(ctx, model.ScopeShared)
	if err != nil {
		return err
	}
	for _, z := range zs {
		if z.ID.Name == d.ZoneName && z.ID.OwnerID.String() == d.OwnerID {
			fmt.Fprintf(c.stdout, "joined %q\n", d.Title)
			return nil
		}
	}
	return fmt.Errorf("share %s was not accepted", d.ShareID)
}
