package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"car-rental/internal/api"
	"car-rental/internal/config"
	"car-rental/internal/handlers"
	"car-rental/internal/logutil"
	"car-rental/internal/otel"
	"car-rental/internal/render"
	"car-rental/internal/session"
	"car-rental/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const serviceName = "rentctl"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var errNotLoggedIn = errors.New("not logged in, run `rentctl login` first")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		in:     bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.Nop(),
	}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app holds what every command needs. It is opened lazily so that help
// output never touches the session database.
type app struct {
	cfg    config.Config
	stdin  io.Reader
	in     *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	log      zerolog.Logger
	kv       storage.KV
	store    *session.Store
	client   *api.Client
	nav      *navigator
	notify   *handlers.Notifier
	deps     handlers.Deps
	shutdown func(context.Context) error
	done     func()
}

func (a *app) open(ctx context.Context, command string) error {
	if a.client != nil {
		return nil
	}
	a.log = logutil.New(a.cfg.LogLevel, a.stderr)
	a.done = logutil.NewTimingLogger(a.log, time.Now(), "command finished", map[string]any{"command": command})

	shutdown, err := otel.Init(ctx, otel.Tracing{Service: serviceName, Version: version, Endpoint: a.cfg.OTLPEndpoint})
	if err != nil {
		return logutil.LogAndWrapErr(a.log, "failed to init tracing", err, nil)
	}
	a.shutdown = shutdown

	kv, err := storage.Open(a.cfg.SessionDB)
	if err != nil {
		return logutil.LogAndWrapErr(a.log, "failed to open session store", err, map[string]any{"path": a.cfg.SessionDB})
	}
	a.kv = kv
	a.store = session.NewStore(kv, a.log)

	client, err := api.New(api.Config{BaseURL: a.cfg.APIBaseURL, Logger: a.log}, a.store)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}
	a.client = client

	a.nav = newNavigator()
	a.notify = handlers.NewNotifier(a.cfg.NotifyTTL, handlers.RealScheduler(), nil)
	a.deps = handlers.Deps{
		API:           a.client,
		Session:       a.store,
		Nav:           a.nav,
		Notify:        a.notify,
		Scheduler:     handlers.RealScheduler(),
		RedirectDelay: a.cfg.RedirectDelay,
		Logger:        a.log,
	}
	a.log.Debug().Str("api", a.client.BaseURL()).Str("session", a.cfg.SessionDB).Msg("client ready")
	return nil
}

func (a *app) close() {
	if a.done != nil {
		a.done()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.log.Error().Err(err).Msg("close session store")
		}
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			a.log.Error().Err(err).Msg("shutdown otel")
		}
	}
}

// actionError carries the notification text shown for a failed action.
type actionError struct {
	msg string
	err error
}

func (e *actionError) Error() string { return e.msg }
func (e *actionError) Unwrap() error { return e.err }

// report prints the current notification after an action. A failed action
// returns the notification text as the command error.
func (a *app) report(err error) error {
	n, ok := a.notify.Current()
	if err != nil {
		if ok && n.Level == handlers.LevelError {
			return &actionError{msg: n.Message, err: err}
		}
		return err
	}
	if ok {
		return render.Notification(a.stdout, &n)
	}
	return nil
}

// navigator collects page changes requested by the controllers.
type navigator struct {
	pages chan handlers.Page
}

func newNavigator() *navigator {
	return &navigator{pages: make(chan handlers.Page, 4)}
}

func (n *navigator) Navigate(p handlers.Page) {
	select {
	case n.pages <- p:
	default:
	}
}

// wait blocks until a navigation is requested.
func (n *navigator) wait(ctx context.Context) (handlers.Page, error) {
	select {
	case p := <-n.pages:
		return p, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	line, err := readLine(a.in)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.stdout, "Password: ")
	password, err := readPassword(a.stdin, a.in)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.stdout) // Print newline after password input
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

// confirm asks a yes/no question unless assumeYes is set.
func (a *app) confirm(question string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	answer, err := a.prompt(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(a.stdout, "Aborted.")
	return false, nil
}

func readPassword(stdin io.Reader, in *bufio.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
