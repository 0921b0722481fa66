// Command wallet is the terminal front end for the virtual wallet.
// Every subcommand renders store state after delegating the real work
// to the backend through the stores.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/config"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/session"
	"github.com/ramollino912/wallet-simulator-frontend/internal/storage"
	"github.com/ramollino912/wallet-simulator-frontend/internal/store"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
	"github.com/ramollino912/wallet-simulator-frontend/internal/wallet"
)

const usage = `Usage: wallet <command> [flags]

Session:
  login        -email <email> [-password <pass>]
  register     -nombre <n> -apellido <a> -email <email> [-password <pass>]
  logout
  profile
  balance

Money:
  topup        -amount <monto>
  transfer     -to <recipient id> -amount <monto> [-desc <texto>]
  search       -query <texto>
  history      [-page <n>]
  recent       [-limit <n>]

Services:
  services     list | providers | create | pay | payall | delete | change-mobile | clear-mobiles

Transit cards:
  cards        list | deactivated | companies | register | recharge | deactivate | reactivate | balance | stats
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired stores for one invocation.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	client   *api.Client
	session  *session.Store
	services *store.Services
	cards    *store.Transport
	flows    *wallet.Flows

	stdin  io.Reader
	stdout io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	st, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	client := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
	})
	sess := session.New(client, st, log)
	sess.Restore()

	a := &app{
		cfg:      cfg,
		store:    st,
		client:   client,
		session:  sess,
		services: store.NewServices(client, log),
		cards:    store.NewTransport(client, log),
		flows:    wallet.NewFlows(client, sess),
		stdin:    stdin,
		stdout:   stdout,
	}

	ctx := context.Background()
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, rest, stderr)
	case "register":
		return a.cmdRegister(ctx, rest, stderr)
	case "logout":
		a.session.Logout()
		fmt.Fprintln(stdout, "Sesión cerrada.")
		return nil
	case "profile":
		return a.cmdProfile(ctx)
	case "balance":
		return a.cmdBalance(ctx)
	case "topup":
		return a.cmdTopUp(ctx, rest, stderr)
	case "transfer":
		return a.cmdTransfer(ctx, rest, stderr)
	case "search":
		return a.cmdSearch(ctx, rest, stderr)
	case "history":
		return a.cmdHistory(ctx, rest, stderr)
	case "recent":
		return a.cmdRecent(ctx, rest, stderr)
	case "services":
		return a.cmdServices(ctx, rest, stderr)
	case "cards":
		return a.cmdCards(ctx, rest, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) requireSession() (*models.User, error) {
	user := a.session.User()
	if user == nil {
		return nil, fmt.Errorf("no hay una sesión activa; usa `wallet login`")
	}
	return user, nil
}

func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stdout)
		return string(b), err
	}
	r := bufio.NewReader(a.stdin)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (a *app) cmdLogin(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (prompts when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = a.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	if errs := validation.Struct(loginForm{Email: *email, Password: pass}); errs != nil {
		return errs
	}

	if err := a.session.Login(ctx, *email, pass); err != nil {
		return fmt.Errorf("%s", a.session.LastError())
	}
	user := a.session.User()
	fmt.Fprintf(a.stdout, "Hola %s. Saldo: $%s\n", user.Nombre, user.Saldo)
	return nil
}

type registerForm struct {
	Nombre   string `validate:"required"`
	Apellido string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func (a *app) cmdRegister(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nombre := fs.String("nombre", "", "First name")
	apellido := fs.String("apellido", "", "Last name")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (prompts when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = a.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	form := registerForm{Nombre: *nombre, Apellido: *apellido, Email: *email, Password: pass}
	if errs := validation.Struct(form); errs != nil {
		return errs
	}

	if err := a.session.Register(ctx, *nombre, *apellido, *email, pass); err != nil {
		return fmt.Errorf("%s", a.session.LastError())
	}
	user := a.session.User()
	fmt.Fprintf(a.stdout, "Cuenta creada para %s. Saldo: $%s\n", user.Nombre, user.Saldo)
	return nil
}

func (a *app) cmdProfile(ctx context.Context) error {
	if _, err := a.requireSession(); err != nil {
		return err
	}
	if err := a.session.RefreshProfile(ctx); err != nil {
		return err
	}
	user := a.session.User()
	fmt.Fprintf(a.stdout, "%s <%s>\nSaldo: $%s\n", user.Nombre, user.Email, user.Saldo)
	return nil
}

func (a *app) cmdBalance(ctx context.Context) error {
	if _, err := a.requireSession(); err != nil {
		return err
	}
	if err := a.session.RefreshBalance(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Saldo disponible: $%s\n", a.session.User().Saldo)
	return nil
}

func (a *app) cmdTopUp(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("topup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	amount := fs.Float64("amount", 0, "Amount to ingress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Nuevo saldo estimado: $%s\n", money.Format(a.flows.PreviewBalance(*amount)))
	saldo, err := a.flows.TopUp(ctx, *amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Ingreso exitoso. Saldo: $%s\n", money.Format(saldo))
	return nil
}

func (a *app) cmdTransfer(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	to := fs.Int("to", 0, "Recipient user ID (see `wallet search`)")
	amount := fs.Float64("amount", 0, "Amount to send")
	desc := fs.String("desc", "", "Description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}
	if *to <= 0 {
		return fmt.Errorf("selecciona un destinatario (-to)")
	}

	// Show the authoritative balance before validating against it.
	if err := a.session.RefreshBalance(ctx); err == nil {
		fmt.Fprintf(a.stdout, "Saldo disponible: $%s\n", a.session.User().Saldo)
	}

	result, err := a.flows.Transfer(ctx, models.Recipient{ID: *to}, *amount, *desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Transferencia exitosa: $%s enviados. Saldo: $%s\n",
		money.Format(result.Amount), money.Format(result.Balance))
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	query := fs.String("query", "", "Name or email to search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	results, err := a.flows.Search(ctx, *query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(a.stdout, "No se encontraron usuarios con ese nombre o email")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(a.stdout, "%4d  %s <%s>\n", r.ID, r.Nombre, r.Email)
	}
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	page := fs.Int("page", 1, "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	result, err := a.flows.Activities(ctx, *page)
	if err != nil {
		return err
	}
	for _, act := range result.Items {
		a.printActivity(act)
	}
	fmt.Fprintf(a.stdout, "Página %d de %d (%d transacciones)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (a *app) cmdRecent(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", 5, "Number of transactions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireSession(); err != nil {
		return err
	}

	items, err := a.flows.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	for _, act := range items {
		a.printActivity(act)
	}
	return nil
}

func (a *app) printActivity(act models.Activity) {
	direction := " "
	if act.Tipo == "transferencia" {
		if act.EsEnvio {
			direction = "-"
		} else {
			direction = "+"
		}
	}
	fmt.Fprintf(a.stdout, "%s  %-20s %s$%-10s %s\n", act.Fecha, act.Tipo, direction, act.Monto, act.Descripcion)
}
