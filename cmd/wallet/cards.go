package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/store"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

func (a *app) cmdCards(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wallet cards <list|deactivated|companies|register|recharge|deactivate|reactivate|balance|stats>")
	}
	if _, err := a.requireSession(); err != nil && args[0] != "companies" {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.cardsList(ctx)
	case "deactivated":
		return a.cardsDeactivated(ctx)
	case "companies":
		return a.cardsCompanies(ctx)
	case "register":
		return a.cardsRegister(ctx, rest, stderr)
	case "recharge":
		return a.cardsRecharge(ctx, rest, stderr)
	case "deactivate":
		return a.cardsDeactivate(ctx, rest, stderr)
	case "reactivate":
		return a.cardsReactivate(ctx, rest, stderr)
	case "balance":
		return a.cardsBalance(ctx, rest, stderr)
	case "stats":
		return a.cardsStats(ctx)
	default:
		return fmt.Errorf("unknown cards subcommand %q", sub)
	}
}

func (a *app) printCards(items []models.Card) {
	for _, card := range items {
		estado := "activa"
		if !card.Activo {
			estado = "desactivada"
		}
		fmt.Fprintf(a.stdout, "%4d  %-16s %-14s $%-10s [%s]\n", card.ID, card.NumeroTarjeta, card.Empresa, card.Saldo, estado)
	}
}

func (a *app) cardsList(ctx context.Context) error {
	if err := a.cards.Load(ctx); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	items := a.cards.Cards()
	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No tienes tarjetas registradas")
		return nil
	}
	a.printCards(items)
	return nil
}

func (a *app) cardsDeactivated(ctx context.Context) error {
	if err := a.cards.LoadDeactivated(ctx); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	items := a.cards.DeactivatedCards()
	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No tienes tarjetas desactivadas")
		return nil
	}
	a.printCards(items)
	return nil
}

func (a *app) cardsCompanies(ctx context.Context) error {
	if err := a.cards.LoadCompanies(ctx); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	for _, empresa := range a.cards.Companies() {
		fmt.Fprintln(a.stdout, empresa)
	}
	return nil
}

func (a *app) cardsRegister(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cards register", flag.ContinueOnError)
	fs.SetOutput(stderr)
	numero := fs.String("numero", "", "Card number")
	empresa := fs.String("empresa", "", "Transit company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := store.RegisterParams{NumeroTarjeta: *numero, Empresa: *empresa}
	if errs := validation.Struct(params); errs != nil {
		return errs
	}

	if err := a.cards.Register(ctx, params); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	fmt.Fprintln(a.stdout, a.cards.Success())
	return nil
}

func (a *app) cardsRecharge(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cards recharge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Card ID")
	monto := fs.Float64("monto", 0, "Amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica la tarjeta (-id)")
	}
	if *monto <= 0 {
		return fmt.Errorf("el monto debe ser mayor a 0")
	}

	// Wallet balance is checked client-side before the call.
	if err := a.session.RefreshBalance(ctx); err != nil {
		return err
	}
	if *monto > a.session.User().Saldo.Float() {
		return fmt.Errorf("saldo insuficiente en su wallet")
	}

	result, err := a.cards.Recharge(ctx, *id, *monto)
	if err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	a.session.SetBalance(result.SaldoUsuario)
	fmt.Fprintf(a.stdout, "%s\nSaldo wallet: $%s\n", a.cards.Success(), money.Format(result.SaldoUsuario))
	return nil
}

func (a *app) cardsDeactivate(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cards deactivate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Card ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica la tarjeta (-id)")
	}

	if err := a.cards.Deactivate(ctx, *id); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	fmt.Fprintln(a.stdout, a.cards.Success())
	return nil
}

func (a *app) cardsReactivate(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cards reactivate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Card ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica la tarjeta (-id)")
	}

	if err := a.cards.Reactivate(ctx, *id); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	fmt.Fprintln(a.stdout, a.cards.Success())
	return nil
}

func (a *app) cardsBalance(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("cards balance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Card ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica la tarjeta (-id)")
	}

	info, err := a.cards.Balance(ctx, *id)
	if err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	fmt.Fprintf(a.stdout, "%s (%s): $%s\n", info.NumeroTarjeta, info.Empresa, info.Saldo)
	return nil
}

func (a *app) cardsStats(ctx context.Context) error {
	if err := a.cards.LoadStats(ctx); err != nil {
		return fmt.Errorf("%s", a.cards.Error())
	}
	stats := a.cards.Stats()
	fmt.Fprintf(a.stdout, "Tarjetas: %d  Saldo total: $%s  Promedio: $%s\n",
		stats.TotalTarjetas, money.Format(stats.TotalSaldo), money.Format(stats.PromedioSaldo))
	for empresa, cs := range stats.TarjetasPorEmpresa {
		fmt.Fprintf(a.stdout, "  %-14s %d tarjetas, $%s\n", empresa, cs.Cantidad, money.Format(cs.SaldoTotal))
	}
	return nil
}
