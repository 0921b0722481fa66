package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/store"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

func (a *app) cmdServices(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wallet services <list|providers|create|pay|payall|delete|change-mobile|clear-mobiles>")
	}
	if _, err := a.requireSession(); err != nil && args[0] != "providers" {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.servicesList(ctx)
	case "providers":
		return a.servicesProviders(ctx)
	case "create":
		return a.servicesCreate(ctx, rest, stderr)
	case "pay":
		return a.servicesPay(ctx, rest, stderr)
	case "payall":
		return a.servicesPayAll(ctx)
	case "delete":
		return a.servicesDelete(ctx, rest, stderr)
	case "change-mobile":
		return a.servicesChangeMobile(ctx, rest, stderr)
	case "clear-mobiles":
		return a.servicesClearMobiles(ctx)
	default:
		return fmt.Errorf("unknown services subcommand %q", sub)
	}
}

func (a *app) servicesList(ctx context.Context) error {
	if err := a.services.Load(ctx); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	items := a.services.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No tienes servicios registrados")
		return nil
	}
	for _, sv := range items {
		fmt.Fprintf(a.stdout, "%4d  %-20s %-8s %-12s $%-10s vence %s  [%s]\n",
			sv.ID, sv.Nombre, sv.Tipo, sv.Proveedor, sv.MontoMensual, sv.FechaVencimiento, sv.Estado)
	}
	fmt.Fprintf(a.stdout, "Pendiente: $%s  Pagado: $%s\n",
		money.Format(a.services.TotalPending()), money.Format(a.services.TotalPaid()))
	return nil
}

func (a *app) servicesProviders(ctx context.Context) error {
	if err := a.services.LoadProviders(ctx); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	p := a.services.Providers()
	fmt.Fprintf(a.stdout, "luz:     %v\nagua:    %v\ngas:     %v\ncelular: %v\n", p.Luz, p.Agua, p.Gas, p.Celular)
	return nil
}

func (a *app) servicesCreate(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("services create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nombre := fs.String("nombre", "", "Service name")
	tipo := fs.String("tipo", "", "Type: luz|agua|gas|celular")
	proveedor := fs.String("proveedor", "", "Provider")
	numero := fs.String("numero", "", "Account number")
	monto := fs.Float64("monto", 0, "Monthly amount")
	vencimiento := fs.String("vencimiento", "", "Due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := store.CreateParams{
		Nombre:           *nombre,
		Tipo:             *tipo,
		Proveedor:        *proveedor,
		NumeroServicio:   *numero,
		MontoMensual:     *monto,
		FechaVencimiento: *vencimiento,
	}
	if errs := validation.Struct(params); errs != nil {
		return errs
	}

	if err := a.services.Create(ctx, params); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	return nil
}

func (a *app) servicesPay(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("services pay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Service ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica el servicio (-id)")
	}

	if _, err := a.services.Pay(ctx, *id); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	return nil
}

func (a *app) servicesPayAll(ctx context.Context) error {
	// The bulk payment is blocked client-side when the pending total
	// exceeds the wallet balance.
	if err := a.session.RefreshBalance(ctx); err != nil {
		return err
	}
	if err := a.services.Load(ctx); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	balance := a.session.User().Saldo.Float()
	if a.services.InsufficientFor(balance) {
		missing := a.services.TotalPending() - balance
		return fmt.Errorf("saldo insuficiente: necesitas $%s más", money.Format(missing))
	}

	result, err := a.services.PayAll(ctx)
	if err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	a.session.SetBalance(result.SaldoActual)
	return nil
}

func (a *app) servicesDelete(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("services delete", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int("id", 0, "Service ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("indica el servicio (-id)")
	}

	if err := a.services.Delete(ctx, *id); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	return nil
}

func (a *app) servicesChangeMobile(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("services change-mobile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	proveedor := fs.String("proveedor", "", "New provider")
	numero := fs.String("numero", "", "New number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *proveedor == "" || *numero == "" {
		return fmt.Errorf("indica -proveedor y -numero")
	}

	if err := a.services.ChangeMobile(ctx, *proveedor, *numero); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	return nil
}

func (a *app) servicesClearMobiles(ctx context.Context) error {
	if err := a.services.ClearMobiles(ctx); err != nil {
		return fmt.Errorf("%s", a.services.Error())
	}
	fmt.Fprintln(a.stdout, a.services.Success())
	return nil
}
