package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ramollino912/wallet-simulator-frontend/internal/backend"
)

func setupCLI(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(backend.NewServer("test-secret", nil).Router())
	t.Cleanup(srv.Close)
	t.Setenv("WALLET_API_URL", srv.URL)
	t.Setenv("WALLET_STORAGE_PATH", filepath.Join(t.TempDir(), "wallet.db"))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(args, strings.NewReader(""), &stdout, &stderr); err != nil {
		t.Fatalf("run %v: %v\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String()
}

func executeErr(t *testing.T, args ...string) error {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(""), &stdout, &stderr)
	if err == nil {
		t.Fatalf("run %v: expected error, got output %q", args, stdout.String())
	}
	return err
}

func TestCLITransferLifecycle(t *testing.T) {
	setupCLI(t)

	// The recipient registers first and gets ID 1.
	execute(t, "register", "-nombre", "Juan", "-apellido", "Pérez",
		"-email", "juan@wallet.local", "-password", "secreto123")

	out := execute(t, "register", "-nombre", "Ana", "-apellido", "García",
		"-email", "ana@wallet.local", "-password", "secreto123")
	if !strings.Contains(out, "Cuenta creada para Ana García") {
		t.Errorf("register output: %q", out)
	}

	out = execute(t, "topup", "-amount", "410.96")
	if !strings.Contains(out, "Nuevo saldo estimado: $410.96") {
		t.Errorf("topup preview missing: %q", out)
	}
	if !strings.Contains(out, "Ingreso exitoso. Saldo: $410.96") {
		t.Errorf("topup output: %q", out)
	}

	out = execute(t, "search", "-query", "juan")
	if !strings.Contains(out, "juan@wallet.local") {
		t.Errorf("search output: %q", out)
	}

	out = execute(t, "transfer", "-to", "1", "-amount", "26", "-desc", "Cena")
	if !strings.Contains(out, "Transferencia exitosa: $26.00 enviados. Saldo: $384.96") {
		t.Errorf("transfer output: %q", out)
	}

	out = execute(t, "balance")
	if !strings.Contains(out, "Saldo disponible: $384.96") {
		t.Errorf("balance output: %q", out)
	}

	out = execute(t, "history")
	if !strings.Contains(out, "transferencia") || !strings.Contains(out, "Página 1 de 1") {
		t.Errorf("history output: %q", out)
	}
}

func TestCLISelfTransferRejected(t *testing.T) {
	setupCLI(t)
	execute(t, "register", "-nombre", "Ana", "-apellido", "García",
		"-email", "ana@wallet.local", "-password", "secreto123")
	execute(t, "topup", "-amount", "100")

	err := executeErr(t, "transfer", "-to", "1", "-amount", "10")
	if !strings.Contains(err.Error(), "a ti mismo") {
		t.Errorf("err = %v", err)
	}
}

func TestCLIPayAllBlockedWhenUnderfunded(t *testing.T) {
	setupCLI(t)
	execute(t, "register", "-nombre", "Ana", "-apellido", "García",
		"-email", "ana@wallet.local", "-password", "secreto123")
	execute(t, "services", "create", "-nombre", "Luz casa", "-tipo", "luz",
		"-proveedor", "Edenor", "-numero", "LZ-1", "-monto", "120", "-vencimiento", "2099-01-01")

	err := executeErr(t, "services", "payall")
	if !strings.Contains(err.Error(), "saldo insuficiente") {
		t.Errorf("err = %v", err)
	}

	execute(t, "topup", "-amount", "120")
	out := execute(t, "services", "payall")
	if !strings.Contains(out, "1 servicios pagados") {
		t.Errorf("payall output: %q", out)
	}
}

func TestCLICardsRechargeGuard(t *testing.T) {
	setupCLI(t)
	execute(t, "register", "-nombre", "Ana", "-apellido", "García",
		"-email", "ana@wallet.local", "-password", "secreto123")
	execute(t, "cards", "register", "-numero", "6061-1234", "-empresa", "SUBE")

	err := executeErr(t, "cards", "recharge", "-id", "1", "-monto", "50")
	if !strings.Contains(err.Error(), "saldo insuficiente en su wallet") {
		t.Errorf("err = %v", err)
	}

	execute(t, "topup", "-amount", "100")
	out := execute(t, "cards", "recharge", "-id", "1", "-monto", "50")
	if !strings.Contains(out, "Saldo wallet: $50.00") {
		t.Errorf("recharge output: %q", out)
	}

	out = execute(t, "cards", "balance", "-id", "1")
	if !strings.Contains(out, "6061-1234 (SUBE): $50.00") {
		t.Errorf("card balance output: %q", out)
	}
}

func TestCLIRequiresSession(t *testing.T) {
	setupCLI(t)
	err := executeErr(t, "balance")
	if !strings.Contains(err.Error(), "no hay una sesión activa") {
		t.Errorf("err = %v", err)
	}
}

func TestCLILogout(t *testing.T) {
	setupCLI(t)
	execute(t, "register", "-nombre", "Ana", "-apellido", "García",
		"-email", "ana@wallet.local", "-password", "secreto123")

	out := execute(t, "logout")
	if !strings.Contains(out, "Sesión cerrada") {
		t.Errorf("logout output: %q", out)
	}
	executeErr(t, "balance")
}
