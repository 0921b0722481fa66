package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
)

// Transport mirrors the user's transit cards, split into the active
// and deactivated collections the backend exposes separately.
type Transport struct {
	mu     sync.RWMutex
	client *api.Client
	log    *logrus.Logger

	tarjetas     []models.Card
	desactivadas []models.Card
	empresas     []string
	estadisticas *models.TransportStats
	loading      bool
	errMsg       string
	success      string
}

// NewTransport creates a Transport store.
func NewTransport(client *api.Client, log *logrus.Logger) *Transport {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Transport{client: client, log: log}
}

// Cards returns a copy of the active card collection.
func (t *Transport) Cards() []models.Card {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Card, len(t.tarjetas))
	copy(out, t.tarjetas)
	return out
}

// DeactivatedCards returns a copy of the disabled collection.
func (t *Transport) DeactivatedCards() []models.Card {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Card, len(t.desactivadas))
	copy(out, t.desactivadas)
	return out
}

// Companies returns the loaded transit companies.
func (t *Transport) Companies() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.empresas))
	copy(out, t.empresas)
	return out
}

// Stats returns the last loaded aggregate, nil before LoadStats.
func (t *Transport) Stats() *models.TransportStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.estadisticas == nil {
		return nil
	}
	st := *t.estadisticas
	return &st
}

// IsLoading reports whether an action is in flight.
func (t *Transport) IsLoading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// Error returns the last action's error message.
func (t *Transport) Error() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errMsg
}

// Success returns the last action's transient success message.
func (t *Transport) Success() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.success
}

// ClearError resets the error message.
func (t *Transport) ClearError() {
	t.mu.Lock()
	t.errMsg = ""
	t.mu.Unlock()
}

// ClearSuccess resets the success message.
func (t *Transport) ClearSuccess() {
	t.mu.Lock()
	t.success = ""
	t.mu.Unlock()
}

// AutoClear schedules both messages to clear after d; the returned
// stop function cancels the timer.
func (t *Transport) AutoClear(d time.Duration) func() {
	timer := time.AfterFunc(d, func() {
		t.ClearError()
		t.ClearSuccess()
	})
	return func() { timer.Stop() }
}

func (t *Transport) begin() {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.success = ""
	t.mu.Unlock()
}

func (t *Transport) fail(err error, fallback string) error {
	msg := api.ServerMessage(err, fallback)
	t.mu.Lock()
	t.errMsg = msg
	t.loading = false
	t.mu.Unlock()
	return err
}

// LoadCompanies fetches the available transit companies.
func (t *Transport) LoadCompanies(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	var empresas []string
	if err := t.client.Get(ctx, "/transporte/empresas", &empresas); err != nil {
		return t.fail(err, "Error al cargar empresas")
	}
	t.mu.Lock()
	t.empresas = empresas
	t.loading = false
	t.mu.Unlock()
	return nil
}

// Load fetches the active cards. Error is cleared, success preserved,
// same reload contract as Services.Load.
func (t *Transport) Load(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	var tarjetas []models.Card
	if err := t.client.Get(ctx, "/transporte/tarjetas", &tarjetas); err != nil {
		return t.fail(err, "Error al cargar tarjetas")
	}
	t.mu.Lock()
	t.tarjetas = tarjetas
	t.loading = false
	t.mu.Unlock()
	return nil
}

// LoadDeactivated fetches the disabled cards.
func (t *Transport) LoadDeactivated(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	var tarjetas []models.Card
	if err := t.client.Get(ctx, "/transporte/tarjetas/desactivadas", &tarjetas); err != nil {
		return t.fail(err, "Error al cargar tarjetas desactivadas")
	}
	t.mu.Lock()
	t.desactivadas = tarjetas
	t.loading = false
	t.mu.Unlock()
	return nil
}

// LoadStats fetches the per-user transit aggregate.
func (t *Transport) LoadStats(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	var stats models.TransportStats
	if err := t.client.Get(ctx, "/transporte/estadisticas", &stats); err != nil {
		return t.fail(err, "Error al cargar estadísticas")
	}
	t.mu.Lock()
	t.estadisticas = &stats
	t.loading = false
	t.mu.Unlock()
	return nil
}

// RegisterParams are the caller-validated fields for a new card.
type RegisterParams struct {
	NumeroTarjeta string `json:"numero_tarjeta" validate:"required"`
	Empresa       string `json:"empresa" validate:"required"`
}

type cardResponse struct {
	Tarjeta models.Card `json:"tarjeta"`
}

// Register adds a new card with zero initial balance, appends it
// optimistically and reconciles via reload plus a stats refresh.
func (t *Transport) Register(ctx context.Context, params RegisterParams) error {
	t.begin()

	var resp cardResponse
	if err := t.client.Post(ctx, "/transporte/tarjetas", params, &resp); err != nil {
		return t.fail(err, "Error al registrar tarjeta")
	}

	t.mu.Lock()
	t.tarjetas = append(t.tarjetas, resp.Tarjeta)
	t.loading = false
	t.success = "Tarjeta registrada exitosamente"
	t.mu.Unlock()

	t.reconcile(ctx)
	return nil
}

// RechargeResult carries the server-confirmed balances after a recharge.
type RechargeResult struct {
	Message      string  `json:"message"`
	SaldoTarjeta float64 `json:"saldo_tarjeta"`
	SaldoUsuario float64 `json:"saldo_usuario"`
}

// Recharge tops up a card. The card's local balance is set to the
// server-confirmed value, never summed locally.
func (t *Transport) Recharge(ctx context.Context, tarjetaID int, monto float64) (*RechargeResult, error) {
	t.begin()

	body := map[string]any{
		"tarjeta_id": tarjetaID,
		"monto":      money.Round2(monto),
	}
	var result RechargeResult
	if err := t.client.Post(ctx, "/transporte/recargar", body, &result); err != nil {
		return nil, t.fail(err, "Error al recargar tarjeta")
	}

	t.mu.Lock()
	for i := range t.tarjetas {
		if t.tarjetas[i].ID == tarjetaID {
			t.tarjetas[i].Saldo = money.Format(result.SaldoTarjeta)
		}
	}
	t.loading = false
	t.success = fmt.Sprintf("Tarjeta recargada exitosamente. Nuevo saldo: $%s", money.Format(result.SaldoTarjeta))
	t.mu.Unlock()

	t.reconcile(ctx)
	return &result, nil
}

// Deactivate soft-deletes a card: it moves from the active to the
// disabled collection keeping its balance exactly.
func (t *Transport) Deactivate(ctx context.Context, tarjetaID int) error {
	t.begin()

	path := fmt.Sprintf("/transporte/tarjetas/%d", tarjetaID)
	if err := t.client.Delete(ctx, path, nil); err != nil {
		return t.fail(err, "Error al eliminar tarjeta")
	}

	t.mu.Lock()
	kept := t.tarjetas[:0]
	for _, card := range t.tarjetas {
		if card.ID == tarjetaID {
			card.Activo = false
			t.desactivadas = append(t.desactivadas, card)
			continue
		}
		kept = append(kept, card)
	}
	t.tarjetas = kept
	t.loading = false
	t.success = "Tarjeta desactivada exitosamente"
	t.mu.Unlock()

	t.reloadStats(ctx)
	return nil
}

// Reactivate reverses a deactivation using the server-returned card.
func (t *Transport) Reactivate(ctx context.Context, tarjetaID int) error {
	t.begin()

	path := fmt.Sprintf("/transporte/tarjetas/%d/reactivar", tarjetaID)
	var resp cardResponse
	if err := t.client.Put(ctx, path, nil, &resp); err != nil {
		return t.fail(err, "Error al reactivar tarjeta")
	}

	t.mu.Lock()
	t.tarjetas = append(t.tarjetas, resp.Tarjeta)
	kept := t.desactivadas[:0]
	for _, card := range t.desactivadas {
		if card.ID != tarjetaID {
			kept = append(kept, card)
		}
	}
	t.desactivadas = kept
	t.loading = false
	t.success = "Tarjeta reactivada exitosamente"
	t.mu.Unlock()

	t.reloadStats(ctx)
	return nil
}

// CardBalance queries one card's balance without touching collections.
type CardBalance struct {
	Saldo         string `json:"saldo"`
	Empresa       string `json:"empresa"`
	NumeroTarjeta string `json:"numero_tarjeta"`
}

// Balance fetches the balance of a single card.
func (t *Transport) Balance(ctx context.Context, tarjetaID int) (*CardBalance, error) {
	t.mu.Lock()
	t.loading = true
	t.errMsg = ""
	t.mu.Unlock()

	var info CardBalance
	path := fmt.Sprintf("/transporte/tarjetas/%d/saldo", tarjetaID)
	if err := t.client.Get(ctx, path, &info); err != nil {
		return nil, t.fail(err, "Error al consultar saldo")
	}
	t.mu.Lock()
	t.loading = false
	t.mu.Unlock()
	return &info, nil
}

// reconcile reloads the active collection and the stats; failures are
// logged only, the optimistic state stands until the next load.
func (t *Transport) reconcile(ctx context.Context) {
	if err := t.Load(ctx); err != nil {
		t.log.WithError(err).Debug("reconciliation reload failed")
	}
	t.reloadStats(ctx)
}

func (t *Transport) reloadStats(ctx context.Context) {
	if err := t.LoadStats(ctx); err != nil {
		t.log.WithError(err).Debug("stats reload failed")
	}
}
