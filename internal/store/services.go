// Package store holds the client-side mirrors of server-owned
// collections. Each store runs the same mutating-action contract:
// set loading, call the backend, apply an optimistic local mutation,
// then reconcile with a full reload so the mirror converges on server
// truth.
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

// Services mirrors the user's service bills.
type Services struct {
	mu     sync.RWMutex
	client *api.Client
	log    *logrus.Logger

	servicios   []models.Service
	proveedores *models.Providers
	loading     bool
	errMsg      string
	success     string
}

// NewServices creates a Services store.
func NewServices(client *api.Client, log *logrus.Logger) *Services {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Services{client: client, log: log}
}

// Items returns a copy of the held collection.
func (s *Services) Items() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Service, len(s.servicios))
	copy(out, s.servicios)
	return out
}

// Providers returns the loaded provider catalogue, nil before LoadProviders.
func (s *Services) Providers() *models.Providers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.proveedores == nil {
		return nil
	}
	p := *s.proveedores
	return &p
}

// IsLoading reports whether an action is in flight.
func (s *Services) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last action's error message, empty when clean.
func (s *Services) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Success returns the last action's transient success message.
func (s *Services) Success() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.success
}

// ClearError resets the error message.
func (s *Services) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// ClearSuccess resets the success message.
func (s *Services) ClearSuccess() {
	s.mu.Lock()
	s.success = ""
	s.mu.Unlock()
}

// AutoClear schedules both messages to clear after d. The returned
// stop function cancels the timer when the caller goes away first.
func (s *Services) AutoClear(d time.Duration) func() {
	t := time.AfterFunc(d, func() {
		s.ClearError()
		s.ClearSuccess()
	})
	return func() { t.Stop() }
}

func (s *Services) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.success = ""
	s.mu.Unlock()
}

func (s *Services) fail(err error, fallback string) error {
	msg := api.ServerMessage(err, fallback)
	s.mu.Lock()
	s.errMsg = msg
	s.loading = false
	s.mu.Unlock()
	return err
}

// LoadProviders fetches the provider catalogue.
func (s *Services) LoadProviders(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var p models.Providers
	if err := s.client.Get(ctx, "/servicios/proveedores", &p); err != nil {
		return s.fail(err, "Error al cargar proveedores")
	}
	s.mu.Lock()
	s.proveedores = &p
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Load fetches the user's active services. It clears the error flag
// but preserves any success message, so a reconciliation reload after
// a mutating action does not wipe its confirmation.
func (s *Services) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	var items []models.Service
	if err := s.client.Get(ctx, "/servicios", &items); err != nil {
		return s.fail(err, "Error al cargar servicios")
	}
	s.mu.Lock()
	s.servicios = items
	s.loading = false
	s.mu.Unlock()
	return nil
}

// CreateParams are the caller-validated fields for a new service.
type CreateParams struct {
	Nombre           string  `json:"nombre" validate:"required"`
	Tipo             string  `json:"tipo" validate:"required,oneof=luz agua gas celular"`
	Proveedor        string  `json:"proveedor" validate:"required"`
	NumeroServicio   string  `json:"numero_servicio" validate:"required"`
	MontoMensual     float64 `json:"monto_mensual" validate:"gt=0"`
	FechaVencimiento string  `json:"fecha_vencimiento" validate:"required"`
}

type createResponse struct {
	Servicio models.Service `json:"servicio"`
}

// Create registers a new service, appends it optimistically and then
// reconciles with a reload.
func (s *Services) Create(ctx context.Context, params CreateParams) error {
	s.begin()

	var resp createResponse
	if err := s.client.Post(ctx, "/servicios", params, &resp); err != nil {
		return s.fail(err, "Error al crear servicio")
	}

	s.mu.Lock()
	s.servicios = append(s.servicios, resp.Servicio)
	s.loading = false
	s.success = "Servicio creado exitosamente"
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		s.log.WithError(err).Debug("reconciliation reload failed")
	}
	return nil
}

// PayResult carries the server-confirmed outcome of a single payment.
type PayResult struct {
	Message     string  `json:"message"`
	SaldoActual float64 `json:"saldo_actual"`
}

// Pay pays one service. The bill is marked paid locally before the
// reconciliation reload confirms it, so the view never regresses to
// pending during the reload window.
func (s *Services) Pay(ctx context.Context, servicioID int) (*PayResult, error) {
	s.begin()

	var result PayResult
	path := fmt.Sprintf("/servicios/%d/pagar", servicioID)
	if err := s.client.Post(ctx, path, nil, &result); err != nil {
		return nil, s.fail(err, "Error al pagar servicio")
	}

	s.mu.Lock()
	for i := range s.servicios {
		if s.servicios[i].ID == servicioID {
			s.servicios[i].Estado = models.EstadoPagado
		}
	}
	s.loading = false
	s.success = fmt.Sprintf("Servicio pagado exitosamente. Saldo actual: $%s", money.Format(result.SaldoActual))
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		s.log.WithError(err).Debug("reconciliation reload failed")
	}
	return &result, nil
}

// PayAllResult carries the aggregate outcome of a bulk payment.
type PayAllResult struct {
	Message          string  `json:"message"`
	ServiciosPagados int     `json:"servicios_pagados"`
	TotalPagado      float64 `json:"total_pagado"`
	SaldoActual      float64 `json:"saldo_actual"`
}

// PayAll pays every pending service. The server returns aggregate
// counts, not a per-item diff, so reconciliation is reload-only.
func (s *Services) PayAll(ctx context.Context) (*PayAllResult, error) {
	s.begin()

	var result PayAllResult
	if err := s.client.Post(ctx, "/servicios/pagar-todos", nil, &result); err != nil {
		return nil, s.fail(err, "Error al pagar servicios")
	}

	s.mu.Lock()
	s.loading = false
	s.success = fmt.Sprintf("%d servicios pagados. Total: $%s", result.ServiciosPagados, money.Format(result.TotalPagado))
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		s.log.WithError(err).Debug("reconciliation reload failed")
	}
	return &result, nil
}

// Delete soft-deletes a service. The item leaves the held collection
// immediately and only an explicit Create brings one back.
func (s *Services) Delete(ctx context.Context, servicioID int) error {
	s.begin()

	path := fmt.Sprintf("/servicios/%d", servicioID)
	if err := s.client.Delete(ctx, path, nil); err != nil {
		return s.fail(err, "Error al eliminar servicio")
	}

	s.mu.Lock()
	kept := s.servicios[:0]
	for _, sv := range s.servicios {
		if sv.ID != servicioID {
			kept = append(kept, sv)
		}
	}
	s.servicios = kept
	s.loading = false
	s.success = "Servicio eliminado exitosamente"
	s.mu.Unlock()
	return nil
}

type updatedServiceResponse struct {
	Servicio models.Service `json:"servicio"`
}

// ChangeMobile switches the mobile service to a new provider and number.
func (s *Services) ChangeMobile(ctx context.Context, nuevoProveedor, nuevoNumero string) error {
	s.begin()

	body := map[string]string{
		"nuevo_proveedor": nuevoProveedor,
		"nuevo_numero":    nuevoNumero,
	}
	var resp updatedServiceResponse
	if err := s.client.Put(ctx, "/servicios/celular/cambiar", body, &resp); err != nil {
		return s.fail(err, "Error al cambiar servicio celular")
	}

	s.mu.Lock()
	for i := range s.servicios {
		if s.servicios[i].ID == resp.Servicio.ID {
			s.servicios[i] = resp.Servicio
		}
	}
	s.loading = false
	s.success = "Servicio celular actualizado exitosamente"
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		s.log.WithError(err).Debug("reconciliation reload failed")
	}
	return nil
}

// ClearMobiles removes every mobile service, reconciling by reload only.
func (s *Services) ClearMobiles(ctx context.Context) error {
	s.begin()

	if err := s.client.Post(ctx, "/servicios/celular/limpiar", nil, nil); err != nil {
		return s.fail(err, "Error al limpiar servicios celulares")
	}

	s.mu.Lock()
	s.loading = false
	s.success = "Servicios celulares limpiados exitosamente"
	s.mu.Unlock()

	if err := s.Load(ctx); err != nil {
		s.log.WithError(err).Debug("reconciliation reload failed")
	}
	return nil
}

// TotalPending sums the parsed monthly amounts of pending services.
func (s *Services) TotalPending() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, sv := range s.servicios {
		if sv.Estado == models.EstadoPendiente {
			total += sv.MonthlyAmount()
		}
	}
	return total
}

// TotalPaid sums the parsed monthly amounts of paid services.
func (s *Services) TotalPaid() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, sv := range s.servicios {
		if sv.Estado == models.EstadoPagado {
			total += sv.MonthlyAmount()
		}
	}
	return total
}

// InsufficientFor reports whether the pending total exceeds the given
// wallet balance. Views use it to block bulk payment before any call.
func (s *Services) InsufficientFor(balance float64) bool {
	return s.TotalPending() > balance
}
