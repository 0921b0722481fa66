package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
)

func newServicesStore(t *testing.T, handler http.Handler) *Services {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewServices(api.NewClient(api.Config{BaseURL: srv.URL}), nil)
}

// serviceFixture is a tiny stateful stub: GET /servicios serves whatever
// the mutation handlers left behind, so reconciliation reloads observe
// server-side effects.
type serviceFixture struct {
	mux       *http.ServeMux
	servicios []models.Service
	onCreate  http.HandlerFunc
}

func newServiceFixture(items ...models.Service) *serviceFixture {
	f := &serviceFixture{mux: http.NewServeMux(), servicios: items}
	f.mux.HandleFunc("/servicios", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(f.servicios)
			return
		}
		if f.onCreate != nil {
			f.onCreate(w, r)
			return
		}
		http.NotFound(w, r)
	})
	return f
}

func pendingService(id int, nombre, monto string) models.Service {
	return models.Service{
		ID:           id,
		Nombre:       nombre,
		Tipo:         models.ServiceLuz,
		Proveedor:    "Edenor",
		MontoMensual: monto,
		Estado:       models.EstadoPendiente,
		Activo:       true,
	}
}

func TestServicesLoad(t *testing.T) {
	f := newServiceFixture(pendingService(1, "Luz casa", "50.00"))
	s := newServicesStore(t, f.mux)

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].Nombre != "Luz casa" {
		t.Errorf("items = %+v", items)
	}
	if s.IsLoading() {
		t.Error("loading flag should be reset")
	}
}

func TestServicesLoadProviders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/servicios/proveedores", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Providers{Luz: []string{"Edenor", "Edesur"}})
	})
	s := newServicesStore(t, mux)

	if err := s.LoadProviders(context.Background()); err != nil {
		t.Fatal(err)
	}
	p := s.Providers()
	if p == nil || len(p.ForType(models.ServiceLuz)) != 2 {
		t.Errorf("providers = %+v", p)
	}
}

func TestServicesPayMarksPaidAndReloads(t *testing.T) {
	f := newServiceFixture(pendingService(1, "Luz casa", "50.00"))
	f.mux.HandleFunc("/servicios/1/pagar", func(w http.ResponseWriter, r *http.Request) {
		f.servicios[0].Estado = models.EstadoPagado
		json.NewEncoder(w).Encode(map[string]any{"message": "Servicio pagado", "saldo_actual": 360.96})
	})
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := s.Pay(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if result.SaldoActual != 360.96 {
		t.Errorf("saldo = %v, want server value 360.96", result.SaldoActual)
	}
	if got := s.Items()[0].Estado; got != models.EstadoPagado {
		t.Errorf("estado = %q, want pagado after reconciliation", got)
	}
	if !strings.Contains(s.Success(), "360.96") {
		t.Errorf("success message should carry the confirmed balance, got %q", s.Success())
	}
	if s.Error() != "" {
		t.Errorf("error = %q, want empty", s.Error())
	}
}

func TestServicesPayRejectionLeavesCollection(t *testing.T) {
	f := newServiceFixture(pendingService(1, "Luz casa", "50.00"))
	f.mux.HandleFunc("/servicios/1/pagar", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Saldo insuficiente"})
	})
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Pay(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Error(); got != "Saldo insuficiente" {
		t.Errorf("error = %q", got)
	}
	if got := s.Items()[0].Estado; got != models.EstadoPendiente {
		t.Errorf("estado = %q, a rejected payment must not mutate the collection", got)
	}
	if s.Success() != "" {
		t.Errorf("success = %q, want empty", s.Success())
	}
}

func TestServicesLoadPreservesSuccess(t *testing.T) {
	f := newServiceFixture(pendingService(1, "Luz casa", "50.00"))
	f.mux.HandleFunc("/servicios/1/pagar", func(w http.ResponseWriter, r *http.Request) {
		f.servicios[0].Estado = models.EstadoPagado
		json.NewEncoder(w).Encode(map[string]any{"message": "Servicio pagado", "saldo_actual": 360.96})
	})
	s := newServicesStore(t, f.mux)
	if _, err := s.Pay(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Success() == "" {
		t.Error("a reload must not wipe the confirmation message")
	}
}

func TestServicesCreateAppendsAndReconciles(t *testing.T) {
	f := newServiceFixture()
	f.onCreate = func(w http.ResponseWriter, r *http.Request) {
		var req CreateParams
		json.NewDecoder(r.Body).Decode(&req)
		created := models.Service{
			ID: 7, Nombre: req.Nombre, Tipo: req.Tipo, Proveedor: req.Proveedor,
			NumeroServicio: req.NumeroServicio, MontoMensual: "120.00",
			FechaVencimiento: req.FechaVencimiento, Estado: models.EstadoPendiente, Activo: true,
		}
		f.servicios = append(f.servicios, created)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"message": "Servicio creado", "servicio": created})
	}
	s := newServicesStore(t, f.mux)

	err := s.Create(context.Background(), CreateParams{
		Nombre: "Gas depto", Tipo: models.ServiceGas, Proveedor: "Metrogas",
		NumeroServicio: "GX-1", MontoMensual: 120, FechaVencimiento: "2026-09-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ID != 7 {
		t.Errorf("items = %+v", items)
	}
	if s.Success() == "" {
		t.Error("expected a success message")
	}
}

func TestServicesDeleteSplicesWithoutReload(t *testing.T) {
	f := newServiceFixture(
		pendingService(1, "Luz casa", "50.00"),
		pendingService(2, "Agua casa", "30.00"),
	)
	f.mux.HandleFunc("/servicios/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Servicio eliminado"})
	})
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("items = %+v, want only service 2", items)
	}
}

func TestServicesPayAll(t *testing.T) {
	f := newServiceFixture(
		pendingService(1, "Luz casa", "50.00"),
		pendingService(2, "Agua casa", "30.00"),
	)
	f.mux.HandleFunc("/servicios/pagar-todos", func(w http.ResponseWriter, r *http.Request) {
		for i := range f.servicios {
			f.servicios[i].Estado = models.EstadoPagado
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Servicios pagados", "servicios_pagados": 2,
			"total_pagado": 80.00, "saldo_actual": 330.96,
		})
	})
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := s.PayAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.ServiciosPagados != 2 || result.SaldoActual != 330.96 {
		t.Errorf("result = %+v", result)
	}
	for _, sv := range s.Items() {
		if sv.Estado != models.EstadoPagado {
			t.Errorf("service %d still %q after reload", sv.ID, sv.Estado)
		}
	}
}

func TestServicesChangeMobile(t *testing.T) {
	celular := models.Service{
		ID: 3, Nombre: "Celular", Tipo: models.ServiceCelular, Proveedor: "Personal",
		NumeroServicio: "11-5555", MontoMensual: "15.00", Estado: models.EstadoPendiente, Activo: true,
	}
	f := newServiceFixture(celular)
	f.mux.HandleFunc("/servicios/celular/cambiar", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.servicios[0].Proveedor = req["nuevo_proveedor"]
		f.servicios[0].NumeroServicio = req["nuevo_numero"]
		json.NewEncoder(w).Encode(map[string]any{"message": "Servicio celular actualizado", "servicio": f.servicios[0]})
	})
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := s.ChangeMobile(context.Background(), "Movistar", "11-6666"); err != nil {
		t.Fatal(err)
	}
	got := s.Items()[0]
	if got.Proveedor != "Movistar" || got.NumeroServicio != "11-6666" {
		t.Errorf("service = %+v", got)
	}
}

func TestServicesTotals(t *testing.T) {
	paid := pendingService(2, "Agua casa", "30.50")
	paid.Estado = models.EstadoPagado
	f := newServiceFixture(pendingService(1, "Luz casa", "50.25"), paid)
	s := newServicesStore(t, f.mux)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := s.TotalPending(); got != 50.25 {
		t.Errorf("TotalPending = %v", got)
	}
	if got := s.TotalPaid(); got != 30.50 {
		t.Errorf("TotalPaid = %v", got)
	}
	if s.InsufficientFor(50.25) {
		t.Error("an exactly sufficient balance is not insufficient")
	}
	if !s.InsufficientFor(50.24) {
		t.Error("a balance below the pending total is insufficient")
	}
}

func TestServicesAutoClear(t *testing.T) {
	f := newServiceFixture(pendingService(1, "Luz casa", "50.00"))
	f.mux.HandleFunc("/servicios/1/pagar", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": "Servicio pagado", "saldo_actual": 10.0})
	})
	s := newServicesStore(t, f.mux)
	if _, err := s.Pay(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if s.Success() == "" {
		t.Fatal("expected a success message before the timer")
	}

	stop := s.AutoClear(10 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for s.Success() != "" {
		if time.Now().After(deadline) {
			t.Fatal("success message never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
