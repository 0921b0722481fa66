package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/session"
)

// newFlows wires a client, session and flows against the given stub and
// logs in as user 1 with saldo 410.96. Pass login=false to stay anonymous.
func newFlows(t *testing.T, mux *http.ServeMux, login bool) (*Flows, *session.Store) {
	t.Helper()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok1",
			"usuario": map[string]any{
				"id": 1, "nombre": "Ana García", "email": "ana@wallet.local", "saldo": "410.96",
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := api.NewClient(api.Config{BaseURL: srv.URL})
	sess := session.New(client, nil, nil)
	if login {
		if err := sess.Login(context.Background(), "ana@wallet.local", "secreto"); err != nil {
			t.Fatal(err)
		}
	}
	return NewFlows(client, sess), sess
}

func TestSearchEmptyQuery(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/buscar-usuario", func(w http.ResponseWriter, r *http.Request) { hits++ })
	f, _ := newFlows(t, mux, true)

	if _, err := f.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
	if hits != 0 {
		t.Error("a blank query must not reach the backend")
	}
}

func TestSearch(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/buscar-usuario", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"usuarios": []models.Recipient{
				{ID: 2, Nombre: "Juan Pérez", Email: "juan@wallet.local"},
			},
		})
	})
	f, _ := newFlows(t, mux, true)

	results, err := f.Search(context.Background(), "juan pérez")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "juan pérez" {
		t.Errorf("query = %q, escaping must round-trip", gotQuery)
	}
	if len(results) != 1 || results[0].ID != 2 {
		t.Errorf("results = %+v", results)
	}
}

func TestTransferRejectionsNeverReachBackend(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/transferir", func(w http.ResponseWriter, r *http.Request) { hits++ })
	f, _ := newFlows(t, mux, true)

	other := models.Recipient{ID: 2, Nombre: "Juan Pérez"}
	self := models.Recipient{ID: 1, Nombre: "Ana García"}

	tests := []struct {
		name      string
		recipient models.Recipient
		amount    float64
		want      error
	}{
		{"zero amount", other, 0, ErrInvalidAmount},
		{"negative amount", other, -5, ErrInvalidAmount},
		{"over balance", other, 410.97, ErrInsufficientBalance},
		{"self transfer", self, 10, ErrSelfTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Transfer(context.Background(), tt.recipient, tt.amount, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if hits != 0 {
		t.Errorf("backend hit %d times, client-side validation must run first", hits)
	}
}

func TestTransferRequiresSession(t *testing.T) {
	f, _ := newFlows(t, http.NewServeMux(), false)
	if _, err := f.Transfer(context.Background(), models.Recipient{ID: 2}, 10, ""); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestTransferBodyAndConfirmedBalance(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/transferir", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "saldoActual": 384.90})
	})
	f, sess := newFlows(t, mux, true)

	result, err := f.Transfer(context.Background(), models.Recipient{ID: 2, Nombre: "Juan Pérez"}, 25.999, "  ")
	if err != nil {
		t.Fatal(err)
	}

	if body["destinatarioId"] != float64(2) {
		t.Errorf("destinatarioId = %v (%T), want numeric 2", body["destinatarioId"], body["destinatarioId"])
	}
	if body["monto"] != 26.00 {
		t.Errorf("monto = %v, want the rounded 26.00", body["monto"])
	}
	if body["descripcion"] != DefaultDescription {
		t.Errorf("descripcion = %v, want the default", body["descripcion"])
	}
	if result.Amount != 26.00 || result.Balance != 384.90 {
		t.Errorf("result = %+v", result)
	}
	if got := sess.User().Saldo.Float(); got != 384.90 {
		t.Errorf("session saldo = %v, want the server-confirmed 384.90", got)
	}
}

func TestTransferKeepsCustomDescription(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/transferir", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "saldoActual": 400.96})
	})
	f, _ := newFlows(t, mux, true)

	if _, err := f.Transfer(context.Background(), models.Recipient{ID: 2}, 10, "Cena"); err != nil {
		t.Fatal(err)
	}
	if body["descripcion"] != "Cena" {
		t.Errorf("descripcion = %v", body["descripcion"])
	}
}

func TestTransferServerRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transferir", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Destinatario no encontrado"})
	})
	f, sess := newFlows(t, mux, true)

	_, err := f.Transfer(context.Background(), models.Recipient{ID: 99}, 10, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := sess.User().Saldo.Float(); got != 410.96 {
		t.Errorf("saldo = %v, a rejected transfer must not touch the balance", got)
	}
}

func TestTopUpServerValueWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/saldo/recargar", func(w http.ResponseWriter, r *http.Request) {
		// 410.96 + 100 would be 510.96 locally; the server says
		// otherwise and the server wins.
		json.NewEncoder(w).Encode(map[string]any{"success": true, "saldoNuevo": 515.96})
	})
	f, sess := newFlows(t, mux, true)

	saldo, err := f.TopUp(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if saldo != 515.96 {
		t.Errorf("saldo = %v, want 515.96", saldo)
	}
	if got := sess.User().Saldo.Float(); got != 515.96 {
		t.Errorf("session saldo = %v, want 515.96 not the local sum", got)
	}
}

func TestTopUpValidation(t *testing.T) {
	f, _ := newFlows(t, http.NewServeMux(), true)
	if _, err := f.TopUp(context.Background(), 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestPreviewBalance(t *testing.T) {
	f, _ := newFlows(t, http.NewServeMux(), true)
	if got := f.PreviewBalance(100); got != 510.96 {
		t.Errorf("preview = %v, want 510.96", got)
	}
	if got := f.PreviewBalance(-10.955); got != 400.01 {
		t.Errorf("preview = %v, want 400.01", got)
	}

	anon, _ := newFlows(t, http.NewServeMux(), false)
	if got := anon.PreviewBalance(100); got != 0 {
		t.Errorf("anonymous preview = %v, want 0", got)
	}
}

func TestActivities(t *testing.T) {
	var gotPage, gotLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("/actividades", func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"actividades": []models.Activity{
				{ID: 3, Tipo: "transferencia", Monto: 26, EsEnvio: true},
				{ID: 2, Tipo: "ingreso", Monto: 100},
			},
			"pagina": 2, "total": 12, "totalPaginas": 2,
		})
	})
	f, _ := newFlows(t, mux, true)

	page, err := f.Activities(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if gotPage != "2" || gotLimit != "10" {
		t.Errorf("page=%q limit=%q", gotPage, gotLimit)
	}
	if page.Page != 2 || page.Total != 12 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Errorf("page = %+v", page)
	}
}

func TestRecent(t *testing.T) {
	var gotLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("/transacciones", func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]any{
			"transacciones": []models.Activity{{ID: 5, Tipo: "ingreso", Monto: 100}},
		})
	})
	f, _ := newFlows(t, mux, true)

	items, err := f.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if gotLimit != "5" {
		t.Errorf("limit = %q, want the default 5", gotLimit)
	}
	if len(items) != 1 || items[0].ID != 5 {
		t.Errorf("items = %+v", items)
	}
}
