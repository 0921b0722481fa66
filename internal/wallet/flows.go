// Package wallet orchestrates the money-moving flows the dashboard
// ran at view level: transfers, top-ups, recipient search and the
// transaction history. The balance shown after any of these is only
// ever a value the server confirmed.
package wallet

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/session"
)

// DefaultDescription fills a transfer's descripcion when the user
// leaves it empty; the backend requires the field.
const DefaultDescription = "Transferencia"

// Validation failures raised before any network call.
var (
	ErrEmptyQuery          = errors.New("ingresa un nombre o email para buscar")
	ErrInvalidAmount       = errors.New("ingresa un monto válido")
	ErrInsufficientBalance = errors.New("saldo insuficiente")
	ErrSelfTransfer        = errors.New("no puedes transferir dinero a ti mismo")
	ErrNoSession           = errors.New("no hay una sesión activa")
)

// Flows runs the view-level orchestration against the backend.
type Flows struct {
	client  *api.Client
	session *session.Store
}

// NewFlows creates a Flows bound to a client and session.
func NewFlows(client *api.Client, sess *session.Store) *Flows {
	return &Flows{client: client, session: sess}
}

type searchResponse struct {
	Success  bool               `json:"success"`
	Usuarios []models.Recipient `json:"usuarios"`
}

// Search finds transfer recipients by free-text query.
func (f *Flows) Search(ctx context.Context, query string) ([]models.Recipient, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	var resp searchResponse
	path := "/buscar-usuario?query=" + url.QueryEscape(query)
	if err := f.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Usuarios, nil
}

type transferRequest struct {
	DestinatarioID int     `json:"destinatarioId"`
	Monto          float64 `json:"monto"`
	Descripcion    string  `json:"descripcion"`
}

type transferResponse struct {
	Success     bool         `json:"success"`
	SaldoActual money.Amount `json:"saldoActual"`
}

// TransferResult is the confirmed outcome of a transfer.
type TransferResult struct {
	Recipient models.Recipient
	Amount    float64
	Balance   float64
}

// Transfer sends money to a recipient. Amount must be positive and
// within the current numeric balance, and transferring to oneself is
// rejected before the endpoint is ever called. On success the session
// balance becomes the server-confirmed post-transfer value.
func (f *Flows) Transfer(ctx context.Context, recipient models.Recipient, amount float64, description string) (*TransferResult, error) {
	user := f.session.User()
	if user == nil {
		return nil, ErrNoSession
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount > user.Saldo.Float() {
		return nil, ErrInsufficientBalance
	}
	if recipient.ID == user.ID {
		return nil, ErrSelfTransfer
	}

	descripcion := strings.TrimSpace(description)
	if descripcion == "" {
		descripcion = DefaultDescription
	}

	req := transferRequest{
		DestinatarioID: recipient.ID,
		Monto:          money.Round2(amount),
		Descripcion:    descripcion,
	}
	var resp transferResponse
	if err := f.client.Post(ctx, "/transferir", req, &resp); err != nil {
		return nil, err
	}

	f.session.SetBalance(resp.SaldoActual.Float())
	return &TransferResult{
		Recipient: recipient,
		Amount:    req.Monto,
		Balance:   resp.SaldoActual.Float(),
	}, nil
}

type topUpResponse struct {
	Success    bool         `json:"success"`
	SaldoNuevo money.Amount `json:"saldoNuevo"`
}

// TopUp ingresses money into the wallet. The new balance is the
// server-confirmed value, never the local sum.
func (f *Flows) TopUp(ctx context.Context, amount float64) (float64, error) {
	if f.session.User() == nil {
		return 0, ErrNoSession
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	body := map[string]float64{"monto": money.Round2(amount)}
	var resp topUpResponse
	if err := f.client.Post(ctx, "/saldo/recargar", body, &resp); err != nil {
		return 0, err
	}

	f.session.SetBalance(resp.SaldoNuevo.Float())
	return resp.SaldoNuevo.Float(), nil
}

// PreviewBalance computes the balance a successful operation would
// leave. Purely a non-authoritative hint shown before submission; it
// is never written to the session.
func (f *Flows) PreviewBalance(delta float64) float64 {
	user := f.session.User()
	if user == nil {
		return 0
	}
	return money.Round2(user.Saldo.Float() + delta)
}

// ActivityPage is one page of the transaction history.
type ActivityPage struct {
	Items      []models.Activity
	Page       int
	Total      int
	TotalPages int
}

type activitiesResponse struct {
	Success      bool              `json:"success"`
	Actividades  []models.Activity `json:"actividades"`
	Pagina       int               `json:"pagina"`
	Total        int               `json:"total"`
	TotalPaginas int               `json:"totalPaginas"`
}

// Activities fetches one history page (10 records per page).
func (f *Flows) Activities(ctx context.Context, page int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	var resp activitiesResponse
	path := "/actividades?page=" + strconv.Itoa(page) + "&limit=10"
	if err := f.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	result := &ActivityPage{
		Items:      resp.Actividades,
		Page:       resp.Pagina,
		Total:      resp.Total,
		TotalPages: resp.TotalPaginas,
	}
	if result.Page == 0 {
		result.Page = page
	}
	return result, nil
}

type recentResponse struct {
	Transacciones []models.Activity `json:"transacciones"`
}

// Recent fetches the latest transactions for the dashboard view.
func (f *Flows) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 5
	}
	var resp recentResponse
	path := "/transacciones?limit=" + strconv.Itoa(limit)
	if err := f.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Transacciones, nil
}
