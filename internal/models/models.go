package models

import "github.com/ramollino912/wallet-simulator-frontend/internal/money"

// User is the authenticated wallet holder. Saldo is normalised to a
// number on ingestion regardless of how the backend encoded it.
type User struct {
	ID     int          `json:"id"`
	Nombre string       `json:"nombre"`
	Email  string       `json:"email"`
	Saldo  money.Amount `json:"saldo"`
}

// Recipient is a transfer destination returned by /buscar-usuario.
type Recipient struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
}

// Service categories.
const (
	ServiceLuz     = "luz"
	ServiceAgua    = "agua"
	ServiceGas     = "gas"
	ServiceCelular = "celular"
)

// Service bill states.
const (
	EstadoPendiente = "pendiente"
	EstadoPagado    = "pagado"
	EstadoVencido   = "vencido"
)

// Service is a registered service bill. MontoMensual travels as a
// numeric string and must go through money.Parse before arithmetic.
type Service struct {
	ID               int    `json:"id"`
	Nombre           string `json:"nombre"`
	Tipo             string `json:"tipo"`
	Proveedor        string `json:"proveedor"`
	NumeroServicio   string `json:"numero_servicio"`
	MontoMensual     string `json:"monto_mensual"`
	FechaVencimiento string `json:"fecha_vencimiento"`
	Estado           string `json:"estado"`
	Activo           bool   `json:"activo"`
	UsuarioID        int    `json:"usuarioid"`
}

// MonthlyAmount returns the parsed monthly amount, zero when malformed.
func (s Service) MonthlyAmount() float64 {
	return money.Parse(s.MontoMensual)
}

// Providers lists the available providers per service category.
type Providers struct {
	Luz     []string `json:"luz"`
	Agua    []string `json:"agua"`
	Gas     []string `json:"gas"`
	Celular []string `json:"celular"`
}

// ForType returns the provider list for a service category.
func (p Providers) ForType(tipo string) []string {
	switch tipo {
	case ServiceLuz:
		return p.Luz
	case ServiceAgua:
		return p.Agua
	case ServiceGas:
		return p.Gas
	case ServiceCelular:
		return p.Celular
	}
	return nil
}

// Card is a transit card. Saldo travels as a numeric string, same rule
// as Service.MontoMensual.
type Card struct {
	ID            int    `json:"id"`
	NumeroTarjeta string `json:"numero_tarjeta"`
	Empresa       string `json:"empresa"`
	Saldo         string `json:"saldo"`
	Activo        bool   `json:"activo"`
	UsuarioID     int    `json:"usuario_id"`
}

// Balance returns the parsed card balance.
func (c Card) Balance() float64 {
	return money.Parse(c.Saldo)
}

// CompanyStats aggregates cards per transit company.
type CompanyStats struct {
	Cantidad   int     `json:"cantidad"`
	SaldoTotal float64 `json:"saldo_total"`
}

// TransportStats is the per-user transit aggregate from /transporte/estadisticas.
type TransportStats struct {
	TotalTarjetas      int                     `json:"total_tarjetas"`
	TotalSaldo         float64                 `json:"total_saldo"`
	PromedioSaldo      float64                 `json:"promedio_saldo"`
	TarjetasPorEmpresa map[string]CompanyStats `json:"tarjetas_por_empresa"`
}

// Counterparty identifies the other side of a transfer activity.
type Counterparty struct {
	ID       int    `json:"id"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
}

// Activity is a server-owned transaction record. Read-only on the
// client; only paginated and filtered for display.
type Activity struct {
	ID          int           `json:"id"`
	Tipo        string        `json:"tipo"`
	Monto       money.Amount  `json:"monto"`
	Descripcion string        `json:"descripcion"`
	Fecha       string        `json:"fecha"`
	Estado      string        `json:"estado,omitempty"`
	EsEnvio     bool          `json:"esEnvio,omitempty"`
	Origen      *Counterparty `json:"origen,omitempty"`
	Destino     *Counterparty `json:"destino,omitempty"`
}
