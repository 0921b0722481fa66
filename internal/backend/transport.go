package backend

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

func (s *Server) listCompanies(c *gin.Context) {
	c.JSON(http.StatusOK, companies)
}

func (s *Server) cardView(t *card) models.Card {
	out := t.Card
	out.Saldo = money.Format(t.Monto)
	return out
}

func (s *Server) userCards(userID int, active bool) []*card {
	var out []*card
	for _, t := range s.tarjetas {
		if t.UsuarioID == userID && t.Activo == active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// cardGet routes the overlapping GET /transporte/tarjetas paths:
// /desactivadas and /:id/saldo.
func (s *Server) cardGet(c *gin.Context) {
	id, action := c.Param("id"), c.Param("action")
	switch {
	case id == "desactivadas" && action == "":
		s.listDeactivatedCards(c)
	case action == "saldo":
		s.cardBalance(c)
	default:
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	}
}

func (s *Server) listCards(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []models.Card{}
	for _, t := range s.userCards(currentUserID(c), true) {
		items = append(items, s.cardView(t))
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listDeactivatedCards(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []models.Card{}
	for _, t := range s.userCards(currentUserID(c), false) {
		items = append(items, s.cardView(t))
	}
	c.JSON(http.StatusOK, items)
}

type registerCardRequest struct {
	NumeroTarjeta string `json:"numero_tarjeta" validate:"required,min=4"`
	Empresa       string `json:"empresa" validate:"required"`
}

func (s *Server) registerCard(c *gin.Context) {
	var req registerCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if errs := validation.Struct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data", "details": errs})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tarjetas {
		if t.NumeroTarjeta == req.NumeroTarjeta {
			c.JSON(http.StatusConflict, gin.H{"error": "La tarjeta ya está registrada"})
			return
		}
	}

	t := &card{
		Card: models.Card{
			ID:            s.nextCardID,
			NumeroTarjeta: req.NumeroTarjeta,
			Empresa:       req.Empresa,
			Activo:        true,
			UsuarioID:     currentUserID(c),
		},
		Monto: 0,
	}
	s.nextCardID++
	s.tarjetas[t.ID] = t

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tarjeta registrada",
		"tarjeta": s.cardView(t),
	})
}

type rechargeCardRequest struct {
	TarjetaID int     `json:"tarjeta_id" validate:"gt=0"`
	Monto     float64 `json:"monto" validate:"gt=0"`
}

func (s *Server) rechargeCard(c *gin.Context) {
	var req rechargeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if errs := validation.Struct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data", "details": errs})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID := currentUserID(c)
	u := s.users[userID]
	t, ok := s.tarjetas[req.TarjetaID]
	if !ok || t.UsuarioID != userID || !t.Activo {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tarjeta no encontrada"})
		return
	}
	monto := money.Round2(req.Monto)
	if monto > u.Saldo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Saldo insuficiente"})
		return
	}

	u.Saldo = money.Round2(u.Saldo - monto)
	t.Monto = money.Round2(t.Monto + monto)
	s.recordActivity(userID, "recarga_transporte", "Recarga tarjeta "+t.NumeroTarjeta, monto, false, nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Tarjeta recargada",
		"saldo_tarjeta": t.Monto,
		"saldo_usuario": u.Saldo,
	})
}

func (s *Server) deleteCard(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tarjetas[id]
	if !ok || t.UsuarioID != currentUserID(c) || !t.Activo {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tarjeta no encontrada"})
		return
	}
	// Soft delete: the balance stays on the card.
	t.Activo = false

	c.JSON(http.StatusOK, gin.H{"message": "Tarjeta desactivada"})
}

func (s *Server) reactivateCard(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tarjetas[id]
	if !ok || t.UsuarioID != currentUserID(c) || t.Activo {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tarjeta no encontrada"})
		return
	}
	t.Activo = true

	c.JSON(http.StatusOK, gin.H{
		"message": "Tarjeta reactivada",
		"tarjeta": s.cardView(t),
	})
}

func (s *Server) cardBalance(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tarjetas[id]
	if !ok || t.UsuarioID != currentUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tarjeta no encontrada"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"saldo":          money.Format(t.Monto),
		"empresa":        t.Empresa,
		"numero_tarjeta": t.NumeroTarjeta,
	})
}

func (s *Server) transportStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.TransportStats{
		TarjetasPorEmpresa: map[string]models.CompanyStats{},
	}
	for _, t := range s.userCards(currentUserID(c), true) {
		stats.TotalTarjetas++
		stats.TotalSaldo = money.Round2(stats.TotalSaldo + t.Monto)
		cs := stats.TarjetasPorEmpresa[t.Empresa]
		cs.Cantidad++
		cs.SaldoTotal = money.Round2(cs.SaldoTotal + t.Monto)
		stats.TarjetasPorEmpresa[t.Empresa] = cs
	}
	if stats.TotalTarjetas > 0 {
		stats.PromedioSaldo = money.Round2(stats.TotalSaldo / float64(stats.TotalTarjetas))
	}
	c.JSON(http.StatusOK, stats)
}
