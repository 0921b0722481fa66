package backend

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

// getBalance returns the balance as a numeric string, matching the
// production backend's habit of stringifying decimals.
func (s *Server) getBalance(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[currentUserID(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saldo": money.Format(u.Saldo)})
}

type topUpRequest struct {
	Monto float64 `json:"monto" validate:"gt=0"`
}

func (s *Server) topUp(c *gin.Context) {
	var req topUpRequest
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

	u, ok := s.users[currentUserID(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}
	u.Saldo = money.Round2(u.Saldo + money.Round2(req.Monto))
	s.recordActivity(u.ID, "ingreso", "Ingreso de dinero", req.Monto, false, nil, nil)

	c.JSON(http.StatusOK, gin.H{"success": true, "saldoNuevo": u.Saldo})
}

// getProfile stringifies saldo, like the production backend did.
func (s *Server) getProfile(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[currentUserID(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usuario": gin.H{
		"id":     u.ID,
		"nombre": u.Nombre,
		"email":  u.Email,
		"saldo":  money.Format(u.Saldo),
	}})
}

func (s *Server) searchUsers(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query requerida"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := []models.Recipient{}
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Nombre), query) || strings.Contains(strings.ToLower(u.Email), query) {
			results = append(results, models.Recipient{ID: u.ID, Nombre: u.Nombre, Email: u.Email})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	c.JSON(http.StatusOK, gin.H{"success": true, "usuarios": results})
}

type transferRequest struct {
	DestinatarioID int     `json:"destinatarioId" validate:"gt=0"`
	Monto          float64 `json:"monto" validate:"gt=0"`
	Descripcion    string  `json:"descripcion" validate:"required"`
}

func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
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

	sender, ok := s.users[currentUserID(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
		return
	}
	recipient, ok := s.users[req.DestinatarioID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Destinatario no encontrado"})
		return
	}
	if recipient.ID == sender.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No puedes transferirte a ti mismo"})
		return
	}
	monto := money.Round2(req.Monto)
	if monto > sender.Saldo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Saldo insuficiente"})
		return
	}

	sender.Saldo = money.Round2(sender.Saldo - monto)
	recipient.Saldo = money.Round2(recipient.Saldo + monto)

	origen := &models.Counterparty{ID: sender.ID, Nombre: sender.Nombre, Email: sender.Email}
	destino := &models.Counterparty{ID: recipient.ID, Nombre: recipient.Nombre, Email: recipient.Email}
	s.recordActivity(sender.ID, "transferencia", req.Descripcion, monto, true, origen, destino)
	s.recordActivity(recipient.ID, "transferencia", req.Descripcion, monto, false, origen, destino)

	c.JSON(http.StatusOK, gin.H{"success": true, "saldoActual": sender.Saldo})
}

func (s *Server) activitiesFor(userID int) []*activity {
	var out []*activity
	for _, act := range s.activities {
		if act.UserID == userID {
			out = append(out, act)
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

func (s *Server) listActivities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.activitiesFor(currentUserID(c))
	total := len(all)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := []models.Activity{}
	for _, act := range all[start:end] {
		items = append(items, act.Activity)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"actividades":  items,
		"pagina":       page,
		"total":        total,
		"totalPaginas": totalPages,
	})
}

func (s *Server) listRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit < 1 {
		limit = 5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.activitiesFor(currentUserID(c))
	if len(all) > limit {
		all = all[:limit]
	}
	items := []models.Activity{}
	for _, act := range all {
		items = append(items, act.Activity)
	}

	c.JSON(http.StatusOK, gin.H{"transacciones": items})
}
