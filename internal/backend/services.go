package backend

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

func (s *Server) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, providers)
}

// serviceView renders a service with its transport encoding: the
// monthly amount as a string and vencido derived at read time.
func (s *Server) serviceView(sv *service) models.Service {
	out := sv.Service
	out.MontoMensual = money.Format(sv.Monto)
	if out.Estado == models.EstadoPendiente && pastDue(out.FechaVencimiento) {
		out.Estado = models.EstadoVencido
	}
	return out
}

func pastDue(fecha string) bool {
	due, err := time.Parse("2006-01-02", fecha)
	if err != nil {
		return false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return due.Before(today)
}

func (s *Server) userServices(userID int) []*service {
	var out []*service
	for _, sv := range s.servicios {
		if sv.UsuarioID == userID && sv.Activo {
			out = append(out, sv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listServices(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []models.Service{}
	for _, sv := range s.userServices(currentUserID(c)) {
		items = append(items, s.serviceView(sv))
	}
	c.JSON(http.StatusOK, items)
}

type createServiceRequest struct {
	Nombre           string  `json:"nombre" validate:"required"`
	Tipo             string  `json:"tipo" validate:"required,oneof=luz agua gas celular"`
	Proveedor        string  `json:"proveedor" validate:"required"`
	NumeroServicio   string  `json:"numero_servicio" validate:"required"`
	MontoMensual     float64 `json:"monto_mensual" validate:"gt=0"`
	FechaVencimiento string  `json:"fecha_vencimiento" validate:"required"`
}

func (s *Server) createService(c *gin.Context) {
	var req createServiceRequest
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
	sv := &service{
		Service: models.Service{
			ID:               s.nextServiceID,
			Nombre:           req.Nombre,
			Tipo:             req.Tipo,
			Proveedor:        req.Proveedor,
			NumeroServicio:   req.NumeroServicio,
			FechaVencimiento: req.FechaVencimiento,
			Estado:           models.EstadoPendiente,
			Activo:           true,
			UsuarioID:        userID,
		},
		Monto: money.Round2(req.MontoMensual),
	}
	s.nextServiceID++
	s.servicios[sv.ID] = sv

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Servicio creado",
		"servicio": s.serviceView(sv),
	})
}

// servicePost routes the overlapping POST /servicios paths:
// /:id/pagar, /pagar-todos and /celular/limpiar.
func (s *Server) servicePost(c *gin.Context) {
	id, action := c.Param("id"), c.Param("action")
	switch {
	case id == "pagar-todos" && action == "":
		s.payAllServices(c)
	case id == "celular" && action == "limpiar":
		s.clearMobiles(c)
	case action == "pagar":
		s.payService(c)
	default:
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	}
}

func (s *Server) payService(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID := currentUserID(c)
	u := s.users[userID]
	sv, ok := s.servicios[id]
	if !ok || sv.UsuarioID != userID || !sv.Activo {
		c.JSON(http.StatusNotFound, gin.H{"error": "Servicio no encontrado"})
		return
	}
	if sv.Estado == models.EstadoPagado {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El servicio ya está pagado"})
		return
	}
	if sv.Monto > u.Saldo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Saldo insuficiente"})
		return
	}

	u.Saldo = money.Round2(u.Saldo - sv.Monto)
	sv.Estado = models.EstadoPagado
	s.recordActivity(userID, "pago_servicio", "Pago de "+sv.Nombre, sv.Monto, false, nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Servicio pagado",
		"saldo_actual": u.Saldo,
	})
}

func (s *Server) payAllServices(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := currentUserID(c)
	u := s.users[userID]

	var pending []*service
	var total float64
	for _, sv := range s.userServices(userID) {
		if sv.Estado != models.EstadoPagado {
			pending = append(pending, sv)
			total += sv.Monto
		}
	}
	total = money.Round2(total)
	if total > u.Saldo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Saldo insuficiente"})
		return
	}

	for _, sv := range pending {
		sv.Estado = models.EstadoPagado
		s.recordActivity(userID, "pago_servicio", "Pago de "+sv.Nombre, sv.Monto, false, nil, nil)
	}
	u.Saldo = money.Round2(u.Saldo - total)

	c.JSON(http.StatusOK, gin.H{
		"message":           "Servicios pagados",
		"servicios_pagados": len(pending),
		"total_pagado":      total,
		"saldo_actual":      u.Saldo,
	})
}

func (s *Server) deleteService(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sv, ok := s.servicios[id]
	if !ok || sv.UsuarioID != currentUserID(c) || !sv.Activo {
		c.JSON(http.StatusNotFound, gin.H{"error": "Servicio no encontrado"})
		return
	}
	sv.Activo = false

	c.JSON(http.StatusOK, gin.H{"message": "Servicio eliminado"})
}

type changeMobileRequest struct {
	NuevoProveedor string `json:"nuevo_proveedor" validate:"required"`
	NuevoNumero    string `json:"nuevo_numero" validate:"required"`
}

func (s *Server) changeMobile(c *gin.Context) {
	var req changeMobileRequest
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

	for _, sv := range s.userServices(currentUserID(c)) {
		if sv.Tipo == models.ServiceCelular {
			sv.Proveedor = req.NuevoProveedor
			sv.NumeroServicio = req.NuevoNumero
			c.JSON(http.StatusOK, gin.H{
				"message":  "Servicio celular actualizado",
				"servicio": s.serviceView(sv),
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "No tienes un servicio celular activo"})
}

func (s *Server) clearMobiles(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, sv := range s.userServices(currentUserID(c)) {
		if sv.Tipo == models.ServiceCelular {
			sv.Activo = false
			removed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Servicios celulares limpiados", "eliminados": removed})
}
