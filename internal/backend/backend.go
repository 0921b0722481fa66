// Package backend is an in-process stub of the wallet REST API. It
// exists for local development (cmd/walletd) and integration tests;
// state lives in memory and is lost on restart.
package backend

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
)

type user struct {
	ID           int
	Nombre       string
	Email        string
	PasswordHash string
	Saldo        float64
}

type service struct {
	models.Service
	Monto float64
}

type card struct {
	models.Card
	Monto float64
}

type activity struct {
	models.Activity
	UserID int
	At     time.Time
}

// Server holds the stub backend's state behind one mutex. Handlers
// are attached via Router.
type Server struct {
	mu     sync.Mutex
	secret []byte
	log    *logrus.Logger

	users      map[int]*user
	servicios  map[int]*service
	tarjetas   map[int]*card
	activities []*activity

	nextUserID     int
	nextServiceID  int
	nextCardID     int
	nextActivityID int
}

// NewServer creates an empty stub backend signing tokens with secret.
func NewServer(secret string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Server{
		secret:         []byte(secret),
		log:            log,
		users:          make(map[int]*user),
		servicios:      make(map[int]*service),
		tarjetas:       make(map[int]*card),
		nextUserID:     1,
		nextServiceID:  1,
		nextCardID:     1,
		nextActivityID: 1,
	}
}

// Provider catalogues served by the public endpoints.
var (
	providers = models.Providers{
		Luz:     []string{"Edenor", "Edesur", "EPEC"},
		Agua:    []string{"AySA", "Aguas Cordobesas"},
		Gas:     []string{"Metrogas", "Naturgy", "Ecogas"},
		Celular: []string{"Personal", "Movistar", "Claro"},
	}
	companies = []string{"SUBE", "Red Bus", "Metropolitano"}
)

// Router builds the gin engine with every route the dashboard consumed.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "walletd"})
	})

	// Public routes.
	r.POST("/auth/registro", s.register)
	r.POST("/auth/login", s.login)
	r.POST("/auth/google", s.loginGoogle)
	r.GET("/servicios/proveedores", s.listProviders)
	r.GET("/transporte/empresas", s.listCompanies)

	auth := r.Group("", s.authRequired())
	{
		auth.GET("/saldo", s.getBalance)
		auth.POST("/saldo/recargar", s.topUp)
		auth.GET("/profile", s.getProfile)
		auth.GET("/buscar-usuario", s.searchUsers)
		auth.POST("/transferir", s.transfer)
		auth.GET("/actividades", s.listActivities)
		auth.GET("/transacciones", s.listRecent)

		auth.GET("/servicios", s.listServices)
		auth.POST("/servicios", s.createService)
		// gin rejects static and param siblings in one method tree, so
		// the overlapping service and card paths dispatch on the
		// captured segments instead.
		auth.POST("/servicios/:id", s.servicePost)
		auth.POST("/servicios/:id/:action", s.servicePost)
		auth.DELETE("/servicios/:id", s.deleteService)
		auth.PUT("/servicios/celular/cambiar", s.changeMobile)

		auth.GET("/transporte/tarjetas", s.listCards)
		auth.GET("/transporte/tarjetas/:id", s.cardGet)
		auth.GET("/transporte/tarjetas/:id/:action", s.cardGet)
		auth.POST("/transporte/tarjetas", s.registerCard)
		auth.POST("/transporte/recargar", s.rechargeCard)
		auth.DELETE("/transporte/tarjetas/:id", s.deleteCard)
		auth.PUT("/transporte/tarjetas/:id/reactivar", s.reactivateCard)
		auth.GET("/transporte/estadisticas", s.transportStats)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	}
}

func (s *Server) recordActivity(userID int, tipo, descripcion string, monto float64, esEnvio bool, origen, destino *models.Counterparty) {
	act := &activity{
		Activity: models.Activity{
			ID:          s.nextActivityID,
			Tipo:        tipo,
			Monto:       money.Amount(monto),
			Descripcion: descripcion,
			Fecha:       time.Now().UTC().Format(time.RFC3339),
			EsEnvio:     esEnvio,
			Origen:      origen,
			Destino:     destino,
		},
		UserID: userID,
		At:     time.Now().UTC(),
	}
	s.nextActivityID++
	s.activities = append(s.activities, act)
}
