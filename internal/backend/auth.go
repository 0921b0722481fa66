package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/validation"
)

type claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u *user) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})
	return token.SignedString(s.secret)
}

// authRequired verifies the bearer token and stores the user ID in the
// gin context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization header format"})
			c.Abort()
			return
		}

		cl := &claims{}
		token, err := jwt.ParseWithClaims(parts[1], cl, func(token *jwt.Token) (any, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userId", cl.UserID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int {
	id, _ := c.Get("userId")
	userID, _ := id.(int)
	return userID
}

func (s *Server) userView(u *user) models.User {
	return models.User{
		ID:     u.ID,
		Nombre: u.Nombre,
		Email:  u.Email,
		Saldo:  money.Amount(u.Saldo),
	}
}

type registerRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
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

	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			c.JSON(http.StatusConflict, gin.H{"error": "El email ya está registrado"})
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
		return
	}

	u := &user{
		ID:           s.nextUserID,
		Nombre:       strings.TrimSpace(req.Nombre + " " + req.Apellido),
		Email:        req.Email,
		PasswordHash: string(hash),
		Saldo:        0,
	}
	s.nextUserID++
	s.users[u.ID] = u

	token, err := s.issueToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "usuario": s.userView(u)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
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

	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
				break
			}
			token, err := s.issueToken(u)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token, "usuario": s.userView(u)})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
}

type googleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// loginGoogle accepts any non-empty token and maps it to a fixed demo
// account. Real token verification is out of scope for the stub.
func (s *Server) loginGoogle(c *gin.Context) {
	var req googleLoginRequest
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

	const googleEmail = "google-user@wallet.local"
	var u *user
	for _, candidate := range s.users {
		if candidate.Email == googleEmail {
			u = candidate
			break
		}
	}
	if u == nil {
		u = &user{
			ID:     s.nextUserID,
			Nombre: "Usuario Google",
			Email:  googleEmail,
		}
		s.nextUserID++
		s.users[u.ID] = u
	}

	token, err := s.issueToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "usuario": s.userView(u)})
}
