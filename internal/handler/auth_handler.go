package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/registry"
	"github.com/inv-nithin007/School-manager/pkg/database"
	"github.com/inv-nithin007/School-manager/pkg/jwtutil"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// userPayload is the user summary returned by login and register
func userPayload(user *model.User, role string) echo.Map {
	return echo.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       role,
	}
}

// Login authenticates a user and issues an access/refresh token pair
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Username == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&user).Error; err != nil {
		log.Warn("User not found", zap.String("username", req.Username))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("username", req.Username))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	role, err := registry.ResolveRole(database.GetDB(), &user)
	if err != nil {
		log.Error("Failed to resolve role", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred during login"})
	}

	pair, err := jwtutil.GenerateTokenPair(user.Username, user.Email, user.ID, string(role))
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred during login"})
	}

	log.Info("User logged in",
		zap.String("username", user.Username),
		zap.String("role", string(role)))

	return c.JSON(http.StatusOK, echo.Map{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userPayload(&user, string(role)),
	})
}

// Register creates a new user with its role profile and issues a token pair
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}

	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, password, and email are required"})
	}

	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleTeacher && req.Role != model.RoleStudent {
		prometheus.RecordAuthError("invalid_role")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := registry.RegisterUser(database.GetDB(), registry.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	switch {
	case errors.Is(err, registry.ErrUsernameTaken):
		log.Warn("Username already exists", zap.String("username", req.Username))
		prometheus.RecordAuthError("username_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
	case errors.Is(err, registry.ErrEmailTaken):
		log.Warn("Email already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	case err != nil:
		log.Error("Failed to register user", zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred during registration"})
	}

	pair, err := jwtutil.GenerateTokenPair(user.Username, user.Email, user.ID, req.Role)
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an error occurred during registration"})
	}

	log.Info("User registered",
		zap.String("username", user.Username),
		zap.String("role", req.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userPayload(user, req.Role),
	})
}
