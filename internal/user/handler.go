package user

import (
	"errors"
	"net/http"

	"coachslot/internal/api"
	"coachslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error(), Code: "email_exists"})
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: err.Error(), Code: "unauthorized"})
	default:
		api.RespondError(c, err)
	}
}

// Signup godoc
// @Summary      Register new user
// @Description  Creates a trainer or trainee account and returns access and refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      SignupRequest  true  "User registration data"
// @Success      201      {object}  AuthResponse
// @Failure      400      {object}  api.ValidationResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Login user
// @Description  Authenticates user by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "User credentials"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  api.ValidationResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary      Refresh access token
// @Description  Returns a new access token for a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token payload"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  api.ValidationResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe godoc
// @Summary      Get current user
// @Description  Returns profile of the authenticated user.
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  User
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated", Code: "unauthorized"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser godoc
// @Summary      Get user profile
// @Description  Returns the public profile of a user. Contact details are never included.
// @Tags         user
// @Produce      json
// @Param        userID  path      string  true  "User ID"
// @Success      200     {object}  Profile
// @Failure      404     {object}  api.ErrorResponse
// @Router       /users/{userID} [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.service.GetByID(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Profile())
}

// UpdateMe godoc
// @Summary      Update current user
// @Description  Changes the name or phone of the authenticated user.
// @Tags         user
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateRequest  true  "Profile fields"
// @Success      200      {object}  User
// @Failure      400      {object}  api.ValidationResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /me [patch]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated", Code: "unauthorized"})
		return
	}

	var req UpdateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
