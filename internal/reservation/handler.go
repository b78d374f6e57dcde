package reservation

import (
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

func requester(c *gin.Context) (auth.Requester, bool) {
	r, ok := auth.GetRequester(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated", Code: "unauthorized"})
	}
	return r, ok
}

// Create godoc
// @Summary      Create reservation
// @Description  Books a course of consecutive 30 minute slots with a trainer. Closes at 23:59:59 on the day before.
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Reservation request"
// @Success      201      {object}  Reservation
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /reservations [post]
func (h *Handler) Create(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	var req CreateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Create(c.Request.Context(), who, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// List godoc
// @Summary      List reservations
// @Description  Trainees see their own reservations, trainers see the ones booked with them. Newest first.
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Reservation
// @Failure      503  {object}  api.ErrorResponse
// @Router       /reservations [get]
func (h *Handler) List(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), who)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary      Get reservation
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        reservationID  path      string  true  "Reservation ID"
// @Success      200            {object}  Reservation
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Router       /reservations/{reservationID} [get]
func (h *Handler) Get(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), who, c.Param("reservationID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Cancel godoc
// @Summary      Cancel reservation
// @Description  Cancels the reservation and frees its slots. Cancelling twice is a no-op.
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        reservationID  path      string  true  "Reservation ID"
// @Success      200            {object}  Reservation
// @Failure      400            {object}  api.ErrorResponse
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Router       /reservations/{reservationID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	who, ok := requester(c)
	if !ok {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), who, c.Param("reservationID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
