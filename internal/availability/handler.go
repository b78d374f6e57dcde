package availability

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

type PublishResponse struct {
	Created []Slot `json:"created"`
	Count   int    `json:"count"`
}

// Publish godoc
// @Summary      Publish availability
// @Description  Creates 30 minute slots for the authenticated trainer. Slots that already exist are skipped.
// @Tags         availabilities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      PublishRequest  true  "Slots to publish"
// @Success      201      {object}  PublishResponse
// @Failure      400      {object}  api.ValidationResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /availabilities [post]
func (h *Handler) Publish(c *gin.Context) {
	requester, ok := auth.GetRequester(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated", Code: "unauthorized"})
		return
	}

	var req PublishRequest
	if !api.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Publish(c.Request.Context(), requester, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PublishResponse{Created: created, Count: len(created)})
}

// List godoc
// @Summary      List availability
// @Description  Returns the slots starting on the given day, optionally for one trainer.
// @Tags         availabilities
// @Produce      json
// @Param        date        query     string  true   "Day (YYYY-MM-DD)"
// @Param        trainer_id  query     string  false  "Trainer ID"
// @Success      200         {array}   Slot
// @Failure      400         {object}  api.ErrorResponse
// @Failure      503         {object}  api.ErrorResponse
// @Router       /availabilities [get]
func (h *Handler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context(), c.Query("date"), c.Query("trainer_id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// Delete godoc
// @Summary      Delete slot
// @Description  Removes an unbooked slot owned by the authenticated trainer.
// @Tags         availabilities
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      string  true  "Slot ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /availabilities/{slotID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	requester, ok := auth.GetRequester(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated", Code: "unauthorized"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester, c.Param("slotID")); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot deleted"})
}
