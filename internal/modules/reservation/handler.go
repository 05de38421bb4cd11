package reservation

import (
	"errors"
	"net/http"

	"charterdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.SugaredLogger
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the reservation API. deleteGuards run before
// DELETE /reservations/:id only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, deleteGuards ...gin.HandlerFunc) {
	reservations := rg.Group("/reservations")
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.PATCH("/:id", h.UpdateReservation)
		reservations.DELETE("/:id", append(deleteGuards, h.DeleteReservation)...)

		reservations.PUT("/:id/resources", h.AssignResources)
		reservations.PATCH("/:id/status", h.ChangeStatus)
		reservations.POST("/:id/passengers", h.AddPassenger)
	}

	rg.DELETE("/passengers/:id", h.RemovePassenger)
	rg.GET("/availability/:kind/:id", h.CheckAvailability)
}

// CreateReservation handles POST /api/v1/reservations
// @Summary Create reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReservationRequest true "Reservation with optional manifest"
// @Success 201 {object} response.Response{data=domain.Reservation}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /reservations [post]
func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// ListReservations handles GET /api/v1/reservations
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, confirmed, in_progress, completed, cancelled)
// @Param customer_id query string false "Customer ID"
// @Param vehicle_id query string false "Vehicle ID"
// @Param driver_id query string false "Driver ID"
// @Param date_from query string false "First day, YYYY-MM-DD"
// @Param date_to query string false "Last day, YYYY-MM-DD"
// @Param search query string false "Customer or route name"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Response{data=ListResult}
// @Failure 400 {object} response.Response
// @Router /reservations [get]
func (h *Handler) ListReservations(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid query parameters")
		return
	}

	result, err := h.service.FindAll(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GetReservation handles GET /api/v1/reservations/:id
// @Summary Get reservation with relations and manifest
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Response{data=domain.Reservation}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id} [get]
func (h *Handler) GetReservation(c *gin.Context) {
	res, err := h.service.FindOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// UpdateReservation handles PATCH /api/v1/reservations/:id
// Sending "details" replaces the whole manifest.
// @Summary Update reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body UpdateReservationRequest true "Fields to change"
// @Success 200 {object} response.Response{data=domain.Reservation}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /reservations/{id} [patch]
func (h *Handler) UpdateReservation(c *gin.Context) {
	var req UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	res, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// DeleteReservation handles DELETE /api/v1/reservations/:id
// @Summary Delete reservation and its manifest
// @Tags Reservations
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id} [delete]
func (h *Handler) DeleteReservation(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// AssignResources handles PUT /api/v1/reservations/:id/resources
// @Summary Assign vehicle and driver
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body AssignResourcesRequest true "Vehicle and driver"
// @Success 200 {object} response.Response{data=domain.Reservation}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /reservations/{id}/resources [put]
func (h *Handler) AssignResources(c *gin.Context) {
	var req AssignResourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	res, err := h.service.AssignResources(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ChangeStatus handles PATCH /api/v1/reservations/:id/status
// @Summary Change reservation status
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body ChangeStatusRequest true "New status"
// @Success 200 {object} response.Response{data=domain.Reservation}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id}/status [patch]
func (h *Handler) ChangeStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	res, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// AddPassenger handles POST /api/v1/reservations/:id/passengers
// @Summary Add passenger to manifest
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body AddPassengerRequest true "Customer reference or inline passenger"
// @Success 201 {object} response.Response{data=domain.PassengerDetail}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /reservations/{id}/passengers [post]
func (h *Handler) AddPassenger(c *gin.Context) {
	var req AddPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	p, err := h.service.AddPassenger(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// RemovePassenger handles DELETE /api/v1/passengers/:id
// @Summary Remove passenger from manifest
// @Tags Reservations
// @Security BearerAuth
// @Param id path string true "Passenger ID"
// @Success 204
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /passengers/{id} [delete]
func (h *Handler) RemovePassenger(c *gin.Context) {
	if err := h.service.RemovePassenger(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// CheckAvailability handles GET /api/v1/availability/:kind/:id
// @Summary Check vehicle or driver availability for a day
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Resource kind" Enums(vehicle, driver)
// @Param id path string true "Resource ID"
// @Param date query string true "Day, YYYY-MM-DD"
// @Param exclude_reservation_id query string false "Reservation to ignore"
// @Success 200 {object} response.Response{data=AvailabilityResult}
// @Failure 400 {object} response.Response
// @Router /availability/{kind}/{id} [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	result, err := h.service.CheckAvailability(
		c.Request.Context(),
		c.Param("kind"),
		c.Param("id"),
		c.Query("date"),
		c.Query("exclude_reservation_id"),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, "RESOURCE_CONFLICT", err.Error(), gin.H{
			"kind":        conflict.Kind,
			"resource_id": conflict.ResourceID,
			"day":         conflict.Day,
		})
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		response.Error(c, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", err.Error())
	case errors.Is(err, ErrVehicleNotAssigned):
		response.Error(c, http.StatusBadRequest, "VEHICLE_NOT_ASSIGNED", err.Error())
	case errors.Is(err, ErrInvalidArgument):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		h.log.Errorw("reservation request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
