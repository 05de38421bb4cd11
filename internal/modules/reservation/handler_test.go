package reservation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"charterdesk/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true

	f := newFixture(t)
	router := gin.New()
	v1 := router.Group("/api/v1")
	NewHandler(f.svc, nil).RegisterRoutes(v1)
	return router, f
}

func performRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestHandler_CreateAndGet(t *testing.T) {
	router, f := setupRouter(t)

	req := f.request("2025-12-15")
	req.VehicleID = &f.van.ID
	req.Details = passengers(1)

	resp := performRequest(router, http.MethodPost, "/api/v1/reservations", req)
	require.Equal(t, http.StatusCreated, resp.Code)
	env := decode(t, resp)
	assert.True(t, env.Success)

	var created domain.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "2025-12-15", created.ServiceDay)
	assert.Len(t, created.Passengers, 1)

	resp = performRequest(router, http.MethodGet, "/api/v1/reservations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var fetched domain.Reservation
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestHandler_ErrorMapping(t *testing.T) {
	router, f := setupRouter(t)

	booked := f.request("2025-12-15")
	booked.VehicleID = &f.van.ID
	f.create(t, booked)

	over := f.request("2025-12-16")
	over.VehicleID = &f.van.ID
	over.RequestedPassengerCount = 5

	missing := f.request("2025-12-16")
	missing.CustomerID = uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"conflict", http.MethodPost, "/api/v1/reservations", booked, http.StatusConflict, "RESOURCE_CONFLICT"},
		{"capacity", http.MethodPost, "/api/v1/reservations", over, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED"},
		{"missing customer", http.MethodPost, "/api/v1/reservations", missing, http.StatusNotFound, "NOT_FOUND"},
		{"malformed json", http.MethodPost, "/api/v1/reservations", `{"customer_id":`, http.StatusBadRequest, "INVALID_JSON"},
		{"unknown field", http.MethodPost, "/api/v1/reservations", `{"customer_id":"x","loyalty_tier":"gold"}`, http.StatusBadRequest, "INVALID_JSON"},
		{"bad id", http.MethodGet, "/api/v1/reservations/abc", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown reservation", http.MethodGet, "/api/v1/reservations/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad status", http.MethodGet, "/api/v1/reservations?status=archived", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			env := decode(t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestHandler_ConflictDetails(t *testing.T) {
	router, f := setupRouter(t)

	req := f.request("2025-12-15")
	req.DriverID = &f.driver.ID
	f.create(t, req)

	resp := performRequest(router, http.MethodPost, "/api/v1/reservations", req)
	require.Equal(t, http.StatusConflict, resp.Code)

	env := decode(t, resp)
	assert.Equal(t, "driver", env.Error.Details["kind"])
	assert.Equal(t, f.driver.ID, env.Error.Details["resource_id"])
	assert.Equal(t, "2025-12-15", env.Error.Details["day"])
}

func TestHandler_ManifestLifecycle(t *testing.T) {
	router, f := setupRouter(t)
	res := f.create(t, f.request("2025-12-15"))
	base := "/api/v1/reservations/" + res.ID

	p := passengers(1)[0]
	resp := performRequest(router, http.MethodPost, base+"/passengers", AddPassengerRequest{Passenger: &p})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VEHICLE_NOT_ASSIGNED", decode(t, resp).Error.Code)

	resp = performRequest(router, http.MethodPut, base+"/resources", AssignResourcesRequest{VehicleID: f.minibus.ID, DriverID: f.driver.ID})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = performRequest(router, http.MethodPost, base+"/passengers", AddPassengerRequest{Passenger: &p})
	require.Equal(t, http.StatusCreated, resp.Code)
	var added domain.PassengerDetail
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &added))

	resp = performRequest(router, http.MethodDelete, "/api/v1/passengers/"+added.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = performRequest(router, http.MethodDelete, "/api/v1/passengers/"+added.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_UpdateStatusAndDelete(t *testing.T) {
	router, f := setupRouter(t)
	res := f.create(t, f.request("2025-12-15"))
	base := "/api/v1/reservations/" + res.ID

	resp := performRequest(router, http.MethodPatch, base, map[string]any{"notes": "bring water"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "bring water")

	resp = performRequest(router, http.MethodPatch, base+"/status", ChangeStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"confirmed"`)

	resp = performRequest(router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = performRequest(router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_ListAndAvailability(t *testing.T) {
	router, f := setupRouter(t)

	req := f.request("2025-12-15")
	req.VehicleID = &f.van.ID
	f.create(t, req)
	f.create(t, f.request("2025-12-16"))

	resp := performRequest(router, http.MethodGet, "/api/v1/reservations?page_size=1&page=2", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list ListResult
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &list))
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "2025-12-16", list.Items[0].ServiceDay)

	resp = performRequest(router, http.MethodGet, "/api/v1/availability/vehicle/"+f.van.ID+"?date=2025-12-15", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var avail AvailabilityResult
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &avail))
	assert.False(t, avail.Available)

	resp = performRequest(router, http.MethodGet, "/api/v1/availability/vehicle/"+f.van.ID+"?date=2025-12-16", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), `"available":true`))
}
