package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"pump_control/internal/models"
)

const (
	statusOK = "ok"

	errRouteAlarm      = "failed to route alarm"
	errGetPolicy       = "failed to load policy"
	errSetPolicy       = "failed to store policy override"
	errGetSnapshot     = "failed to read devices"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...any) {
	if h.log != nil && err != nil {
		fields := append([]any{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// httpStatus maps the service error taxonomy onto HTTP codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownSite):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrTransport), errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// reportStatus picks the HTTP status for a cycle report. Remote write codes
// are not HTTP codes and surface as 502; the body keeps the reported code.
func reportStatus(code int) int {
	if code < 200 || code > 599 {
		return http.StatusBadGateway
	}
	return code
}

// PolicyOverride is the body of a policy update.
type PolicyOverride struct {
	// Policy key, e.g. high_level, low_level, noon_start_hour, on_hour
	Key string `json:"key" binding:"required" example:"high_level"`
	// New value as text; converted by key
	Value string `json:"value" binding:"required" example:"23.1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Run a decision cycle
// @Description  Reads the devices, decides the pump output and writes it at most once. An empty body runs the level thresholds only.
// @Tags         sites
// @Accept       json
// @Produce      json
// @Param        site  path      string        true   "Site name"  example(88k)
// @Param        body  body      models.Event  false  "Requested change"
// @Success      200   {object}  models.CycleReport
// @Failure      400   {object}  models.CycleReport
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  models.CycleReport
// @Failure      409   {object}  models.CycleReport
// @Failure      502   {object}  models.CycleReport
// @Failure      503   {object}  models.CycleReport
// @Failure      504   {object}  models.CycleReport
// @Router       /api/v1/sites/{site}/cycle [post]
// @Security     BearerAuth
func (h *Handler) runCycle(c *gin.Context) {
	var ev models.Event
	if err := c.ShouldBindJSON(&ev); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	rep := h.services.RunCycle(c.Request.Context(), c.Param("site"), ev)
	c.JSON(reportStatus(rep.StatusCode), rep)
}

// @Summary      Route a Sentinel alarm
// @Description  A low chlorine alarm with a positive reading shuts off every pump the Sentinel feeds. Other alarms are ignored.
// @Tags         alarms
// @Accept       json
// @Produce      json
// @Param        body  body      models.Alarm  true  "Parsed alarm"
// @Success      200   {object}  map[string]interface{}  "count, reports"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/alarms [post]
// @Security     BearerAuth
func (h *Handler) routeAlarm(c *gin.Context) {
	var alarm models.Alarm
	if !h.bindJSONOrBadRequest(c, &alarm) {
		return
	}
	reports, err := h.services.Route(c.Request.Context(), alarm)
	if err != nil {
		h.logAndJSONError(c, httpStatus(err), errRouteAlarm+": "+err.Error(), "alarm_route_failed", err, "sentinel", alarm.Sentinel)
		return
	}
	if reports == nil {
		reports = []models.CycleReport{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reports), "reports": reports})
}

// @Summary      Get site policy
// @Tags         sites
// @Produce      json
// @Param        site  path      string  true  "Site name"
// @Success      200   {object}  models.Policy
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/sites/{site}/policy [get]
// @Security     BearerAuth
func (h *Handler) getPolicy(c *gin.Context) {
	pol, err := h.services.Fetch(c.Request.Context(), c.Param("site"))
	if err != nil {
		h.logAndJSONError(c, httpStatus(err), errGetPolicy, "policy_get_failed", err, "site", c.Param("site"))
		return
	}
	c.JSON(http.StatusOK, pol)
}

// @Summary      Override one policy value
// @Tags         sites
// @Accept       json
// @Produce      json
// @Param        site  path      string          true  "Site name"
// @Param        body  body      PolicyOverride  true  "Key and value"
// @Success      200   {object}  models.Policy
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/sites/{site}/policy [put]
// @Security     BearerAuth
func (h *Handler) setPolicy(c *gin.Context) {
	var req PolicyOverride
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	pol, err := h.services.Override(c.Request.Context(), c.Param("site"), req.Key, req.Value)
	if err != nil {
		msg := errSetPolicy
		if errors.Is(err, models.ErrInvalidInput) {
			msg = err.Error()
		}
		h.logAndJSONError(c, httpStatus(err), msg, "policy_set_failed", err, "site", c.Param("site"), "key", req.Key)
		return
	}
	if h.log != nil {
		h.log.Infow("policy_overridden", "site", pol.Site, "key", req.Key, "value", req.Value, "user_id", c.GetInt(ctxUserID))
	}
	c.JSON(http.StatusOK, pol)
}

// @Summary      Live device snapshot
// @Tags         devices
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/snapshot [get]
// @Security     BearerAuth
func (h *Handler) getSnapshot(c *gin.Context) {
	snap, err := h.services.GetSnapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, httpStatus(err), errGetSnapshot, "snapshot_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
