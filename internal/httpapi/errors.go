package httpapi

import (
	"net/http"

	"redeemr/rewards-service/internal/service"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

var statusByKind = map[service.Kind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindUnauthenticated: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := service.KindOf(err)
	if !ok {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": requestIDFromRequest(r),
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	status := statusByKind[kind]
	if status == http.StatusUnauthorized {
		writeUnauthorized(w, err.Error())
		return
	}
	writeError(w, status, err.Error())
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, detail)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
