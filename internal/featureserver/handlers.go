package featureserver

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yelp-featureserver/internal/geoservices"
	"github.com/sells-group/yelp-featureserver/internal/provider"
	"github.com/sells-group/yelp-featureserver/pkg/yelp"
)

// jsonpCallback restricts callbacks to dotted JavaScript identifiers.
var jsonpCallback = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

type handler struct {
	provider DataProvider
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello Yelp"))
}

func (h *handler) serviceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"serviceDescription": "Yelp businesses",
		"layers": []map[string]any{
			{"id": 0, "name": "Yelp", "geometryType": "esriGeometryPoint"},
		},
	})
}

func (h *handler) featureServer(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.Atoi(chi.URLParam(r, "layer")); err != nil {
		writeError(w, r, eris.Wrapf(provider.ErrBadRequest, "invalid layer %q", chi.URLParam(r, "layer")))
		return
	}

	switch method := chi.URLParam(r, "method"); method {
	case "":
		writeJSON(w, r, http.StatusOK, map[string]any{
			"id":           0,
			"name":         "Yelp",
			"type":         "Feature Layer",
			"geometryType": "esriGeometryPoint",
		})
		return
	case "query":
	default:
		writeError(w, r, eris.Wrapf(provider.ErrBadRequest, "unsupported method %q", method))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, r, eris.Wrap(provider.ErrBadRequest, err.Error()))
		return
	}
	params := geoservices.FromValues(r.Form)

	fc, err := h.provider.GetData(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if fc.Count != nil {
		writeJSON(w, r, http.StatusOK, map[string]int{"count": *fc.Count})
		return
	}
	writeJSON(w, r, http.StatusOK, fc)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Upstream string `json:"upstream,omitempty"`
}

// statusFor maps an error to the response status: bad input is the caller's
// fault, upstream rejections are a bad gateway, everything else is ours.
func statusFor(err error) (int, string) {
	if eris.Is(err, provider.ErrBadRequest) {
		return http.StatusBadRequest, ""
	}
	if apiErr, ok := yelp.AsAPIError(err); ok {
		return http.StatusBadGateway, apiErr.Code
	}
	return http.StatusInternalServerError, ""
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, upstream := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("feature server request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, r, status, errorBody{Error: errorDetail{
		Code:     status,
		Message:  err.Error(),
		Upstream: upstream,
	}})
}

// writeJSON honors a JSONP callback parameter when it names a valid
// JavaScript identifier.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode response", zap.Error(err))
		http.Error(w, `{"error":{"code":500,"message":"encode response"}}`, http.StatusInternalServerError)
		return
	}

	cb := r.FormValue(geoservices.ParamCallback)
	if cb != "" && jsonpCallback.MatchString(cb) {
		w.Header().Set("Content-Type", "application/javascript")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(cb + "("))
		_, _ = w.Write(body)
		_, _ = w.Write([]byte(");"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
