package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"routegeo/internal/cache"
	"routegeo/internal/geo"
	"routegeo/internal/metrics"
	"routegeo/internal/model"
)

// decode resolves encoded through the cache, falling back to the dispatcher.
// Cache failures are logged and otherwise ignored.
func (s *Server) decode(ctx context.Context, encoded string, opts model.DecodeOptions) ([]model.GeoPoint, bool, error) {
	key := cache.Key(encoded, opts)
	backend := s.Cache.Backend()
	points, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		s.Logger.Warn("cache get failed", zap.String("backend", backend), zap.Error(err))
	}
	if ok {
		metrics.CacheHits.WithLabelValues(backend).Inc()
		return points, true, nil
	}
	metrics.CacheMisses.WithLabelValues(backend).Inc()

	points, err = s.Dispatcher.Decode(ctx, encoded, opts)
	if err != nil {
		return nil, false, err
	}
	if err := s.Cache.Set(ctx, key, points); err != nil {
		s.Logger.Warn("cache set failed", zap.String("backend", backend), zap.Error(err))
	}
	return points, false, nil
}

func summarize(points []model.GeoPoint, cached bool) model.DecodeResponse {
	resp := model.DecodeResponse{
		Points:  points,
		Count:   len(points),
		LengthM: geo.Length(points),
		Cached:  cached,
	}
	if b, ok := geo.BoundsOf(points); ok {
		resp.Bounds = &b
	}
	return resp
}

// decodeBody reads a JSON body no larger than the encoded limit plus
// envelope room.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.Config.MaxEncodedLen)+64<<10)
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeHandler handles POST /v1/polyline/decode
func (s *Server) DecodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.DecodeRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateDecodeRequest(&req, s.Config.MaxEncodedLen); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid decode request", err.Error(), r.URL.Path)
		return
	}
	points, cached, err := s.decode(r.Context(), req.Encoded, req.Options())
	if err != nil {
		writeError(w, r, "Decode failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(points, cached))
}

// RouteGeometryHandler handles GET/PUT /v1/routes/{routeId}/geometry and
// GET /v1/routes/{routeId}/deviation
func (s *Server) RouteGeometryHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/routes/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || (parts[1] != "geometry" && parts[1] != "deviation") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	routeID := parts[0]
	ctx, tenant := s.withTenant(r)
	if parts[1] == "deviation" {
		s.routeDeviation(ctx, w, r, tenant, routeID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		opts, err := optionsFromQuery(r)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
			return
		}
		enc, err := s.Routes.RoutePolyline(ctx, tenant, routeID)
		if err != nil {
			writeError(w, r, "Load route failed", err)
			return
		}
		points, cached, err := s.decode(ctx, enc, opts)
		if err != nil {
			writeError(w, r, "Decode failed", err)
			return
		}
		writeJSON(w, http.StatusOK, model.RouteGeometry{RouteID: routeID, DecodeResponse: summarize(points, cached)})
	case http.MethodPut:
		var req model.SaveGeometryRequest
		if err := s.decodeBody(w, r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateDecodeRequest(&model.DecodeRequest{Encoded: req.Encoded}, s.Config.MaxEncodedLen); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid geometry", err.Error(), r.URL.Path)
			return
		}
		if err := s.Routes.SaveRoutePolyline(ctx, tenant, routeID, req.Encoded); err != nil {
			writeError(w, r, "Save route failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func optionsFromQuery(r *http.Request) (model.DecodeOptions, error) {
	var opts model.DecodeOptions
	q := r.URL.Query()
	if v := q.Get("simplify"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("simplify must be a boolean")
		}
		opts.Simplify = &b
	}
	if v := q.Get("tolerance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New("tolerance must be a number")
		}
		opts.Tolerance = f
	}
	if err := validateDecodeRequest(&model.DecodeRequest{Tolerance: opts.Tolerance}, 0); err != nil {
		return opts, err
	}
	return opts, nil
}

// DeviationHandler handles POST /v1/routes/deviation
func (s *Server) DeviationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.DeviationRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateDeviationRequest(&req, s.Config.MaxEncodedLen); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid deviation request", err.Error(), r.URL.Path)
		return
	}
	route, _, err := s.decode(r.Context(), req.Polyline, model.DecodeOptions{})
	if err != nil {
		writeError(w, r, "Decode failed", err)
		return
	}
	now := time.Now()
	dev := geo.DetectDeviation(req.Current, route, req.History, now)
	if req.ScheduledStart != nil {
		if mins, ok := geo.EstimateDelay(req.Current, now, req.Schedule, *req.ScheduledStart); ok {
			dev.DelayMin = &mins
		}
	}
	writeJSON(w, http.StatusOK, dev)
}

// routeDeviation handles GET /v1/routes/{routeId}/deviation?position=lat,lng
// against the stored route.
func (s *Server) routeDeviation(ctx context.Context, w http.ResponseWriter, r *http.Request, tenant, routeID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pos, err := geo.ParseCoordinates(r.URL.Query().Get("position"))
	if err == nil {
		err = validatePoint("position", pos)
	}
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid position", err.Error(), r.URL.Path)
		return
	}
	enc, err := s.Routes.RoutePolyline(ctx, tenant, routeID)
	if err != nil {
		writeError(w, r, "Load route failed", err)
		return
	}
	route, _, err := s.decode(ctx, enc, model.DecodeOptions{})
	if err != nil {
		writeError(w, r, "Decode failed", err)
		return
	}
	writeJSON(w, http.StatusOK, geo.DetectDeviation(pos, route, nil, time.Now()))
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler pings the route store and cache when they are remote.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	for name, dep := range map[string]any{"store": s.Routes, "cache": s.Cache} {
		p, ok := dep.(pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "pendingDecodes": s.Dispatcher.Pending()})
}
