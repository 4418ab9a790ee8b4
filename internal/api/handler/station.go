package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chargeroute/chargeroute/internal/api/models"
	"github.com/chargeroute/chargeroute/internal/api/response"
	"github.com/chargeroute/chargeroute/internal/station"
)

// StationFinder is the station service surface the handler needs.
type StationFinder interface {
	ResolvedInBox(ctx context.Context, box station.GeoBox) ([]station.Resolved, error)
	ProviderName() string
}

// StationHandler handles station discovery endpoints.
type StationHandler struct {
	stations StationFinder
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations StationFinder) *StationHandler {
	return &StationHandler{stations: stations}
}

// ListStations handles GET /v1/stations - charging stations in a bounding
// box, for map display.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	box, fieldErrors := parseGeoBox(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid bounding box", fieldErrors)
		return
	}

	resolved, err := h.stations.ResolvedInBox(r.Context(), box)
	if err != nil {
		response.ServiceUnavailable(w, r, "station data is temporarily unavailable")
		return
	}

	items := make([]models.Station, 0, len(resolved))
	for i := range resolved {
		items = append(items, toStationModel(&resolved[i]))
	}

	response.Cached(w, r, 60, models.StationList{
		Items:    items,
		Provider: h.stations.ProviderName(),
	})
}

// parseGeoBox reads minLat/minLon/maxLat/maxLon query parameters.
func parseGeoBox(r *http.Request) (station.GeoBox, []models.FieldError) {
	var (
		box  station.GeoBox
		errs []models.FieldError
	)

	parse := func(name string, dest *float64, min, max float64) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			errs = append(errs, models.FieldError{Field: name, Message: "is required"})
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < min || v > max {
			errs = append(errs, models.FieldError{Field: name, Message: "must be a valid coordinate"})
			return
		}
		*dest = v
	}

	parse("minLat", &box.MinLat, -90, 90)
	parse("minLon", &box.MinLon, -180, 180)
	parse("maxLat", &box.MaxLat, -90, 90)
	parse("maxLon", &box.MaxLon, -180, 180)

	if len(errs) == 0 {
		if box.MinLat >= box.MaxLat {
			errs = append(errs, models.FieldError{Field: "maxLat", Message: "must be greater than minLat"})
		}
		if box.MinLon >= box.MaxLon {
			errs = append(errs, models.FieldError{Field: "maxLon", Message: "must be greater than minLon"})
		}
	}

	return box, errs
}

func toStationModel(resolved *station.Resolved) models.Station {
	st := resolved.Station

	totalConnectors := 0
	if st.TotalChargers != nil {
		totalConnectors = *st.TotalChargers
	}

	return models.Station{
		ID:              st.ID,
		Name:            st.Name,
		Operator:        st.Operator,
		Point:           models.Point{Lat: st.Position.Lat, Lon: st.Position.Lon},
		PowerKW:         st.PowerKW,
		TotalConnectors: totalConnectors,
		PricePerKWh:     resolved.PricePerKWh,
		ConnectionFee:   resolved.ConnectionFee,
		Availability:    resolved.Availability,
		SpeedLabel:      resolved.SpeedLabel,
		FastBrand:       st.FastBrand,
		UpdatedAt:       models.Timestamp(st.UpdatedAt),
	}
}
