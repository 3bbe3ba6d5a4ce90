package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// TimetableHandler serves route timetables.
type TimetableHandler struct {
	timetables db.TimetableCollection
	dir        Directory
}

// NewTimetableHandler creates a timetable handler.
func NewTimetableHandler(timetables db.TimetableCollection, dir Directory) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, dir: dir}
}

func dayTypeParam(r *http.Request, fallback models.DayType) (models.DayType, bool) {
	v := models.DayType(r.URL.Query().Get("dayType"))
	if v == "" {
		return fallback, true
	}
	return v, models.IsValidDayType(v)
}

func (h *TimetableHandler) view(t models.Timetable) models.TimetableView {
	view := models.TimetableView{
		ID:       t.ID.Hex(),
		RouteID:  t.RouteID.Hex(),
		DayType:  t.DayType,
		Schedule: t.Schedule,
	}
	if snap := h.dir.Current(); snap != nil {
		if route, ok := snap.RouteByObjectID(t.RouteID); ok {
			view.RouteName = route.Name
			view.RouteCode = route.Code
			view.RouteType = route.Type
		}
	}
	return view
}

// ListTimetables returns all active timetables, optionally for one day type.
func (h *TimetableHandler) ListTimetables(w http.ResponseWriter, r *http.Request) {
	dayType, ok := dayTypeParam(r, "")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid dayType", nil)
		return
	}
	items, err := h.timetables.FindTimetables(r.Context(), dayType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch timetables", err)
		return
	}
	views := make([]models.TimetableView, 0, len(items))
	for _, t := range items {
		views = append(views, h.view(t))
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].RouteCode < views[j].RouteCode })
	writeData(w, views)
}

// GetTimetable returns the timetable of one route; dayType defaults to Weekday.
func (h *TimetableHandler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	dayType, ok := dayTypeParam(r, models.DayTypeWeekday)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid dayType", nil)
		return
	}
	routeID := mux.Vars(r)["routeId"]
	if snap := h.dir.Current(); snap != nil {
		if route, ok := snap.Route(routeID); ok {
			routeID = route.ID.Hex()
		}
	}

	t, err := h.timetables.FindTimetable(r.Context(), routeID, dayType)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Timetable not found for this route", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch timetable", err)
		return
	}
	view := h.view(*t)
	view.ID = ""
	writeData(w, view)
}
