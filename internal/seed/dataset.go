// Package seed holds the Kochi Metro Line 1 and Aluva feeder dataset used to
// populate the database and to run without one.
package seed

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/models"
)

type stop struct {
	name, code string
	lat, lng   float64
}

// Line 1, Aluva to Thripunithura
var metroStops = []stop{
	{"Aluva", "ALUVA", 10.1076, 76.3534},
	{"Pulinchodu", "PULINCHODU", 10.1014, 76.3497},
	{"Companypady", "COMPANYPADY", 10.0962, 76.3461},
	{"Ambattukavu", "AMBATTUKAVU", 10.0899, 76.3416},
	{"Muttom", "MUTTOM", 10.0835, 76.3370},
	{"Kalamassery", "KALAMASSERY", 10.0766, 76.3318},
	{"Cochin University", "CUSAT", 10.0690, 76.3256},
	{"Pathadipalam", "PATHADIPALAM", 10.0621, 76.3199},
	{"Edachira", "EDACHIRA", 10.0571, 76.3159},
	{"Changampuzha Park", "CHANGAMPUZHA", 10.0539, 76.3131},
	{"Palarivattom", "PALARIVATTOM", 10.0496, 76.3089},
	{"JLN Stadium", "JLN", 10.0441, 76.3038},
	{"Kaloor", "KALOOR", 10.0264, 76.3086},
	{"Town Hall", "TOWNHALL", 10.0183, 76.3041},
	{"Maharajas", "MAHARAJAS", 10.0116, 76.2989},
	{"MG Road", "MGROAD", 9.9754, 76.2796},
	{"Ernakulam South", "ERNAKULSOUTH", 9.9688, 76.2847},
	{"Kadavanthara", "KADAVANTHARA", 9.9629, 76.2891},
	{"Elamkulam", "ELAMKULAM", 9.9572, 76.2933},
	{"Vyttila", "VYTTILA", 9.9405, 76.3013},
	{"Thaikoodam", "THAIKOODAM", 9.9461, 76.3153},
	{"Petta", "PETTA", 9.9510, 76.3277},
	{"SN Junction", "SNJUNCTION", 9.9543, 76.3458},
	{"Vadakkekotta", "VADAKKEKOTTA", 9.9560, 76.3556},
	{"Thripunithura", "THRIPUNITHURA", 9.9576, 76.3639},
}

// Feeder route 1, Aluva Metro to Eloor
var feederStops = []stop{
	{"Aluva Metro Station", "F_ALUVA", 10.1076, 76.3534},
	{"Aluva Bus Stand", "F_ALUVA_BUS", 10.1090, 76.3550},
	{"Aluva Market", "F_ALUVA_MKT", 10.1100, 76.3580},
	{"Medical College Junction", "F_MEDCOL", 10.1120, 76.3620},
	{"CISF Campus", "F_CISF", 10.1150, 76.3670},
	{"Eloor", "F_ELOOR", 10.1180, 76.3720},
}

// Dataset is a consistent set of routes, stations, vehicles and timetables.
type Dataset struct {
	Routes     []models.Route
	Stations   []models.Station
	Vehicles   []models.Vehicle
	Timetables []models.Timetable
}

// Kochi builds the dataset with fresh ids, stamped with now.
func Kochi(now time.Time) Dataset {
	metro := stations(metroStops, now)
	feeder := stations(feederStops, now)

	l1 := route("Kochi Metro Line 1", "L1", models.RouteTypeMetro, "Aluva to Thripunithura", metro, now)
	f1 := route("Aluva Feeder Route 1", "F1", models.RouteTypeBus, "Aluva Metro to Eloor", feeder, now)

	return Dataset{
		Routes:   []models.Route{l1, f1},
		Stations: append(append([]models.Station(nil), metro...), feeder...),
		Vehicles: []models.Vehicle{
			vehicle("METRO-101", l1, metro, 0, 0, now),
			vehicle("METRO-102", l1, metro, 15, 0.3, now),
			vehicle("BUS-F1-01", f1, feeder, 0, 0, now),
			vehicle("BUS-F1-02", f1, feeder, 3, 0.5, now),
		},
		Timetables: []models.Timetable{
			timetable(l1, models.DayTypeWeekday, now,
				entry("6:00 AM", "9:00 AM", 10, "Peak"),
				entry("9:00 AM", "5:00 PM", 15, "Off-Peak"),
				entry("5:00 PM", "8:00 PM", 10, "Peak"),
				entry("8:00 PM", "10:00 PM", 20, "Off-Peak"),
				entry("10:00 PM", "11:00 PM", 30, "Night"),
			),
			timetable(f1, models.DayTypeWeekday, now,
				entry("6:00 AM", "9:00 AM", 10, "Peak"),
				entry("9:00 AM", "5:00 PM", 20, "Off-Peak"),
				entry("5:00 PM", "8:00 PM", 10, "Peak"),
				entry("8:00 PM", "10:00 PM", 25, "Off-Peak"),
			),
			timetable(l1, models.DayTypeWeekend, now,
				entry("7:00 AM", "11:00 PM", 20, "Off-Peak"),
			),
			timetable(f1, models.DayTypeWeekend, now,
				entry("7:00 AM", "10:00 PM", 30, "Off-Peak"),
			),
		},
	}
}

func stations(stops []stop, now time.Time) []models.Station {
	out := make([]models.Station, len(stops))
	for i, s := range stops {
		out[i] = models.Station{
			ID:          primitive.NewObjectID(),
			Name:        s.name,
			Code:        s.code,
			OrderIndex:  i,
			Coordinates: &models.Location{Lat: s.lat, Lng: s.lng},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return out
}

func route(name, code string, t models.RouteType, desc string, stations []models.Station, now time.Time) models.Route {
	ids := make([]primitive.ObjectID, len(stations))
	for i, s := range stations {
		ids[i] = s.ID
	}
	return models.Route{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Code:        code,
		Type:        t,
		Stations:    ids,
		Active:      true,
		Description: desc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func vehicle(id string, r models.Route, stations []models.Station, at int, progress float64, now time.Time) models.Vehicle {
	return models.Vehicle{
		VehicleID:        id,
		Type:             r.Type,
		RouteID:          r.ID,
		CurrentStationID: stations[at].ID,
		NextStationID:    stations[(at+1)%len(stations)].ID,
		Progress:         progress,
		LastUpdate:       now,
		Active:           true,
	}
}

func entry(start, end string, minutes int, kind string) models.ScheduleEntry {
	return models.ScheduleEntry{
		TimeRange: models.TimeRange{Start: start, End: end},
		Frequency: models.Frequency{Minutes: minutes, Type: kind},
	}
}

func timetable(r models.Route, day models.DayType, now time.Time, entries ...models.ScheduleEntry) models.Timetable {
	return models.Timetable{
		ID:        primitive.NewObjectID(),
		RouteID:   r.ID,
		DayType:   day,
		Schedule:  entries,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
