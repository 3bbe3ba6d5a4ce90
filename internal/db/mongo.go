package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samirnavas/metro-tracker/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB. An empty uri falls back to the MONGO_URI
// environment variable.
func ConnectMongo(uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = os.Getenv("MONGO_URI")
	}
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections of the metro tracker database.
type Store struct {
	Routes     *MongoCollection
	Stations   *MongoCollection
	Vehicles   *MongoCollection
	Timetables *MongoCollection
	Users      *MongoUserCollection
}

// NewStore binds the collections of database name.
func NewStore(client *mongo.Client, name string) *Store {
	database := client.Database(name)
	return &Store{
		Routes:     &MongoCollection{Collection: database.Collection("routes")},
		Stations:   &MongoCollection{Collection: database.Collection("stations")},
		Vehicles:   &MongoCollection{Collection: database.Collection("vehicles")},
		Timetables: &MongoCollection{Collection: database.Collection("timetables")},
		Users:      &MongoUserCollection{Collection: database.Collection("users")},
	}
}

// EnsureIndexes creates the unique and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll  *MongoCollection
		model mongo.IndexModel
	}{
		{s.Routes, mongo.IndexModel{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Routes, mongo.IndexModel{Keys: bson.D{{Key: "type", Value: 1}, {Key: "active", Value: 1}}}},
		{s.Stations, mongo.IndexModel{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Stations, mongo.IndexModel{Keys: bson.D{{Key: "orderIndex", Value: 1}}}},
		{s.Vehicles, mongo.IndexModel{Keys: bson.D{{Key: "vehicleId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.Timetables, mongo.IndexModel{Keys: bson.D{{Key: "route", Value: 1}, {Key: "dayType", Value: 1}}}},
	}
	for _, spec := range specs {
		if spec.coll == nil || spec.coll.Collection == nil {
			return errNilCollection
		}
		if _, err := spec.coll.Collection.Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("create index on %s: %w", spec.coll.Collection.Name(), err)
		}
	}
	return nil
}

// MongoCollection wraps a MongoDB collection for directory and vehicle operations.
type MongoCollection struct {
	Collection *mongo.Collection
}

// ListActiveRoutes returns active routes ordered by code.
func (c *MongoCollection) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var routes []models.Route
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// FindRouteByID finds a route by its hex ID.
func (c *MongoCollection) FindRouteByID(ctx context.Context, id string) (*models.Route, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid route ID %q: %w", id, ErrNotFound)
	}
	return c.findRoute(ctx, bson.M{"_id": objectID})
}

// FindRouteByCode finds a route by its code.
func (c *MongoCollection) FindRouteByCode(ctx context.Context, code string) (*models.Route, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	return c.findRoute(ctx, bson.M{"code": strings.ToUpper(strings.TrimSpace(code))})
}

func (c *MongoCollection) findRoute(ctx context.Context, filter bson.M) (*models.Route, error) {
	var route models.Route
	err := c.Collection.FindOne(ctx, filter).Decode(&route)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &route, nil
}

// ListStations returns all stations ordered by orderIndex.
func (c *MongoCollection) ListStations(ctx context.Context) ([]models.Station, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stations []models.Station
	if err := cursor.All(ctx, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// FindVehicles returns the last known state of every vehicle, retired ones
// included, so a restart can still reinstate them.
func (c *MongoCollection) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "vehicleId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// SaveVehicleStates upserts the mutable fields of each vehicle, keyed by vehicleId.
func (c *MongoCollection) SaveVehicleStates(ctx context.Context, vehicles []models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(vehicles) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(vehicles))
	for _, v := range vehicles {
		set := bson.M{
			"type":                  v.Type,
			"route":                 v.RouteID,
			"currentStation":        v.CurrentStationID,
			"nextStation":           v.NextStationID,
			"progressToNextStation": v.Progress,
			"lastUpdate":            v.LastUpdate,
			"active":                v.Active,
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"vehicleId": v.VehicleID}).
			SetUpdate(bson.M{"$set": set}).
			SetUpsert(true))
	}
	_, err := c.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// FindTimetable finds the active timetable of a route for a day type.
func (c *MongoCollection) FindTimetable(ctx context.Context, routeID string, dayType models.DayType) (*models.Timetable, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(routeID)
	if err != nil {
		return nil, fmt.Errorf("invalid route ID %q: %w", routeID, ErrNotFound)
	}
	var timetable models.Timetable
	err = c.Collection.FindOne(ctx, bson.M{"route": objectID, "dayType": dayType, "active": true}).Decode(&timetable)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &timetable, nil
}

// FindTimetables returns active timetables, optionally filtered by day type.
func (c *MongoCollection) FindTimetables(ctx context.Context, dayType models.DayType) ([]models.Timetable, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := bson.M{"active": true}
	if dayType != "" {
		filter["dayType"] = dayType
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var timetables []models.Timetable
	if err := cursor.All(ctx, &timetables); err != nil {
		return nil, err
	}
	return timetables, nil
}

// InsertMany inserts seed documents into the collection.
func (c *MongoCollection) InsertMany(ctx context.Context, docs []interface{}) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// DeleteAll deletes all documents from the collection.
func (c *MongoCollection) DeleteAll(ctx context.Context) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{})
	return err
}
