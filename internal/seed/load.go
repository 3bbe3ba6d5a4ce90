package seed

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Writer is a collection that can be wiped and bulk loaded.
type Writer interface {
	DeleteAll(ctx context.Context) error
	InsertMany(ctx context.Context, docs []interface{}) error
}

// Collections are the destinations of a seed run.
type Collections struct {
	Routes     Writer
	Stations   Writer
	Vehicles   Writer
	Timetables Writer
}

// Load replaces the contents of every collection with the dataset.
func Load(ctx context.Context, dst Collections, data Dataset) error {
	steps := []struct {
		name string
		coll Writer
		docs []interface{}
	}{
		{"stations", dst.Stations, toDocs(len(data.Stations), func(i int) interface{} { return data.Stations[i] })},
		{"routes", dst.Routes, toDocs(len(data.Routes), func(i int) interface{} { return data.Routes[i] })},
		{"vehicles", dst.Vehicles, toDocs(len(data.Vehicles), func(i int) interface{} { return data.Vehicles[i] })},
		{"timetables", dst.Timetables, toDocs(len(data.Timetables), func(i int) interface{} { return data.Timetables[i] })},
	}
	for _, s := range steps {
		if err := s.coll.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear %s: %w", s.name, err)
		}
		if err := s.coll.InsertMany(ctx, s.docs); err != nil {
			return fmt.Errorf("insert %s: %w", s.name, err)
		}
		log.WithFields(log.Fields{
			"collection": s.name,
			"documents":  len(s.docs),
		}).Info("Seeded collection")
	}
	return nil
}

func toDocs(n int, at func(int) interface{}) []interface{} {
	docs := make([]interface{}, n)
	for i := range docs {
		docs[i] = at(i)
	}
	return docs
}
