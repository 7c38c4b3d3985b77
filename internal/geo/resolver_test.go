package geo

import (
	"context"
	"reflect"
	"testing"
	"time"

	"server/internal/domain"
)

func perimeter() domain.Perimeter {
	return domain.Perimeter{
		Points: []domain.LatLng{
			{Lat: -37.10, Lng: 145.20},
			{Lat: -37.11, Lng: 145.22},
			{Lat: -37.12, Lng: 145.19},
		},
	}
}

func TestResolveDeterministic(t *testing.T) {
	first, err := NewResolver(time.Minute).Resolve(context.Background(), perimeter())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	second, err := NewResolver(time.Minute).Resolve(context.Background(), perimeter())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Resolve not deterministic: %+v vs %+v", first, second)
	}
	if first.VegetationType == "" {
		t.Fatal("vegetation type missing")
	}
	if first.SlopeMeanDeg < 0 || first.SlopeMeanDeg > 45 {
		t.Fatalf("slope %v out of plausible range", first.SlopeMeanDeg)
	}
}

func TestResolveCachesByContentHash(t *testing.T) {
	r := NewResolver(time.Minute)
	first, err := r.Resolve(context.Background(), perimeter())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	cached, err := r.Resolve(context.Background(), perimeter())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !reflect.DeepEqual(first, cached) {
		t.Fatalf("cached context differs: %+v vs %+v", first, cached)
	}

	moved := perimeter()
	moved.Points[0].Lat += 0.5
	if _, err := r.Resolve(context.Background(), moved); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := r.cache.ItemCount(); got != 2 {
		t.Fatalf("cache entries = %d, want distinct entries per polygon", got)
	}
}

func TestResolveRejectsDegeneratePolygon(t *testing.T) {
	p := perimeter()
	p.Points = p.Points[:2]
	if _, err := NewResolver(time.Minute).Resolve(context.Background(), p); err == nil {
		t.Fatal("expected error for degenerate polygon")
	}
}
