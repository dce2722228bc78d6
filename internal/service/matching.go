package service

import (
	"context"
	"sort"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/observability"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// DefaultSearchRadiusKm bounds each leg of a search when no override is
// configured. It is a tunable, not a contract.
const DefaultSearchRadiusKm = 50.0

// MatchingService finds rides whose route fits a passenger's trip.
type MatchingService struct {
	geoStore       redis.GeoStoreInterface
	rideRepo       repository.RideRepository
	cacheStore     *redis.CacheStore
	originRadiusKm float64
	destRadiusKm   float64
}

// NewMatchingService creates a new MatchingService. cacheStore may be nil.
// Non-positive radii fall back to DefaultSearchRadiusKm.
func NewMatchingService(
	geoStore redis.GeoStoreInterface,
	rideRepo repository.RideRepository,
	cacheStore *redis.CacheStore,
	originRadiusKm, destRadiusKm float64,
) *MatchingService {
	if originRadiusKm <= 0 {
		originRadiusKm = DefaultSearchRadiusKm
	}
	if destRadiusKm <= 0 {
		destRadiusKm = DefaultSearchRadiusKm
	}
	return &MatchingService{
		geoStore:       geoStore,
		rideRepo:       rideRepo,
		cacheStore:     cacheStore,
		originRadiusKm: originRadiusKm,
		destRadiusKm:   destRadiusKm,
	}
}

// SearchFilters narrows search results. Zero values mean "no constraint".
type SearchFilters struct {
	MinPrice *float64
	MaxPrice *float64
	Mode     *domain.BookingMode
	MinSeats int
}

// SearchRequest contains the parameters for a ride search.
type SearchRequest struct {
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Date        time.Time
	Filters     SearchFilters
}

// Match is a candidate ride with the distances of both trip legs.
type Match struct {
	Ride                 *domain.Ride
	OriginDistanceM      float64
	DestinationDistanceM float64
}

// Score is the combined pickup plus dropoff distance; lower is better.
func (m Match) Score() float64 {
	return m.OriginDistanceM + m.DestinationDistanceM
}

// Search returns upcoming rides departing on the requested calendar day whose
// origin and destination both lie within the configured radii, ranked by
// combined distance. Search never mutates state; an empty result is not an
// error. Seat counts may be slightly stale; booking re-validates them.
func (s *MatchingService) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	if !geo.ValidPoint(req.Origin) {
		return nil, ErrInvalidOrigin
	}
	if !geo.ValidPoint(req.Destination) {
		return nil, ErrInvalidDestination
	}

	start := time.Now()
	defer func() {
		observability.SearchesTotal.Inc()
		observability.SearchLatency.Observe(time.Since(start).Seconds())
	}()

	originHits, err := s.geoStore.NearbyOrigins(ctx, req.Origin, s.originRadiusKm*1000)
	if err != nil {
		return nil, err
	}
	if len(originHits) == 0 {
		return nil, nil
	}

	destHits, err := s.geoStore.NearbyDestinations(ctx, req.Destination, s.destRadiusKm*1000)
	if err != nil {
		return nil, err
	}

	destDistance := make(map[string]float64, len(destHits))
	for _, hit := range destHits {
		destDistance[hit.RideID] = hit.DistanceM
	}

	// Intersect both legs, keeping the origin ordering.
	var candidates []Match
	var ids []string
	for _, hit := range originHits {
		dd, ok := destDistance[hit.RideID]
		if !ok {
			continue
		}
		candidates = append(candidates, Match{OriginDistanceM: hit.DistanceM, DestinationDistanceM: dd})
		ids = append(ids, hit.RideID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rides, err := s.loadRides(ctx, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for i, id := range ids {
		ride, ok := rides[id]
		if !ok {
			continue
		}
		if !s.accepts(ride, req) {
			continue
		}
		match := candidates[i]
		match.Ride = ride
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		si, sj := matches[i].Score(), matches[j].Score()
		if si != sj {
			return si < sj
		}
		if !matches[i].Ride.DepartureTime.Equal(matches[j].Ride.DepartureTime) {
			return matches[i].Ride.DepartureTime.Before(matches[j].Ride.DepartureTime)
		}
		return matches[i].Ride.ID < matches[j].Ride.ID
	})

	observability.SearchResults.Observe(float64(len(matches)))
	return matches, nil
}

// accepts applies the status, date and optional filters to a candidate ride.
func (s *MatchingService) accepts(ride *domain.Ride, req SearchRequest) bool {
	if ride.Status != domain.RideStatusUpcoming {
		return false
	}
	if !sameCalendarDay(ride.DepartureTime, req.Date) {
		return false
	}

	f := req.Filters
	if f.MinSeats > 0 && ride.SeatsAvailable < f.MinSeats {
		return false
	}
	if f.Mode != nil && ride.BookingMode != *f.Mode {
		return false
	}
	if f.MinPrice != nil && priceOf(ride) < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && priceOf(ride) > *f.MaxPrice {
		return false
	}
	return true
}

// loadRides fetches candidate rides, consulting the cache first and falling
// back to a single batch query for the misses.
func (s *MatchingService) loadRides(ctx context.Context, ids []string) (map[string]*domain.Ride, error) {
	rides := make(map[string]*domain.Ride, len(ids))
	missing := ids

	if s.cacheStore != nil {
		cached, miss, err := s.cacheStore.GetRidesBatch(ctx, ids)
		if err == nil {
			for id, c := range cached {
				rides[id] = cachedToRide(c)
			}
			missing = miss
		}
	}

	if len(missing) > 0 {
		fromDB, err := s.rideRepo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, ride := range fromDB {
			rides[ride.ID] = ride
			s.cacheRideAsync(ride)
		}
	}

	return rides, nil
}

// cacheRideAsync warms the cache for future searches (fire and forget).
func (s *MatchingService) cacheRideAsync(ride *domain.Ride) {
	if s.cacheStore == nil {
		return
	}
	cached := rideToCached(ride)
	go func() {
		_ = s.cacheStore.SetRide(context.Background(), cached)
	}()
}

func cachedToRide(c *redis.CachedRide) *domain.Ride {
	return &domain.Ride{
		ID:                 c.ID,
		DriverID:           c.DriverID,
		Origin:             domain.GeoPoint{Lat: c.OriginLat, Lng: c.OriginLng},
		OriginAddress:      c.OriginAddress,
		Destination:        domain.GeoPoint{Lat: c.DestinationLat, Lng: c.DestinationLng},
		DestinationAddress: c.DestinationAddress,
		DepartureTime:      c.DepartureTime,
		SeatsTotal:         c.SeatsTotal,
		SeatsAvailable:     c.SeatsAvailable,
		Price:              c.Price,
		BookingMode:        domain.BookingMode(c.BookingMode),
		Status:             domain.RideStatus(c.Status),
	}
}

func rideToCached(ride *domain.Ride) *redis.CachedRide {
	return &redis.CachedRide{
		ID:                 ride.ID,
		DriverID:           ride.DriverID,
		OriginLat:          ride.Origin.Lat,
		OriginLng:          ride.Origin.Lng,
		OriginAddress:      ride.OriginAddress,
		DestinationLat:     ride.Destination.Lat,
		DestinationLng:     ride.Destination.Lng,
		DestinationAddress: ride.DestinationAddress,
		DepartureTime:      ride.DepartureTime,
		SeatsTotal:         ride.SeatsTotal,
		SeatsAvailable:     ride.SeatsAvailable,
		Price:              ride.Price,
		BookingMode:        string(ride.BookingMode),
		Status:             string(ride.Status),
	}
}

// sameCalendarDay compares the ride's departure with the requested date as a
// plain calendar date.
func sameCalendarDay(departure, date time.Time) bool {
	y1, m1, d1 := departure.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func priceOf(ride *domain.Ride) float64 {
	if ride.Price == nil {
		return 0
	}
	return *ride.Price
}
