package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// SearchHandler handles HTTP requests for ride search.
type SearchHandler struct {
	matchingService *service.MatchingService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(matchingService *service.MatchingService) *SearchHandler {
	return &SearchHandler{matchingService: matchingService}
}

// MatchResponse is one search result with both trip leg distances.
type MatchResponse struct {
	Ride                 RideResponse `json:"ride"`
	OriginDistanceM      float64      `json:"origin_distance_m"`
	DestinationDistanceM float64      `json:"destination_distance_m"`
	Score                float64      `json:"score"`
}

// Search handles GET /v1/search
//
// Query parameters: origin_lat, origin_lng, dest_lat, dest_lng, date
// (YYYY-MM-DD), and optional min_price, max_price, mode, min_seats.
func (h *SearchHandler) Search(c *gin.Context) {
	origin, ok := parsePoint(c, "origin_lat", "origin_lng")
	if !ok {
		return
	}
	destination, ok := parsePoint(c, "dest_lat", "dest_lng")
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date, expected YYYY-MM-DD"})
		return
	}

	filters, ok := parseFilters(c)
	if !ok {
		return
	}

	matches, err := h.matchingService.Search(c.Request.Context(), service.SearchRequest{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		Filters:     filters,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		response = append(response, MatchResponse{
			Ride:                 toRideResponse(m.Ride),
			OriginDistanceM:      m.OriginDistanceM,
			DestinationDistanceM: m.DestinationDistanceM,
			Score:                m.Score(),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

func parsePoint(c *gin.Context, latKey, lngKey string) (domain.GeoPoint, bool) {
	lat, err1 := strconv.ParseFloat(c.Query(latKey), 64)
	lng, err2 := strconv.ParseFloat(c.Query(lngKey), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + latKey + "/" + lngKey})
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, true
}

func parseFilters(c *gin.Context) (service.SearchFilters, bool) {
	var filters service.SearchFilters

	if v := c.Query("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_price"})
			return filters, false
		}
		filters.MinPrice = &f
	}
	if v := c.Query("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_price"})
			return filters, false
		}
		filters.MaxPrice = &f
	}
	if v := c.Query("mode"); v != "" {
		mode, err := service.ValidateBookingMode(v)
		if err != nil {
			respondError(c, err)
			return filters, false
		}
		filters.Mode = &mode
	}
	if v := c.Query("min_seats"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_seats"})
			return filters, false
		}
		filters.MinSeats = n
	}

	return filters, true
}
