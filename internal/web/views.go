package web

import (
	"errors"
	"net/http"
	"sort"

	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// stateView is a State with its cities sorted by name.
type stateView struct {
	ID     string
	Name   string
	Cities []*hbnb.City
}

// statesPage is the data of the states template.
type statesPage struct {
	States []stateView
	// State is set when a single state was requested.
	State *stateView
	// NotFound is set when the requested state does not exist.
	NotFound bool
}

// filtersPage is the data of the hbnb_filters template.
type filtersPage struct {
	States    []stateView
	Amenities []*hbnb.Amenity
}

// sortedStates returns every State ordered by name, then id.
func (s *Server) sortedStates() []*hbnb.State {
	var states []*hbnb.State
	for _, e := range s.store.All(hbnb.KindState) {
		if state, ok := e.(*hbnb.State); ok {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Name != states[j].Name {
			return states[i].Name < states[j].Name
		}
		return states[i].ID < states[j].ID
	})
	return states
}

// citiesByState groups every City by state id, each group ordered by name.
func (s *Server) citiesByState() map[string][]*hbnb.City {
	groups := make(map[string][]*hbnb.City)
	for _, e := range s.store.All(hbnb.KindCity) {
		if city, ok := e.(*hbnb.City); ok {
			groups[city.StateID] = append(groups[city.StateID], city)
		}
	}
	for _, cities := range groups {
		sort.Slice(cities, func(i, j int) bool {
			if cities[i].Name != cities[j].Name {
				return cities[i].Name < cities[j].Name
			}
			return cities[i].ID < cities[j].ID
		})
	}
	return groups
}

// stateViews returns every state ordered by name, with their cities.
func (s *Server) stateViews() []stateView {
	cities := s.citiesByState()
	states := s.sortedStates()

	views := make([]stateView, 0, len(states))
	for _, state := range states {
		views = append(views, stateView{ID: state.ID, Name: state.Name, Cities: cities[state.ID]})
	}
	return views
}

// sortedAmenities returns every Amenity ordered by name.
func (s *Server) sortedAmenities() []*hbnb.Amenity {
	var amenities []*hbnb.Amenity
	for _, e := range s.store.All(hbnb.KindAmenity) {
		if amenity, ok := e.(*hbnb.Amenity); ok {
			amenities = append(amenities, amenity)
		}
	}
	sort.Slice(amenities, func(i, j int) bool {
		return amenities[i].Name < amenities[j].Name
	})
	return amenities
}

// statesList handles GET /states_list.
func (s *Server) statesList(c echo.Context) error {
	return c.Render(http.StatusOK, "states_list.html", s.sortedStates())
}

// citiesByStates handles GET /cities_by_states.
func (s *Server) citiesByStates(c echo.Context) error {
	return c.Render(http.StatusOK, "cities_by_states.html", s.stateViews())
}

// states handles GET /states.
func (s *Server) states(c echo.Context) error {
	return c.Render(http.StatusOK, "states.html", statesPage{States: s.stateViews()})
}

// state handles GET /states/:id.
func (s *Server) state(c echo.Context) error {
	id := c.Param("id")

	e, err := s.store.Get(hbnb.KindState, id)
	if errors.Is(err, hbnb.ErrNotFound) {
		return c.Render(http.StatusNotFound, "states.html", statesPage{NotFound: true})
	}
	if err != nil {
		return s.handleError(c, err)
	}

	state, ok := e.(*hbnb.State)
	if !ok {
		return c.Render(http.StatusNotFound, "states.html", statesPage{NotFound: true})
	}

	view := stateView{ID: state.ID, Name: state.Name, Cities: s.citiesByState()[state.ID]}
	return c.Render(http.StatusOK, "states.html", statesPage{State: &view})
}

// hbnbFilters handles GET /hbnb_filters.
func (s *Server) hbnbFilters(c echo.Context) error {
	return c.Render(http.StatusOK, "hbnb_filters.html", filtersPage{
		States:    s.stateViews(),
		Amenities: s.sortedAmenities(),
	})
}

// status handles GET /api/v1/status.
func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}

// statsNames maps kinds to their key in the stats response.
var statsNames = map[string]string{
	hbnb.KindAmenity: "amenities",
	hbnb.KindCity:    "cities",
	hbnb.KindPlace:   "places",
	hbnb.KindReview:  "reviews",
	hbnb.KindState:   "states",
	hbnb.KindUser:    "users",
}

// stats handles GET /api/v1/stats.
func (s *Server) stats(c echo.Context) error {
	counts := make(map[string]int, len(statsNames))
	for kind, name := range statsNames {
		counts[name] = s.store.Count(kind)
	}
	return c.JSON(http.StatusOK, counts)
}

// handleError handles errors and returns appropriate HTTP responses.
func (s *Server) handleError(c echo.Context, err error) error {
	if errors.Is(err, hbnb.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, hbnb.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	}

	s.logger.Error("internal server error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
