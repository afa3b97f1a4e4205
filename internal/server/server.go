// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/citypulse/client/internal/geo"
	"github.com/citypulse/client/internal/storage"
	"github.com/citypulse/client/pkg/core"
)

// DefaultRadius is the nearby radius in metres.
const DefaultRadius = 5000.0

// Server is the development backend. It answers every endpoint the map
// client calls from a fixture index and a share store.
type Server struct {
	engine *gin.Engine
	index  *Index
	store  storage.Backend
	radius float64
	logger zerolog.Logger
}

// New wires the routes. A non-positive radius uses DefaultRadius.
func New(index *Index, store storage.Backend, radius float64, log zerolog.Logger) *Server {
	if radius <= 0 {
		radius = DefaultRadius
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		index:  index,
		store:  store,
		radius: radius,
		logger: log,
	}
	s.engine.Use(gin.Recovery(), s.accessLog())

	s.engine.GET("/healthcheck", s.healthcheck)
	api := s.engine.Group("/api")
	api.GET("/local-data", s.localData)
	api.GET("/search-local", s.searchLocal)
	api.GET("/search-suggestions", s.suggestions)
	api.GET("/location-insights", s.insights)
	api.POST("/share-location", s.share)
	api.GET("/get-shared-location/:id", s.sharedLocation)
	api.GET("/shared-locations", s.sharedLocations)

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Int("items", s.index.Len()).Msg("Dev backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) localData(c *gin.Context) {
	p, ok := latLng(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.index.Nearby(p, s.radius)})
}

func (s *Server) searchLocal(c *gin.Context) {
	p, ok := latLng(c)
	if !ok {
		return
	}
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		badRequest(c, "query is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    s.index.Search(p, s.radius, query),
		"query":   query,
	})
}

func (s *Server) suggestions(c *gin.Context) {
	if _, ok := latLng(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestions": s.index.Suggest(c.Query("query"))})
}

func (s *Server) insights(c *gin.Context) {
	req := core.InsightsRequest{
		Name:        strings.TrimSpace(c.Query("name")),
		Category:    core.Category(c.Query("type")),
		Description: c.Query("description"),
		Address:     c.Query("address"),
	}
	if req.Name == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "name is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "insights": Insights(req)})
}

func (s *Server) share(c *gin.Context) {
	var req core.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid share request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "name is required"})
		return
	}

	row, err := s.store.CreateShare(c.Request.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store shared location")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "storage failure"})
		return
	}
	s.logger.Info().Str("id", row.ID).Str("name", row.Name).Msg("Location shared")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"location_id": row.ID,
		"share_url":   "/shared/" + row.ID,
	})
}

func (s *Server) sharedLocation(c *gin.Context) {
	row, err := s.store.GetShare(c.Request.Context(), c.Param("id"))
	if errors.Is(err, core.ErrLookupMiss) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Shared location not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load shared location")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": row})
}

func (s *Server) sharedLocations(c *gin.Context) {
	ids, err := s.store.ShareIDs(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list shared locations")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared_locations": ids, "count": len(ids)})
}

func latLng(c *gin.Context) (core.LatLng, bool) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	p := core.LatLng{Lat: lat, Lng: lng}
	if err1 != nil || err2 != nil || geo.Validate(p) != nil {
		badRequest(c, "lat and lng must be valid coordinates")
		return core.LatLng{}, false
	}
	return p, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
