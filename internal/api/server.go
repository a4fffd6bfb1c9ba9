package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/db"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/dedup"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/ingest"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// Server exposes the registry over HTTP.
type Server struct {
	echo     *echo.Echo
	store    *db.Store
	pipeline *ingest.Pipeline
	dedupCfg dedup.Config
}

func NewServer(store *db.Store, pipeline *ingest.Pipeline) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		store:    store,
		pipeline: pipeline,
		dedupCfg: dedup.DefaultConfig(),
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/events", s.handleListEvents)
	e.GET("/api/groups", s.handleListGroups)
	e.POST("/api/ingest/:platform", s.handleIngest)
	e.POST("/api/dedup", s.handleDedup)

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEvents(c echo.Context) error {
	var platform models.PlatformTag
	if raw := c.QueryParam("platform"); raw != "" {
		tag, ok := models.ParsePlatform(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown platform: "+raw)
		}
		platform = tag
	}

	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid year: "+raw)
		}
		year = y
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := s.store.ListEvents(c.Request().Context(), platform, year, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) handleListGroups(c echo.Context) error {
	var tier models.Tier
	switch raw := c.QueryParam("tier"); raw {
	case "", string(models.TierExact), string(models.TierProbable), string(models.TierManualReview):
		tier = models.Tier(raw)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown tier: "+raw)
	}

	groups, err := s.store.ListGroups(c.Request().Context(), tier)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(groups),
		"groups": groups,
	})
}

func (s *Server) handleIngest(c echo.Context) error {
	tag, ok := models.ParsePlatform(c.Param("platform"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown platform: "+c.Param("platform"))
	}

	stream, stats, err := s.pipeline.RunSource(c.Request().Context(), tag)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"platform": stream.Platform,
		"found":    stats.TotalFound,
		"saved":    stats.TotalSaved,
	})
}

// handleDedup runs a dedup pass over everything currently stored and
// replaces the persisted groups.
func (s *Server) handleDedup(c echo.Context) error {
	ctx := c.Request().Context()

	events, err := s.store.ListEvents(ctx, "", 0, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	groups := dedup.New(s.dedupCfg).Deduplicate(events)
	if err := s.store.SaveGroups(ctx, uuid.NewString(), groups); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	tiers := map[models.Tier]int{}
	for _, g := range groups {
		tiers[g.Tier]++
	}
	return c.JSON(http.StatusOK, map[string]any{
		"events": len(events),
		"groups": len(groups),
		"tiers":  tiers,
	})
}
