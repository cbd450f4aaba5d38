package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"activity-archive/internal/activity"
	"activity-archive/internal/github"
	"activity-archive/internal/models"
)

type eventResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	Actor       string    `json:"actor"`
	Repository  string    `json:"repository"`
	Description string    `json:"description"`
}

func toEventResponses(events []models.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			Type:        e.Type,
			CreatedAt:   e.CreatedAt,
			Actor:       e.Actor.Login,
			Repository:  e.Repo.Name,
			Description: activity.Render(e),
		})
	}
	return out
}

func (s *Server) getActivity(c *gin.Context) {
	username := c.Param("username")
	refresh := c.Query("refresh") == "true"
	kind := c.Query("kind")

	ctx, cancel := s.ctx(c, 30*time.Second)
	defer cancel()

	var (
		events []models.Event
		err    error
	)
	if kind != "" {
		events, err = s.svc.GetFilteredActivity(ctx, username, kind)
	} else {
		events, err = s.svc.GetUserActivity(ctx, username, refresh)
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"count":    len(events),
		"events":   toEventResponses(events),
	})
}

func (s *Server) getHistory(c *gin.Context) {
	username := c.Param("username")

	ctx, cancel := s.ctx(c, 10*time.Second)
	defer cancel()

	var (
		records []models.ActivityRecord
		err     error
	)
	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" || endRaw != "" {
		start, perr := parseTimeParam(startRaw, time.Time{})
		if perr != nil {
			badRequest(c, "invalid_start", "start must be RFC 3339")
			return
		}
		end, perr := parseTimeParam(endRaw, time.Now().UTC())
		if perr != nil {
			badRequest(c, "invalid_end", "end must be RFC 3339")
			return
		}
		records, err = s.svc.GetHistoricalActivityRange(ctx, username, start, end)
	} else {
		records, err = s.svc.GetHistoricalActivity(ctx, username)
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"count":    len(records),
		"records":  records,
	})
}

func (s *Server) getEventKinds(c *gin.Context) {
	username := c.Param("username")

	ctx, cancel := s.ctx(c, 10*time.Second)
	defer cancel()

	kinds, err := s.svc.GetAvailableEventTypes(ctx, username)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if kinds == nil {
		kinds = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"username": username, "kinds": kinds})
}

func (s *Server) validateUser(c *gin.Context) {
	username := c.Param("username")

	ctx, cancel := s.ctx(c, 10*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"exists":   s.svc.ValidateUser(ctx, username),
	})
}

func (s *Server) invalidateCache(c *gin.Context) {
	username := c.Param("username")

	ctx, cancel := s.ctx(c, 10*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"removed":  s.svc.InvalidateCache(ctx, username),
	})
}

func (s *Server) archiveHistory(c *gin.Context) {
	if s.exporter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": gin.H{"code": "archive_disabled", "message": "no archive target configured"},
		})
		return
	}

	username := c.Param("username")

	ctx, cancel := s.ctx(c, 30*time.Second)
	defer cancel()

	url, err := s.exporter.ExportUser(ctx, username)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": username, "url": url})
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := s.ctx(c, 5*time.Second)
	defer cancel()

	dbStatus, redisStatus := "disabled", "disabled"
	healthy := true

	if s.db != nil {
		dbStatus = "connected"
		if err := s.db.Ping(ctx); err != nil {
			dbStatus, healthy = "unreachable", false
		}
	}
	if s.redis != nil {
		redisStatus = "connected"
		if err := s.redis.Ping(ctx); err != nil {
			redisStatus, healthy = "unreachable", false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": statusWord(healthy), "database": dbStatus, "redis": redisStatus})
}

func statusWord(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "degraded"
}

func (s *Server) renderError(c *gin.Context, err error) {
	var notFound *github.NotFoundError
	var upstream *github.UpstreamError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "user_not_found", "message": notFound.Error()},
		})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": gin.H{"code": "upstream_error", "message": upstream.Error()},
		})
	case errors.Is(err, activity.ErrNoStore):
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": gin.H{"code": "history_disabled", "message": "no activity store configured"},
		})
	default:
		s.log.Error("request_failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "internal_error", "message": "internal error"},
		})
	}
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": code, "message": message}})
}

func parseTimeParam(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, raw)
}
