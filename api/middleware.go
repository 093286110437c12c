package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"actor":      c.GetHeader(headerActorID),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.WithFields(fields).Error("request")
		case status >= http.StatusBadRequest:
			log.WithFields(fields).Warn("request")
		default:
			log.WithFields(fields).Info("request")
		}
	}
}

// actorOf reads the caller from the actor headers set by the gateway. It writes a 401 and
// reports false when they are missing or the role is unknown.
func actorOf(c *gin.Context) (domain.Actor, bool) {
	actor := domain.Actor{
		ID:   strings.TrimSpace(c.GetHeader(headerActorID)),
		Role: domain.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(headerActorRole)))),
	}
	if actor.ID == "" || !actor.Role.Valid() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid actor headers"})
		return domain.Actor{}, false
	}
	return actor, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
