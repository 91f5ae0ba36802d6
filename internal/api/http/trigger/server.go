package trigger

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/famcal-notifier/internal/domain/assignment"
	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
	"github.com/oshokin/famcal-notifier/internal/logger"
	"github.com/oshokin/famcal-notifier/internal/service/dispatcher"
)

// Service abstracts the dispatch operations the ingress depends on.
type Service interface {
	HandleEventWrite(ctx context.Context, familyID, eventID string, before, after *calendar.Event) assignment.Scenario
	HandleConfirmation(ctx context.Context, familyID, confirmationID string, conf *calendar.Confirmation) int
	HandleUnassignedAlert(ctx context.Context, task dispatcher.EscalationTask) dispatcher.AlertOutcome
	RunSweep(ctx context.Context) (dispatcher.SweepStats, error)
}

// Server routes trigger requests to the dispatch service.
type Server struct {
	// service handles the decoded triggers.
	service Service
	// callbackSecret verifies fired escalation tasks.
	callbackSecret string
	// now is the clock used for token expiry.
	now func() time.Time
}

// NewServer creates the ingress for the service.
func NewServer(service Service, callbackSecret string) *Server {
	return &Server{
		service:        service,
		callbackSecret: callbackSecret,
		now:            time.Now,
	}
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(Recovery(), RequestLogger())

	v1 := router.Group("/v1")
	{
		v1.POST("/events/write", s.handleEventWrite())
		v1.POST("/confirmations", s.handleConfirmation())
		v1.POST("/sweep", s.handleSweep())
		v1.POST("/tasks/unassigned-alert", CallbackAuth(s.callbackSecret, s.now), s.handleUnassignedAlert())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func (s *Server) handleEventWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req eventWriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)

			return
		}

		before, after, err := req.decode()
		if err != nil {
			badRequest(c, err)

			return
		}

		scenario := s.service.HandleEventWrite(c.Request.Context(), req.FamilyID, req.EventID, before, after)

		c.JSON(http.StatusOK, gin.H{"scenario": scenario.String()})
	}
}

func (s *Server) handleConfirmation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)

			return
		}

		conf, err := req.decode()
		if err != nil {
			badRequest(c, err)

			return
		}

		notified := s.service.HandleConfirmation(c.Request.Context(), req.FamilyID, req.ConfirmationID, conf)

		c.JSON(http.StatusOK, gin.H{"notified": notified})
	}
}

func (s *Server) handleUnassignedAlert() gin.HandlerFunc {
	return func(c *gin.Context) {
		var task dispatcher.EscalationTask
		if err := c.ShouldBindJSON(&task); err != nil {
			badRequest(c, err)

			return
		}

		if task.FamilyID == "" || task.EventID == "" {
			badRequest(c, ErrMissingIdentifier)

			return
		}

		outcome := s.service.HandleUnassignedAlert(c.Request.Context(), task)

		c.JSON(http.StatusOK, gin.H{"outcome": string(outcome)})
	}
}

func (s *Server) handleSweep() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := s.service.RunSweep(c.Request.Context())
		if err != nil {
			logger.ErrorKV(c.Request.Context(), "Manual sweep failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})

			return
		}

		c.JSON(http.StatusOK, gin.H{
			"families": stats.Families,
			"alerted":  stats.Alerted,
			"skipped":  stats.Skipped,
			"failed":   stats.Failed,
		})
	}
}

func badRequest(c *gin.Context, err error) {
	logger.WarnKV(c.Request.Context(), "Malformed trigger", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
