// Package api exposes the mitigation controller to the dashboard over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/kilianp07/peakguard/core/kpi"
	"github.com/kilianp07/peakguard/core/logger"
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/report"
	"github.com/kilianp07/peakguard/core/shaving"
)

// Server wires the controller into HTTP handlers.
type Server struct {
	ctrl       *shaving.Controller
	kpiStore   kpi.Store
	primaryUse string
	log        logger.Logger
}

// NewServer creates a Server. kpiStore may be nil to disable the KPI route.
func NewServer(ctrl *shaving.Controller, kpiStore kpi.Store, primaryUse string, log logger.Logger) *Server {
	return &Server{ctrl: ctrl, kpiStore: kpiStore, primaryUse: primaryUse, log: log}
}

// Handler builds the HTTP handler with CORS applied.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/state", s.getState)
	v1.POST("/evaluate", s.postEvaluate)
	v1.POST("/actions/battery", s.postBattery)
	v1.POST("/actions/hvac", s.postHVAC)
	v1.POST("/mode", s.postMode)
	v1.POST("/reset", s.postReset)
	v1.GET("/report", s.getReport)
	if s.kpiStore != nil {
		v1.GET("/kpi", s.getKPI)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

// Serve runs the HTTP server until the context is canceled.
func (s *Server) Serve(ctx context.Context, addr string, allowedOrigins []string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(allowedOrigins)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, StateResponse{
		State:          s.ctrl.State(),
		Phase:          s.ctrl.Phase().String(),
		LastEvaluation: s.ctrl.LastEvaluation(),
	})
}

func (s *Server) postEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	var (
		ev  shaving.Evaluation
		err error
	)
	switch {
	case req.Features != nil && req.Sample != nil:
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "provide features or sample, not both")
		return
	case req.Features != nil:
		ev, err = s.ctrl.EvaluateFeatures(*req.Features)
	case req.Sample != nil:
		ev, err = s.ctrl.Evaluate(*req.Sample)
	default:
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "features or sample required")
		return
	}
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "EVALUATION_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) postBattery(c *gin.Context) {
	s.manualAction(c, s.ctrl.DispatchBattery)
}

func (s *Server) postHVAC(c *gin.Context) {
	s.manualAction(c, s.ctrl.OptimizeHVAC)
}

func (s *Server) manualAction(c *gin.Context, fn func() (model.Action, error)) {
	act, err := fn()
	if err != nil {
		var mce *shaving.ModeConflictError
		if errors.As(err, &mce) {
			fail(c, http.StatusConflict, "MODE_CONFLICT", mce.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "ACTION_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Action: act, State: s.ctrl.State()})
}

func (s *Server) postMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	s.ctrl.SetMode(mode)
	c.JSON(http.StatusOK, gin.H{"mode": mode.String()})
}

func (s *Server) postReset(c *gin.Context) {
	s.ctrl.Reset()
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State()})
}

func (s *Server) getReport(c *gin.Context) {
	out := report.Render(report.Input{
		Site:       s.ctrl.Site(),
		PrimaryUse: s.primaryUse,
		State:      s.ctrl.State(),
		Evaluation: s.ctrl.LastEvaluation(),
	})
	c.Header("Content-Disposition", `attachment; filename="peakguard_report.txt"`)
	c.String(http.StatusOK, out)
}

func (s *Server) getKPI(c *gin.Context) {
	const layout = "2006-01-02"
	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -7), now
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_REQUEST", "from: expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_REQUEST", "to: expected YYYY-MM-DD")
			return
		}
		to = t
	}
	recs, err := s.kpiStore.Query(s.ctrl.Site(), from, to)
	if err != nil {
		fail(c, http.StatusInternalServerError, "KPI_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, recs)
}

func fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
