// Package api serves the generated dataset over HTTP for previewing and
// for consumers that prefer pulling over fetching the raw file. It is
// read-only: the scraper CLI is the only writer.
package api

import (
	"net/http"
	"os"

	"github.com/eosguide/relief-finder/internal/models"
	"github.com/eosguide/relief-finder/internal/sink"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	Echo     *echo.Echo
	DataPath string
	Logger   *zap.Logger
}

func NewServer(dataPath string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{Echo: e, DataPath: dataPath, Logger: logger}
	e.GET("/healthz", s.handleHealth)
	e.GET("/api/opportunities", s.handleOpportunities)
	e.GET("/api/stats", s.handleStats)
	return s
}

func (s *Server) Start(addr string) error {
	s.Logger.Info("api listening", zap.String("addr", addr), zap.String("data", s.DataPath))
	return s.Echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpportunities(c echo.Context) error {
	result, err := s.load()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c echo.Context) error {
	result, err := s.load()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result.Metadata)
}

func (s *Server) load() (*models.AggregateResult, error) {
	result, err := sink.ReadFile(s.DataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset not generated yet")
		}
		s.Logger.Error("dataset unreadable", zap.String("path", s.DataPath), zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "dataset unreadable")
	}
	return result, nil
}
