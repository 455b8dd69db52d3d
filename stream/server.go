package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
}

// Server serves the websocket frame stream and the control API:
//
//	GET  /api/client  websocket stream of frames
//	GET  /api/state   current Status as JSON
//	POST /api/stop    stops playback
type Server struct {
	e           *echo.Echo
	broadcaster *Broadcaster
	stop        func()
}

// NewServer returns a server for broadcaster. stop is called by the stop
// endpoint and may be nil.
func NewServer(broadcaster *Broadcaster, stop func()) *Server {
	s := &Server{
		e:           echo.New(),
		broadcaster: broadcaster,
		stop:        stop,
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "textreel stream: ${method} ${uri} ${status}\n",
		Output: log.Writer(),
	}))
	s.e.Use(middleware.Recover())

	api := s.e.Group("/api")

	api.GET("/client", func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		s.broadcaster.HandleConn(ws)

		return nil
	})

	api.GET("/state", func(c echo.Context) error {
		status := s.broadcaster.Status()
		return c.JSON(http.StatusOK, &status)
	})

	api.POST("/stop", func(c echo.Context) error {
		if s.stop == nil {
			return echo.NewHTTPError(http.StatusNotImplemented, "stopping is not supported")
		}

		log.Println("textreel stream: stop requested")
		s.stop()

		status := s.broadcaster.Status()
		return c.JSON(http.StatusOK, &status)
	})

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errs := make(chan error, 1)
	go func() {
		errs <- s.e.Start(addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
