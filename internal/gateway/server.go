// Package gateway is the thin process-boundary adapter: it marshals HTTP
// requests and worker control messages to component calls and does nothing
// else. The caching, lifecycle and queue logic all live in internal/worker
// and stay testable without a live server.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrotrace/agrobio-go/internal/govcache"
	"github.com/agrotrace/agrobio-go/internal/installprompt"
	"github.com/agrotrace/agrobio-go/internal/logger"
	"github.com/agrotrace/agrobio-go/internal/worker"
)

const (
	// originURLHeader carries the absolute target URL for third-party
	// requests routed through the gateway (e.g. the weather provider).
	originURLHeader = "X-Origin-URL"

	sseHeartbeat = 30 * time.Second
)

// Server exposes the worker over HTTP.
type Server struct {
	echo        *echo.Echo
	router      *worker.Router
	lifecycle   *worker.Lifecycle
	queue       *worker.SyncQueue
	coordinator *installprompt.Coordinator
	registry    *prometheus.Registry
	appOrigin   string
	log         logger.Logger
}

// NewServer wires the worker components behind an echo instance.
func NewServer(router *worker.Router, lifecycle *worker.Lifecycle, queue *worker.SyncQueue, coordinator *installprompt.Coordinator, registry *prometheus.Registry, appOrigin string, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		router:      router,
		lifecycle:   lifecycle,
		queue:       queue,
		coordinator: coordinator,
		registry:    registry,
		appOrigin:   strings.TrimSuffix(appOrigin, "/"),
		log:         log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.echo.GET("/worker/status", s.handleStatus)
	s.echo.POST("/worker/message", s.handleMessage)
	s.echo.POST("/worker/sync", s.handleSync)
	s.echo.GET("/worker/events", s.handleEvents)

	s.echo.GET("/worker/install/available", s.handleInstallAvailable)
	s.echo.POST("/worker/install/prompt", s.handleInstallPrompt)
	s.echo.POST("/worker/install/offered", s.handleInstallOffered)
	s.echo.POST("/worker/install/installed", s.handleInstalled)

	// Everything else is an application request to intercept.
	s.echo.Any("/*", s.handleIntercept)
}

// AttachGovAPI registers the government-registry lookup endpoints backed
// by the TTL cache. Call before Start.
func (s *Server) AttachGovAPI(client *govcache.Client) {
	s.echo.GET("/worker/gov/agrofit", func(c echo.Context) error {
		products := client.SearchAgrofit(c.Request().Context(), c.QueryParam("q"))
		if products == nil {
			products = []govcache.AgrofitProduct{}
		}
		return c.JSON(http.StatusOK, products)
	})
	s.echo.GET("/worker/gov/bioinsumos", func(c echo.Context) error {
		entries := client.SearchBioinsumos(c.Request().Context(), c.QueryParam("q"))
		if entries == nil {
			entries = []govcache.BioinsumoEntry{}
		}
		return c.JSON(http.StatusOK, entries)
	})
}

// Start begins serving on addr and blocks until the listener fails.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	depth, err := s.queue.Depth(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "status unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"state":       s.lifecycle.State().String(),
		"namespace":   s.lifecycle.Namespace(),
		"claimed":     s.lifecycle.Claimed(),
		"queue_depth": depth,
		"can_install": s.coordinator.CanInstall(),
		"installed":   s.coordinator.Installed(),
	})
}

// handleMessage accepts the fire-and-forget application message protocol.
// The response carries no acknowledgment body.
func (s *Server) handleMessage(c echo.Context) error {
	var msg worker.Message
	if err := c.Bind(&msg); err != nil {
		// Malformed envelopes are ignored, matching the protocol.
		return c.NoContent(http.StatusAccepted)
	}
	s.queue.HandleMessage(c.Request().Context(), msg)
	return c.NoContent(http.StatusAccepted)
}

type syncRequest struct {
	Tag string `json:"tag"`
}

// handleSync fires a background-sync trigger. Unknown tags are a no-op.
func (s *Server) handleSync(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if err := s.queue.HandleSync(c.Request().Context(), req.Tag); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "drain failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleEvents streams coordinator events over SSE.
func (s *Server) handleEvents(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	events, cancel := s.coordinator.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev := <-events:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: {}\n\n", ev.Type); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (s *Server) handleInstallAvailable(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"available": s.coordinator.CanInstall()})
}

func (s *Server) handleInstallPrompt(c echo.Context) error {
	accepted, err := s.coordinator.PromptInstall(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "prompt failed"})
	}
	return c.JSON(http.StatusOK, map[string]bool{"accepted": accepted})
}

type installOffer struct {
	// Outcome is what the platform will report when the capability is
	// consumed: "accepted" or anything else for dismissed.
	Outcome string `json:"outcome"`
}

// offeredCapability is the HTTP-boundary stand-in for the platform's
// deferred prompt: its outcome is fixed when the offer is delivered.
type offeredCapability struct {
	accepted bool
}

func (o *offeredCapability) Prompt(_ context.Context) (bool, error) {
	return o.accepted, nil
}

func (s *Server) handleInstallOffered(c echo.Context) error {
	var offer installOffer
	if err := c.Bind(&offer); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	s.coordinator.HandleBeforeInstallPrompt(&offeredCapability{accepted: offer.Outcome == "accepted"})
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleInstalled(c echo.Context) error {
	s.coordinator.HandleInstalled()
	return c.NoContent(http.StatusNoContent)
}

// handleIntercept forwards an application request through the strategy
// router. Same-origin requests resolve against the app origin; requests
// carrying X-Origin-URL target that absolute URL instead.
func (s *Server) handleIntercept(c echo.Context) error {
	in := c.Request()

	target := in.Header.Get(originURLHeader)
	if target == "" {
		target = s.appOrigin + in.RequestURI
	}

	out, err := http.NewRequestWithContext(in.Context(), in.Method, target, in.Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid target url"})
	}
	out.Header = in.Header.Clone()
	out.Header.Del(originURLHeader)

	resp, err := s.router.Handle(in.Context(), out)
	if err != nil {
		// Cache miss with the network also unavailable is terminal for
		// this request; nothing is synthesized.
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "upstream unreachable"})
	}
	defer func() { _ = resp.Body.Close() }()

	for k, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)
	_, err = io.Copy(c.Response(), resp.Body)
	return err
}
