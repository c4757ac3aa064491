package timetable

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-timetable/internal/metrics"
	"github.com/theoremus-urban-solutions/gtfs-timetable/publisher"
)

// Server exposes the timetable engine over HTTP: one read endpoint
// returning TimetableData and the three mutation entry points. It renders
// nothing; the browser UI owns presentation.
type Server struct {
	http    *http.Server
	builder *Builder
	mutator *Mutator
	events  *publisher.NATSPublisher
	metrics *metrics.Collector
}

// NewServer wires the engine behind the API routes. events and collector
// may be nil.
func NewServer(port int, b *Builder, m *Mutator, ev *publisher.NATSPublisher, mc *metrics.Collector) *Server {
	s := &Server{builder: b, mutator: m, events: ev, metrics: mc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/timetable", s.handleTimetable)
	mux.HandleFunc("POST /api/timetable/time", s.handleSetTime)
	mux.HandleFunc("POST /api/timetable/skip", s.handleSkip)
	mux.HandleFunc("PUT /api/timetable/trip/{tripId}", s.handleRebuild)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s", s.http.Addr)
}

// HandleGracefulShutdown blocks until SIGINT/SIGTERM, then drains the HTTP
// server and the event publisher.
func (s *Server) HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	} else {
		log.Printf("server shut down successfully")
	}
	s.events.Close()
}
