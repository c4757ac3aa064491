package main

import (
	"context"
	"flag"
	"log"

	timetable "github.com/theoremus-urban-solutions/gtfs-timetable"
	"github.com/theoremus-urban-solutions/gtfs-timetable/config"
	"github.com/theoremus-urban-solutions/gtfs-timetable/internal"
	"github.com/theoremus-urban-solutions/gtfs-timetable/internal/metrics"
	"github.com/theoremus-urban-solutions/gtfs-timetable/publisher"
	"github.com/theoremus-urban-solutions/gtfs-timetable/store"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: ./config.yml)")
	flag.Parse()

	internal.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var st store.Store
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := store.OpenPostgres(context.Background(), cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		defer pg.Close()
		st = pg
	default:
		log.Printf("using in-memory storage; data will not survive a restart")
		st = store.NewMemory()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Addr != "" {
		collector = metrics.NewCollector()
		collector.Serve(cfg.Metrics.Addr)
	}

	var events *publisher.NATSPublisher
	if cfg.Events.URL != "" {
		events, err = publisher.NewNATSPublisher(cfg.Events.URL, cfg.Events.Subject, collector)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
	}

	repo := timetable.NewRepository(st)
	srv := timetable.NewServer(
		cfg.Server.Port,
		timetable.NewBuilder(repo),
		timetable.NewMutator(st),
		events,
		collector,
	)
	srv.Start()
	srv.HandleGracefulShutdown()
}
