package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/geocoding"
	"github.com/lunchwheel/venue-roulette/internal/adapters/providers/places"
	"github.com/lunchwheel/venue-roulette/internal/application/services"
	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
	"github.com/lunchwheel/venue-roulette/internal/infrastructure/observability"
	"github.com/lunchwheel/venue-roulette/pkg/config"
)

// roulette is the terminal rendering layer: it resolves a center, runs one
// search, then drives the preview sequence at its own cadence before showing
// the final pick.
func main() {
	address := flag.String("address", "", "free-text address to search around")
	fixed := flag.Bool("fixed", false, "search around the configured fixed center")
	mode := flag.String("mode", "food", "search mode: food or beer")
	radius := flag.Float64("radius", 0, "search radius in meters (0 = mode default)")
	people := flag.Int("people", 0, "party size (0 = no preference)")
	previews := flag.Int("previews", 12, "preview picks shown before the final draw")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	observability.InitLogger("venue-roulette-cli", "development")

	ctx := context.Background()

	center := cfg.Search.FixedCenter
	if !*fixed {
		if *address == "" {
			fmt.Fprintln(os.Stderr, "either -address or -fixed is required")
			os.Exit(2)
		}
		geocoder := geocoding.NewNominatimProvider(&cfg.Geocoding, nil)
		resolved, err := geocoder.Resolve(ctx, *address)
		if err != nil {
			log.Fatalf("could not resolve %q: %v", *address, err)
		}
		center = entities.SearchCenter{Point: resolved.Point, Label: resolved.FormattedAddress}
		fmt.Printf("searching around %s\n", resolved.FormattedAddress)
	} else {
		fmt.Printf("searching around %s\n", center.Label)
	}

	provider := places.NewOverpassProvider(&cfg.Overpass)
	search := services.NewSearchService(provider, services.NewFilterService(), nil, &cfg.Search, nil)
	selection := services.NewSelectionService(search, nil, nil)

	session, err := selection.CreateSession(ctx, services.SearchRequest{
		Center:       center,
		RadiusMeters: *radius,
		Mode:         services.SearchMode(*mode),
		HourOfDay:    time.Now().Hour(),
		PeopleCount:  *people,
	})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	fmt.Printf("%d candidates\n\n", len(session.State.Candidates))

	// Spin accepts the Selected phase, so looping back around is the reroll;
	// exactly one roll runs per prompt.
	reader := bufio.NewReader(os.Stdin)
	for {
		spin(ctx, selection, session.ID, *previews)

		fmt.Print("\npress enter to reroll, q to quit: ")
		line, err := reader.ReadString('\n')
		if err != nil || strings.TrimSpace(line) == "q" {
			return
		}
	}
}

func spin(ctx context.Context, selection *services.SelectionService, sessionID string, previews int) {
	if err := selection.Spin(ctx, sessionID, previews); err != nil {
		log.Fatalf("spin failed: %v", err)
	}
	drain(ctx, selection, sessionID)
	finish(ctx, selection, sessionID)
}

// drain pulls the preview sequence, pacing it for the terminal
func drain(ctx context.Context, selection *services.SelectionService, sessionID string) {
	for {
		pick, more, err := selection.NextPreview(ctx, sessionID)
		if err != nil {
			log.Fatalf("preview failed: %v", err)
		}
		if !more {
			return
		}
		fmt.Printf("\r  %-40s", pick.Name)
		time.Sleep(120 * time.Millisecond)
	}
}

func finish(ctx context.Context, selection *services.SelectionService, sessionID string) {
	final, err := selection.Finalize(ctx, sessionID)
	if err != nil {
		log.Fatalf("final draw failed: %v", err)
	}

	fmt.Printf("\r  %-40s\n\n", "")
	fmt.Printf("tonight: %s (%s, %.0fm away)\n", final.Name, final.Category, final.DistanceMeters)
	if final.Address != "" {
		fmt.Printf("  %s\n", final.Address)
	}
	if final.OpeningHoursText != "" {
		fmt.Printf("  hours: %s\n", final.OpeningHoursText)
	}
}
