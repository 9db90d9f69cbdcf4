package main

import (
	"context"
	"log"
	"os"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/lunchwheel/venue-roulette/internal/infrastructure/clients/postgres"
	"github.com/lunchwheel/venue-roulette/pkg/config"
)

// Seeds the venue_fixtures table with the offline fallback venues around the
// fixed center. Only relevant when OFFLINE_FIXTURES_ENABLED=true.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	_, err = pgClient.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS venue_fixtures (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			category      TEXT NOT NULL,
			cuisine       TEXT,
			lat           DOUBLE PRECISION NOT NULL,
			lng           DOUBLE PRECISION NOT NULL,
			address       TEXT,
			phone         TEXT,
			website       TEXT,
			opening_hours TEXT
		)
	`)
	if err != nil {
		log.Fatalf("Failed to create venue_fixtures table: %v", err)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating venue_fixtures before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE venue_fixtures`); err != nil {
			log.Fatalf("Failed to truncate venue_fixtures: %v", err)
		}
	}

	db := goqu.New("postgres", pgClient.DB())

	type fixture struct {
		name, category, cuisine, address, hours string
		lat, lng                                float64
	}

	// A handful of venues around the fixed center so the roulette still turns
	// when every provider mirror is down
	fixtures := []fixture{
		{"老王牛肉麵", "restaurant", "noodle", "台北市中正區開封街一段12號", "11:00-21:00", 25.0461, 121.5143},
		{"阜杭豆漿", "restaurant", "taiwanese", "台北市中正區忠孝東路一段108號", "05:30-12:30", 25.0443, 121.5245},
		{"麥當勞台北車站店", "fast_food", "burger", "台北市中正區忠孝西路一段49號", "24/7", 25.0466, 121.5152},
		{"路易莎咖啡站前店", "cafe", "coffee_shop", "台北市中正區許昌街24號", "07:00-22:00", 25.0452, 121.5165},
		{"台北車站美食街", "food_court", "", "台北市中正區北平西路3號", "10:00-22:00", 25.0478, 121.5170},
		{"Beer Belly Bar", "bar", "", "台北市中山區南京東路一段52號", "18:00-02:00", 25.0522, 121.5254},
		{"掌門精釀啤酒", "brewery", "", "台北市大安區永康街4巷12號", "17:00-24:00", 25.0330, 121.5290},
	}

	records := make([]goqu.Record, 0, len(fixtures))
	for _, f := range fixtures {
		records = append(records, goqu.Record{
			"id":            uuid.New().String(),
			"name":          f.name,
			"category":      f.category,
			"cuisine":       f.cuisine,
			"lat":           f.lat,
			"lng":           f.lng,
			"address":       f.address,
			"opening_hours": f.hours,
		})
	}

	query, args, err := db.Insert("venue_fixtures").Rows(records).ToSQL()
	if err != nil {
		log.Fatalf("Failed to build seed query: %v", err)
	}
	if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
		log.Fatalf("Failed to seed venue fixtures: %v", err)
	}

	log.Printf("Seeded %d venue fixtures", len(records))
}
