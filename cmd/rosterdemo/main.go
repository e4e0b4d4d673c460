package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"rosterly.org/internal/demo"
	"rosterly.org/internal/recommend"
	"rosterly.org/internal/roster"
)

// Runs the scheduling engine against a synthetic congregation and prints a
// per-month summary, useful for eyeballing fill rates and fallback behavior
// without standing up the API.
func main() {
	log.SetFlags(0)
	var (
		seed    = flag.Int64("seed", 0, "random seed (0 = time-based)")
		members = flag.Int("members", 16, "synthetic congregation size")
		year    = flag.Int("year", time.Now().Year(), "start year")
		month   = flag.Int("month", int(time.Now().Month()), "start month")
		months  = flag.Int("months", 3, "number of months to schedule")
	)
	flag.Parse()

	scenario, err := demo.MidweekWeekendScenario()
	if err != nil {
		log.Fatalf("build scenario: %v", err)
	}
	demo.NewGenerator(*seed).Populate(&scenario, *members, "")

	engine, err := roster.NewEngine(scenario.Catalog, recommend.LeastRecent{})
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	ctx := context.Background()
	var tally demo.Tally
	start := time.Date(*year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *months; i++ {
		target := start.AddDate(0, i, 0)
		grid, err := engine.GenerateMonth(ctx, target.Year(), target.Month(), scenario.Members)
		if err != nil {
			log.Fatalf("generate %s: %v", target.Format("2006-01"), err)
		}
		tally.Add(grid)
		fmt.Printf("%s: %d dates, %d open slots, %d fallbacks\n",
			target.Format("2006-01"), len(grid.Dates), grid.UnassignedSlots, grid.Fallbacks)

		// Carry the month's assignments forward as history so later months
		// rotate away from recent holders.
		for memberID, dates := range grid.HistoryDelta {
			for j := range scenario.Members {
				if scenario.Members[j].ID != memberID {
					continue
				}
				if scenario.Members[j].History == nil {
					scenario.Members[j].History = map[string]string{}
				}
				for date, roleID := range dates {
					scenario.Members[j].History[date] = roleID
				}
			}
		}
	}

	fmt.Printf("total: %d slots over %d months, fill rate %.1f%%, %d fallbacks\n",
		tally.Slots, tally.Months, tally.FillRate()*100, tally.Fallbacks)
}
