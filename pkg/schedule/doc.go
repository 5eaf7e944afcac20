// Package schedule runs recurring jobs on cron expressions.
//
// Expressions use the standard five fields with an optional leading seconds
// field, or a descriptor:
//
//	"*/5 * * * *"     every five minutes
//	"30 * * * * *"    at second 30 of every minute
//	"@every 2s"       every two seconds
//	"@hourly"         at the start of every hour
//
// A job runs with a context that is canceled when the scheduler stops, and
// never overlaps with its own previous run:
//
//	s := schedule.New(schedule.Config{Logger: logger})
//	err := s.Add("allocate", "@every 1s", func(ctx context.Context) error {
//		return sim.Allocate(ctx)
//	}, schedule.Options{})
//	s.Start()
//	defer func() { <-s.Stop() }()
package schedule
