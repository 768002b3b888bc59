// Command week_image renders a sample week to week.png.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/render"
)

func main() {
	out := flag.String("out", "week.png", "output file")
	flag.Parse()

	monday := render.WeekStart(time.Now())
	sessions := sampleSessions(monday)

	data, err := render.WeekImage(monday, sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render week: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Saved %s: week of %s, %d sessions, %d in conflict\n",
		*out, monday.Format("02.01.2006"), len(sessions), len(render.ConflictingSessions(sessions)))
}

func sampleSessions(monday time.Time) []*model.Session {
	at := func(day, hour, minute int) time.Time {
		return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}
	seats := 8

	return []*model.Session{
		{ID: 1, ClassID: 1, Topic: "Limits", StartTime: at(0, 9, 0), EndTime: at(0, 10, 0), Status: model.SessionStatusCompleted},
		{ID: 2, ClassID: 1, Topic: "Derivatives", StartTime: at(0, 14, 0), EndTime: at(0, 15, 30), Status: model.SessionStatusScheduled, Capacity: &seats, BookedCount: 5},
		{ID: 3, ClassID: 2, Topic: "Vectors", StartTime: at(1, 10, 0), EndTime: at(1, 11, 0), Status: model.SessionStatusScheduled},
		{ID: 4, ClassID: 2, Topic: "Matrices", StartTime: at(1, 16, 0), EndTime: at(1, 17, 0), Status: model.SessionStatusCancelled},
		// 5 and 6 overlap and are drawn as conflicts
		{ID: 5, ClassID: 1, Topic: "Integrals", StartTime: at(2, 9, 0), EndTime: at(2, 10, 30), Status: model.SessionStatusScheduled},
		{ID: 6, ClassID: 3, Topic: "Probability", StartTime: at(2, 10, 0), EndTime: at(2, 11, 0), Status: model.SessionStatusScheduled},
		{ID: 7, ClassID: 3, Topic: "Statistics", StartTime: at(4, 11, 0), EndTime: at(4, 12, 0), Status: model.SessionStatusScheduled},
		// touches 7 without overlapping
		{ID: 8, ClassID: 1, Topic: "Series", StartTime: at(4, 12, 0), EndTime: at(4, 13, 0), Status: model.SessionStatusScheduled},
	}
}
