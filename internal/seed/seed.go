// ABOUTME: Deterministic demo history generator built on gofakeit.
// ABOUTME: Writes templates, finished sessions, and sets through the repository.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/harperreed/gymlog/internal/models"
	log "github.com/sirupsen/logrus"
)

// Store is the subset of the repository the generator writes through.
type Store interface {
	CreateTemplate(ctx context.Context, userID, name string, exercises []models.TemplateExercise) (*models.Template, error)
	StartSession(ctx context.Context, templateID int64, date time.Time) (*models.Session, error)
	RecordSet(ctx context.Context, sessionExerciseID int64, setIndex int, metrics models.MetricBag) (*models.SessionSet, error)
	FinishSession(ctx context.Context, sessionID int64, endedAt time.Time) (*models.Session, error)
}

type Options struct {
	Seed            int64
	UserID          string
	Weeks           int
	SessionsPerWeek int
	// SkipRate is the chance a planned set is left unrecorded.
	SkipRate float64
	Now      time.Time
}

// Result counts what was written.
type Result struct {
	Templates int
	Sessions  int
	Sets      int
}

type catalogEntry struct {
	name      string
	primary   string
	secondary []string
	baseLoad  float64
	timed     bool
}

var catalog = map[string][]catalogEntry{
	"Push Day": {
		{name: "Bench Press", primary: "chest", secondary: []string{"triceps", "shoulders"}, baseLoad: 60},
		{name: "Overhead Press", primary: "shoulders", secondary: []string{"triceps"}, baseLoad: 35},
		{name: "Dips", primary: "triceps", secondary: []string{"chest"}, baseLoad: 0},
	},
	"Pull Day": {
		{name: "Deadlift", primary: "back", secondary: []string{"hamstrings", "glutes"}, baseLoad: 100},
		{name: "Barbell Row", primary: "back", secondary: []string{"biceps"}, baseLoad: 50},
		{name: "Curl", primary: "biceps", baseLoad: 12},
	},
	"Leg Day": {
		{name: "Squat", primary: "quads", secondary: []string{"glutes"}, baseLoad: 80},
		{name: "Lunge", primary: "glutes", secondary: []string{"quads"}, baseLoad: 20},
		{name: "Plank", primary: "core", timed: true},
	},
}

// templateOrder keeps generation independent of map iteration.
var templateOrder = []string{"Push Day", "Pull Day", "Leg Day"}

func (o Options) withDefaults() Options {
	if o.Weeks <= 0 {
		o.Weeks = 8
	}
	if o.SessionsPerWeek <= 0 {
		o.SessionsPerWeek = 3
	}
	if o.SkipRate < 0 || o.SkipRate >= 1 {
		o.SkipRate = 0
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Generate writes a plausible training history ending at opts.Now. The same
// seed and Now always produce the same data.
func Generate(ctx context.Context, store Store, opts Options) (Result, error) {
	opts = opts.withDefaults()
	faker := gofakeit.New(opts.Seed)
	var res Result

	templates := make([]*models.Template, 0, len(templateOrder))
	entries := make(map[int64][]catalogEntry)
	for _, name := range templateOrder {
		exercises := make([]models.TemplateExercise, 0, len(catalog[name]))
		for _, e := range catalog[name] {
			ex := models.NewTemplateExercise(e.name).
				WithSets(faker.Number(3, 5)).
				WithMuscles(e.primary, e.secondary...)
			if e.timed {
				ex.Metrics = []models.MetricDefinition{{Name: models.MetricTime, Unit: "s"}}
			}
			exercises = append(exercises, ex)
		}
		tmpl, err := store.CreateTemplate(ctx, opts.UserID, name, exercises)
		if err != nil {
			return res, fmt.Errorf("create template %q: %w", name, err)
		}
		templates = append(templates, tmpl)
		entries[tmpl.ID] = catalog[name]
		res.Templates++
	}

	start := opts.Now.AddDate(0, 0, -7*opts.Weeks)
	for week := 0; week < opts.Weeks; week++ {
		weekStart := start.AddDate(0, 0, 7*week)
		for i := 0; i < opts.SessionsPerWeek; i++ {
			tmpl := templates[(week*opts.SessionsPerWeek+i)%len(templates)]
			day := weekStart.AddDate(0, 0, i*7/opts.SessionsPerWeek)
			date := time.Date(day.Year(), day.Month(), day.Day(), faker.Number(6, 19), faker.RandomInt([]int{0, 15, 30, 45}), 0, 0, time.UTC)
			if date.After(opts.Now) {
				continue
			}

			sets, err := generateSession(ctx, store, faker, tmpl, entries[tmpl.ID], date, week, opts.SkipRate)
			if err != nil {
				return res, err
			}
			res.Sessions++
			res.Sets += sets
		}
	}

	log.WithFields(log.Fields{
		"templates": res.Templates,
		"sessions":  res.Sessions,
		"sets":      res.Sets,
		"seed":      opts.Seed,
	}).Info("seeded workout history")
	return res, nil
}

func generateSession(ctx context.Context, store Store, faker *gofakeit.Faker, tmpl *models.Template, entries []catalogEntry, date time.Time, week int, skipRate float64) (int, error) {
	session, err := store.StartSession(ctx, tmpl.ID, date)
	if err != nil {
		return 0, fmt.Errorf("start session for %q: %w", tmpl.Name, err)
	}

	recorded := 0
	for i, se := range session.Exercises {
		entry := entries[i]
		for idx := 1; idx <= se.PlannedSets; idx++ {
			if skipRate > 0 && faker.Float64Range(0, 1) < skipRate {
				continue
			}
			if _, err := store.RecordSet(ctx, se.ID, idx, setMetrics(faker, entry, week)); err != nil {
				return recorded, fmt.Errorf("record set %d of %q: %w", idx, se.ExerciseName, err)
			}
			recorded++
		}
	}

	endedAt := date.Add(time.Duration(faker.Number(35, 80)) * time.Minute)
	if _, err := store.FinishSession(ctx, session.ID, endedAt); err != nil {
		return recorded, fmt.Errorf("finish session %d: %w", session.ID, err)
	}
	return recorded, nil
}

// setMetrics adds about 2.5% load per week so overload charts trend upward.
func setMetrics(faker *gofakeit.Faker, entry catalogEntry, week int) models.MetricBag {
	if entry.timed {
		return models.MetricBag{models.MetricTime: 30 + 5*week + faker.Number(0, 10)}
	}
	bag := models.MetricBag{models.MetricReps: faker.Number(5, 12)}
	if entry.baseLoad > 0 {
		load := entry.baseLoad * (1 + 0.025*float64(week))
		bag[models.MetricWeight] = math.Round(load/2.5) * 2.5
	}
	return bag
}
