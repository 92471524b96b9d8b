// Command liftplan-session is the offline-first training client. The
// run subcommand starts an ad hoc session and logs sets interactively;
// writes go to the server when reachable and to the local operation
// queue otherwise. The sync subcommand drains the queue.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/offline"
	"github.com/claude/liftplan/internal/planner"
	"github.com/claude/liftplan/internal/remote"
	"github.com/claude/liftplan/internal/session"
	"github.com/google/uuid"
	"github.com/robfig/cron"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: liftplan-session <command> [flags]

Commands:
  plan   build a four week program locally and push it to the server
  days   list upcoming program days
  run    start an ad hoc session and log sets interactively
  sync   drain the offline operation queue (once, or -watch)

Shared flags:
  -server URL    LiftPlan server URL (e.g. https://liftplan.tail1234.ts.net)
  -api-key KEY   API key (defaults to LIFTPLAN_API_KEY)
  -state DIR     state directory (defaults to ~/.liftplan)
`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	if os.Args[1] == "-version" || os.Args[1] == "version" {
		fmt.Println("liftplan-session", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	switch os.Args[1] {
	case "plan":
		planCmd(os.Args[2:], log)
	case "days":
		daysCmd(os.Args[2:], log)
	case "run":
		runCmd(os.Args[2:], log)
	case "sync":
		syncCmd(os.Args[2:], log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
	}
}

// sharedFlags registers the flags common to every subcommand.
func sharedFlags(fs *flag.FlagSet) (serverURL, apiKey, stateDir *string) {
	serverURL = fs.String("server", "", "LiftPlan server URL")
	apiKey = fs.String("api-key", os.Getenv("LIFTPLAN_API_KEY"), "API key (defaults to LIFTPLAN_API_KEY)")
	stateDir = fs.String("state", "", "state directory (defaults to ~/.liftplan)")
	return
}

func openClient(serverURL, apiKey, stateDir string, log *slog.Logger) (*offline.Queue, *remote.Client, string, error) {
	if serverURL == "" {
		return nil, nil, "", fmt.Errorf("-server is required")
	}
	serverURL = strings.TrimRight(serverURL, "/")

	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, "", fmt.Errorf("resolving home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".liftplan")
	}

	queue, err := offline.OpenQueue(stateDir)
	if err != nil {
		return nil, nil, "", fmt.Errorf("opening operation queue: %w", err)
	}
	return queue, remote.NewClient(serverURL, apiKey), serverURL, nil
}

func syncCmd(args []string, log *slog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	serverURL, apiKey, stateDir := sharedFlags(fs)
	watch := fs.Bool("watch", false, "keep running and drain the queue on a schedule")
	schedule := fs.String("schedule", "@every 1m", "drain schedule in watch mode")
	fs.Parse(args)

	queue, api, url, err := openClient(*serverURL, *apiKey, *stateDir, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	probe := offline.NewHTTPProbe(url)
	rec := offline.NewReconciler(queue, api, probe, log)

	ctx := context.Background()
	drain(ctx, rec, queue, log)
	if !*watch {
		return
	}

	c := cron.New()
	if err := c.AddFunc(*schedule, func() {
		drain(ctx, rec, queue, log)
	}); err != nil {
		log.Error("invalid schedule", "schedule", *schedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()
	log.Info("watching queue", "schedule", *schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("stopping", "signal", sig)
}

func drain(ctx context.Context, rec *offline.Reconciler, queue *offline.Queue, log *slog.Logger) {
	applied, err := rec.Sync(ctx)
	if err != nil {
		log.Error("sync failed", "error", err)
		return
	}

	pending, err := queue.Size(ctx)
	if err != nil {
		log.Error("queue size check failed", "error", err)
		return
	}
	log.Info("sync pass complete", "applied", applied, "pending", pending)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, name := range strings.Split(s, ",") {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		out = append(out, wd)
	}
	return out, nil
}

func parseGoals(s string) (map[models.Goal]float64, error) {
	out := make(map[models.Goal]float64)
	for _, pair := range strings.Split(s, ",") {
		name, weight, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("goal %q is not name=weight", pair)
		}
		w, err := strconv.ParseFloat(weight, 64)
		if err != nil || w < 0 {
			return nil, fmt.Errorf("bad weight for goal %q", name)
		}
		goal := models.Goal(strings.TrimSpace(name))
		switch goal {
		case models.GoalBuildMuscle, models.GoalBuildStrength, models.GoalLoseFat, models.GoalGetFitter:
			out[goal] = w
		default:
			return nil, fmt.Errorf("unknown goal %q", name)
		}
	}
	return out, nil
}

// planCmd builds the full four week program locally and pushes the
// instance plus all dated days to the server. This is the offline-built
// counterpart of POST /api/v1/programs.
func planCmd(args []string, log *slog.Logger) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	serverURL, apiKey, stateDir := sharedFlags(fs)
	start := fs.String("start", time.Now().Format("2006-01-02"), "program start date (YYYY-MM-DD)")
	weekdays := fs.String("weekdays", "mon,wed,fri", "comma separated training weekdays")
	goals := fs.String("goals", "build_strength=0.5,build_muscle=0.5", "goal weights as name=weight pairs")
	equipment := fs.String("equipment", "barbell,bench,rack,dumbbells,pull-up-bar", "comma separated available equipment ids")
	fs.Parse(args)

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Error("invalid start date", "start", *start)
		os.Exit(1)
	}
	days, err := parseWeekdays(*weekdays)
	if err != nil {
		log.Error("invalid weekdays", "error", err)
		os.Exit(1)
	}
	goalWeights, err := parseGoals(*goals)
	if err != nil {
		log.Error("invalid goals", "error", err)
		os.Exit(1)
	}

	queue, api, _, err := openClient(*serverURL, *apiKey, *stateDir, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	profile := models.TrainingProfile{
		GoalWeights:  goalWeights,
		EquipmentIDs: strings.Split(*equipment, ","),
		Weekdays:     days,
	}

	plan, err := planner.BuildFourWeekPlan(profile, days, startDate)
	if err != nil {
		log.Error("building plan", "error", err)
		os.Exit(1)
	}

	inst := models.ProgramInstance{
		ID:              uuid.New(),
		UserID:          1,
		StartDate:       startDate,
		DurationWeeks:   models.ProgramWeeks,
		Weekdays:        days,
		ProfileSnapshot: profile.Clone(),
		Plan:            plan,
		Status:          models.ProgramActive,
		CreatedAt:       time.Now().UTC(),
	}
	programDays, err := planner.GenerateProgramDays(inst.ID, inst.UserID, plan, startDate)
	if err != nil {
		log.Error("generating program days", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := api.CreateProgramInstance(ctx, inst); err != nil {
		log.Error("pushing program instance", "error", err)
		os.Exit(1)
	}
	if err := api.CreateProgramDays(ctx, inst.ID, programDays); err != nil {
		log.Error("pushing program days", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Program %s created: %d weeks, %d days, starting %s\n",
		inst.ID, inst.DurationWeeks, len(programDays), startDate.Format("2006-01-02"))
	for _, d := range programDays {
		if d.WeekIndex == 1 {
			fmt.Printf("  %s  %s (%s)\n", d.Date.Format("Mon 2006-01-02"), d.Label, strings.Join(d.Intents, ", "))
		}
	}
}

// daysCmd lists a program's dated days from the server.
func daysCmd(args []string, log *slog.Logger) {
	fs := flag.NewFlagSet("days", flag.ExitOnError)
	serverURL, apiKey, stateDir := sharedFlags(fs)
	instance := fs.String("instance", "", "program instance id")
	from := fs.String("from", time.Now().Format("2006-01-02"), "range start (YYYY-MM-DD)")
	weeks := fs.Int("weeks", models.ProgramWeeks, "number of weeks to list")
	fs.Parse(args)

	instanceID, err := uuid.Parse(*instance)
	if err != nil {
		log.Error("days: -instance must be a program instance id")
		os.Exit(1)
	}
	fromDate, err := time.Parse("2006-01-02", *from)
	if err != nil {
		log.Error("invalid from date", "from", *from)
		os.Exit(1)
	}

	queue, api, _, err := openClient(*serverURL, *apiKey, *stateDir, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	days, err := api.GetProgramDays(context.Background(), instanceID, fromDate, fromDate.AddDate(0, 0, 7**weeks))
	if err != nil {
		log.Error("fetching program days", "error", err)
		os.Exit(1)
	}
	if len(days) == 0 {
		fmt.Println("No program days in range.")
		return
	}
	for _, d := range days {
		fmt.Printf("%s  week %d day %d  %s  (%s)\n",
			d.Date.Format("Mon 2006-01-02"), d.WeekIndex, d.DayIndex, d.Label, strings.Join(d.Intents, ", "))
	}
}

func runCmd(args []string, log *slog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	serverURL, apiKey, stateDir := sharedFlags(fs)
	intents := fs.String("intents", "", "comma separated movement intents (e.g. squat,horizontal_push)")
	equipment := fs.String("equipment", "barbell,bench,rack,dumbbells,pull-up-bar", "comma separated available equipment ids")
	intensity := fs.Float64("intensity", 0.5, "session intensity in [0,1]")
	timed := fs.Bool("timed", false, "run with the elapsed-time ticker")
	fs.Parse(args)

	if *intents == "" {
		fmt.Fprintln(os.Stderr, "run: -intents is required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	queue, api, url, err := openClient(*serverURL, *apiKey, *stateDir, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()
	telemetry := remote.NewTelemetry(url, *apiKey, log)

	cat, err := catalog.Default()
	if err != nil {
		log.Error("loading exercise catalog", "error", err)
		os.Exit(1)
	}

	// Ad hoc day: no program link, default goal weights.
	day := models.ProgramDay{
		Label:        "Ad hoc session",
		Intents:      strings.Split(*intents, ","),
		Intensity:    *intensity,
		VolumeScalar: 1,
	}
	profile := models.TrainingProfile{EquipmentIDs: strings.Split(*equipment, ",")}
	engine := session.NewEngine(cat, log)
	plan, err := engine.BuildFromProgramDay(day, profile)
	if err != nil {
		log.Error("building session plan", "error", err)
		os.Exit(1)
	}
	plan.ProgramDayID = nil

	rec := offline.NewRecorder(api, queue, log)
	runner := session.NewRunner(rec, rec, cat, log, nil)

	mode := models.ModeManual
	if *timed {
		mode = models.ModeTimed
	}

	ctx := context.Background()
	s, err := runner.Start(ctx, 1, mode, plan, nil)
	if err != nil {
		// Session creation needs the server; the in-progress guard is there.
		log.Error("starting session", "error", err)
		os.Exit(1)
	}

	telemetry.LogEvent(ctx, "session_started", map[string]any{
		"session_id": s.ID.String(),
		"mode":       string(mode),
		"exercises":  len(plan.Exercises),
	})

	printPlan(plan)
	fmt.Printf("Session %s started. Commands: log <exercise#> <weight> <reps> [rpe], skip <exercise#>, status, done, quit\n", s.ID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "log":
			if err := logCommand(ctx, runner, fields[1:]); err != nil {
				fmt.Println("error:", err)
			}
		case "skip":
			if err := skipCommand(ctx, runner, fields[1:]); err != nil {
				fmt.Println("error:", err)
			}
		case "status":
			printStatus(runner)
		case "done":
			summary, err := runner.Finalize(ctx)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			telemetry.LogEvent(ctx, "session_finalized", map[string]any{
				"session_id":   s.ID.String(),
				"duration_sec": summary.DurationSec,
				"total_sets":   summary.TotalSets,
				"prs":          len(summary.PersonalRecords),
			})
			printSummary(*summary)
			reportQueue(ctx, queue, log)
			return
		case "quit":
			fmt.Println("Session left in progress; resume or finalize it later.")
			reportQueue(ctx, queue, log)
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func logCommand(ctx context.Context, runner *session.Runner, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: log <exercise#> <weight> <reps> [rpe]")
	}
	item, err := itemByNumber(runner, args[0])
	if err != nil {
		return err
	}
	weight, err := strconv.ParseFloat(args[1], 64)
	if err != nil || weight < 0 {
		return fmt.Errorf("bad weight %q", args[1])
	}
	reps, err := strconv.Atoi(args[2])
	if err != nil || reps < 1 {
		return fmt.Errorf("bad rep count %q", args[2])
	}

	set := models.PerformedSet{
		SetIndex: item.NextPendingSetIndex(),
		WeightKg: weight,
		Reps:     reps,
	}
	if set.SetIndex == 0 {
		return fmt.Errorf("%s has no pending sets", item.Name)
	}
	if len(args) > 3 {
		rpe, err := strconv.ParseFloat(args[3], 64)
		if err != nil || rpe < 1 || rpe > 10 {
			return fmt.Errorf("bad RPE %q", args[3])
		}
		set.RPE = &rpe
	}

	adj, err := runner.LogSet(ctx, item.ID, set)
	if err != nil {
		return err
	}
	fmt.Printf("Logged %s set %d: %.1fkg x %d\n", item.Name, set.SetIndex, weight, reps)
	if adj != nil {
		fmt.Printf("Adjustment: %s\n", adj.Rationale)
	}
	return nil
}

func skipCommand(ctx context.Context, runner *session.Runner, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: skip <exercise#>")
	}
	item, err := itemByNumber(runner, args[0])
	if err != nil {
		return err
	}
	if err := runner.SkipItem(ctx, item.ID); err != nil {
		return err
	}
	fmt.Printf("Skipped %s\n", item.Name)
	return nil
}

func itemByNumber(runner *session.Runner, arg string) (models.TrainingSessionItem, error) {
	items := runner.Items()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		return models.TrainingSessionItem{}, fmt.Errorf("exercise number must be 1..%d", len(items))
	}
	return items[n-1], nil
}

func printPlan(plan models.SessionPlan) {
	fmt.Printf("%s (confidence %.2f)\n", plan.Label, plan.Trace.Confidence)
	for i, ex := range plan.Exercises {
		fmt.Printf("%2d. %s [%s]\n", i+1, ex.Name, ex.Tier)
		for _, set := range ex.Sets {
			fmt.Printf("      set %d: %d reps @ %.1fkg, rest %ds\n",
				set.Index, set.TargetReps, set.SuggestedWeight, set.RestSeconds)
		}
	}
	for _, c := range plan.Trace.ConstraintsApplied {
		fmt.Println("note:", c)
	}
}

func printStatus(runner *session.Runner) {
	fmt.Printf("Elapsed %s\n", runner.Elapsed().Round(time.Second))
	for i, item := range runner.Items() {
		state := fmt.Sprintf("%d/%d sets", len(item.PerformedSets), len(item.PlannedSets))
		if item.Skipped {
			state = "skipped"
		}
		fmt.Printf("%2d. %-30s %s\n", i+1, item.Name, state)
	}
}

func printSummary(s models.SessionSummary) {
	fmt.Printf("Done in %dm%ds: %d exercises, %d sets, %.1fkg total volume\n",
		s.DurationSec/60, s.DurationSec%60, s.CompletedExercises, s.TotalSets, s.TotalVolume)
	for _, pr := range s.PersonalRecords {
		fmt.Printf("PR: %s %s %.1f (was %.1f)\n", pr.ExerciseID, pr.Metric, pr.Value, pr.Previous)
	}
}

func reportQueue(ctx context.Context, queue *offline.Queue, log *slog.Logger) {
	pending, err := queue.Size(ctx)
	if err != nil {
		log.Error("queue size check failed", "error", err)
		return
	}
	if pending > 0 {
		fmt.Printf("%d operations queued offline; run `liftplan-session sync` when back online.\n", pending)
	}
}
