package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"

	"elevsim/src/config"
	"elevsim/src/dispatcher"
	"elevsim/src/elev"
	"elevsim/src/sim"
	"elevsim/src/types"
	"elevsim/src/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to the building YAML config")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	simulate := flag.Bool("simulate", true, "Generate random passenger traffic")
	interval := flag.Duration("interval", 2*time.Second, "Time between simulated passengers")
	flag.Parse()

	env, err := config.LoadEnv(*envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *configPath == "" {
		*configPath = env[config.EnvConfigPath]
	}
	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ApplyEnv(env)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logCloser, err := elev.InitLogger(cfg.SlogLevel(), cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()

	system, err := dispatcher.New(cfg.MinFloor, cfg.MaxFloor)
	if err != nil {
		slog.Error("Creating system failed", "err", err)
		os.Exit(1)
	}
	for _, c := range cfg.Cars {
		if _, err := system.NewCar(c.ID, c.Capacity, elev.WithStartFloor(c.StartFloor), elev.WithStepDelay(cfg.StepDelay)); err != nil {
			slog.Error("Creating car failed", "car", c.ID, "err", err)
			os.Exit(1)
		}
	}

	if err := system.Subscribe(func(ev types.StepEvent) {
		slog.Debug("Step", "event", elev.FormatStep(ev))
		utils.PrintStatus(system.Snapshots())
	}); err != nil {
		slog.Error("Subscribing status view failed", "err", err)
		os.Exit(1)
	}

	if err := system.Start(); err != nil {
		slog.Error("Starting dispatcher failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		if !*simulate {
			return
		}
		drv := sim.NewDriver(system, sim.WithInterval(*interval))
		if err := drv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Simulation failed", "err", err)
		}
		slog.Info("Simulation stats", "stats", drv.Stats())
	}()

	runKeyboard(ctx, system)
	stop()
	<-simDone

	system.Shutdown()
	system.Wait()
	fmt.Println()
	slog.Info("Simulation finished", "totalPower", system.TotalPowerConsumed())
}

// runKeyboard turns digit keys into hall calls, u and d pick their direction. It returns
// on q, Esc, Ctrl-C or when ctx is done.
func runKeyboard(ctx context.Context, system *dispatcher.System) {
	if err := keyboard.Open(); err != nil {
		slog.Warn("Keyboard unavailable, waiting for interrupt", "err", err)
		<-ctx.Done()
		return
	}
	defer keyboard.Close()
	slog.Info("Press 0-9 for a hall call, u/d to switch direction, q to quit")

	keys, err := keyboard.GetKeys(10)
	if err != nil {
		slog.Error("Reading keys failed", "err", err)
		return
	}
	dir := types.DirUp
	for {
		var ev keyboard.KeyEvent
		select {
		case <-ctx.Done():
			return
		case ev = <-keys:
		}
		if ev.Err != nil {
			slog.Error("Reading key failed", "err", ev.Err)
			return
		}
		switch {
		case ev.Key == keyboard.KeyCtrlC || ev.Key == keyboard.KeyEsc || ev.Rune == 'q':
			return
		case ev.Rune == 'u':
			dir = types.DirUp
		case ev.Rune == 'd':
			dir = types.DirDown
		case ev.Rune >= '0' && ev.Rune <= '9':
			floor := system.MinFloor() + int(ev.Rune-'0')
			go hallCall(system, floor, dir)
		}
	}
}

func hallCall(system *dispatcher.System, floor int, dir types.Direction) {
	call := system.CallUp
	if dir == types.DirDown {
		call = system.CallDown
	}
	car, err := call(floor)
	switch {
	case errors.Is(err, types.ErrNoAvailableCar):
		slog.Warn("All cars busy, hall call dropped", "floor", floor, "dir", dir)
	case err != nil:
		slog.Warn("Hall call rejected", "floor", floor, "err", err)
	default:
		slog.Info("Car arrived", "car", car.ID(), "floor", floor, "dir", dir)
	}
}
