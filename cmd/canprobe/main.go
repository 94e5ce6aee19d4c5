package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CodedInternet/godynastat/api"
	"github.com/CodedInternet/godynastat/canbus"
	"github.com/CodedInternet/godynastat/canbus/dispatch"
	"github.com/CodedInternet/godynastat/config"
	"github.com/CodedInternet/godynastat/logging"
	"github.com/CodedInternet/godynastat/record"
	"github.com/CodedInternet/godynastat/vehicle"
	"github.com/abiosoft/ishell/v2"
	"github.com/rs/zerolog"
)

const firmwareWait = 2 * time.Second

func main() {
	simulated := flag.Bool("sim", false, "Run against the simulated vehicle instead of a CAN interface")
	port := flag.String("port", "", "Specify the ip:port to listen on")
	noShell := flag.Bool("noshell", false, "Run without the interactive shell")
	flag.Parse()

	envCfg, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to parse environment: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, envCfg.Debug)

	cfg, err := config.Load(envCfg.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", envCfg.ConfigFile).Msg("unable to load config")
	}
	if *port != "" {
		envCfg.Listen = *port
	}
	envCfg.Simulated = envCfg.Simulated || *simulated

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := openBus(ctx, envCfg, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("bus", cfg.Bus).Msg("unable to open bus")
	}
	defer bus.Close()

	cmds := vehicle.NewCommands(cfg.Commands["throttle"].PeriodMicros, cfg.Commands["steering"].PeriodMicros)
	reg, err := vehicle.NewRegistry(cmds)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to build protocol registry")
	}
	monitor := vehicle.NewMonitor(reg, log)

	frames := make(chan canbus.Frame, 256)
	bus.AddMonitor(frames)
	go monitor.Run(ctx, frames)

	session := time.Now().Format("20060102-150405")
	rec, err := openRecorder(envCfg.DBFile, session)
	if err != nil {
		log.Fatal().Err(err).Str("db", envCfg.DBFile).Msg("unable to open capture database")
	}
	defer rec.Close()

	if cfg.Record {
		captured := make(chan canbus.Frame, 256)
		bus.AddMonitor(captured)
		go capture(ctx, rec, captured, log)
		log.Info().Str("session", session).Msg("recording bus traffic")
	}

	sched := dispatch.NewScheduler(bus, log)
	if cfg.Commands["throttle"].Enabled {
		sched.Add(vehicle.IDThrottleCommand, cmds.Throttle)
	}
	if cfg.Commands["steering"].Enabled {
		sched.Add(vehicle.IDSteeringCommand, cmds.Steering)
	}
	go sched.Run(ctx)

	go checkFirmware(ctx, monitor, cfg.Firmware, log)

	srv := &http.Server{
		Addr:    envCfg.Listen,
		Handler: api.NewServer(monitor, log).Router(),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api server stopped")
			cancel()
		}
	}()

	if *noShell {
		<-ctx.Done()
	} else {
		newShell(monitor, cmds, rec).Run()
	}

	shutdown, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	srv.Shutdown(shutdown)
}

func openBus(ctx context.Context, envCfg *config.EnvConfig, cfg *config.Config, log zerolog.Logger) (canbus.Bus, error) {
	if envCfg.Simulated {
		log.Info().Msg("running against the simulated vehicle")
		bus := canbus.NewLoopbackBus()
		go vehicle.NewSimulator(bus, time.Now().UnixNano(), log).Run(ctx)
		return bus, nil
	}
	return canbus.NewCANBus(cfg.Bus, log)
}

func openRecorder(dbFile, session string) (*record.Recorder, error) {
	dbFile, err := filepath.Abs(dbFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return nil, err
	}
	return record.Open(dbFile, session)
}

func capture(ctx context.Context, rec *record.Recorder, rx <-chan canbus.Frame, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-rx:
			if err := rec.Save(f); err != nil {
				log.Error().Err(err).Msg("unable to record frame")
			}
		}
	}
}

// checkFirmware waits for a version report and warns when the controller is
// running firmware outside constraint.
func checkFirmware(ctx context.Context, monitor *vehicle.Monitor, constraint string, log zerolog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(firmwareWait):
	}

	version := monitor.Snapshot().Firmware
	if err := vehicle.CheckFirmware(version, constraint); err != nil {
		log.Warn().Err(err).Str("constraint", constraint).Msg("controller firmware check failed")
		return
	}
	log.Info().Str("firmware", version).Msg("controller firmware accepted")
}

func newShell(monitor *vehicle.Monitor, cmds *vehicle.Commands, rec *record.Recorder) *ishell.Shell {
	shell := ishell.New()
	shell.Println("CAN probe shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print the decoded vehicle state",
		Func: func(c *ishell.Context) {
			s := monitor.Snapshot()
			c.Printf("speed %.2f m/s  steering %.1f deg  accel %.2f %.2f %.2f m/s^2\n",
				s.SpeedMPS, s.SteeringDeg, s.Accel[0], s.Accel[1], s.Accel[2])
			c.Printf("throttle cmd %.1f%% (enabled %v)  steering cmd %.1f deg (enabled %v)  firmware %q\n",
				s.ThrottleCmdPct, s.Enabled, s.SteeringCmdDeg, s.SteeringEnabled, s.Firmware)
			c.Printf("%+v\n", monitor.Stats())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "throttle",
		Help: "throttle <percent>",
		Func: func(c *ishell.Context) {
			v, err := floatArg(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("throttle set to %.1f%%\n", cmds.Throttle.Set(v))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "steer",
		Help: "steer <degrees, positive left>",
		Func: func(c *ishell.Context) {
			v, err := floatArg(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("steering set to %.1f deg\n", cmds.Steering.Set(v))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "enable",
		Help: "enable <on|off>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: enable <on|off>"))
				return
			}
			on := c.Args[0] == "on"
			cmds.Throttle.Enable(on)
			cmds.Steering.Enable(on)
			c.Printf("commands enabled: %v\n", on)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "clear decoded state and reset every protocol",
		Func: func(c *ishell.Context) {
			monitor.Reset()
			c.Println("reset")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "protocols",
		Help: "list registered protocols",
		Func: func(c *ishell.Context) {
			for _, d := range vehicle.Describe(monitor.Registry()) {
				c.Printf("0x%03X  %-18s  %6dus  %d bytes\n", d.ID, d.Name, d.PeriodMicros, d.LengthBytes)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "sessions",
		Help: "list recorded sessions",
		Func: func(c *ishell.Context) {
			sessions, err := rec.Sessions()
			if err != nil {
				c.Err(err)
				return
			}
			for _, s := range sessions {
				c.Println(s)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "replay",
		Help: "replay <session> - decode a recorded session into a fresh state",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: replay <session>"))
				return
			}
			reg, err := vehicle.NewRegistry(vehicle.NewCommands(0, 0))
			if err != nil {
				c.Err(err)
				return
			}
			replayed := vehicle.NewMonitor(reg, zerolog.Nop())

			n, err := rec.Replay(c.Args[0], func(f canbus.Frame) error {
				replayed.Apply(f)
				return nil
			})
			if err != nil {
				c.Err(err)
				return
			}
			s := replayed.Snapshot()
			c.Printf("%d frames: speed %.2f m/s  steering %.1f deg  firmware %q\n", n, s.SpeedMPS, s.SteeringDeg, s.Firmware)
			c.Printf("%+v\n", replayed.Stats())
		},
	})

	return shell
}

func floatArg(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a single value, got %d", len(args))
	}
	return strconv.ParseFloat(args[0], 64)
}
