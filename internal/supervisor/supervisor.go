// SPDX-License-Identifier: BSD-3-Clause

// Package supervisor wires one Supervisor per process: it reads a
// config.Config, opens an I2C connection and a persistent GPIO line per
// configured actuator, builds one DomainManager per sensor domain
// (air, light, water_level) plus a standalone Controller for each
// sensor-less actuator domain (fan, air_pump), and runs all of it under
// a cirello.io/oversight/v2 supervision tree.
//
// Grounded on service/operator's Run: oversight.New with NeverHalt +
// DefaultRestartStrategy, one supervisionTree.Add per child wrapped in
// pkg/process.New, and github.com/arunsworld/nursery.RunConcurrentlyWithContext
// to race the tree's own run loop against the code that populates it.
// Stripped of the teacher's NATS/mount/persistent-ID/logo machinery,
// none of which has a grow-chamber counterpart.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rorosen/growd/internal/broadcast"
	"github.com/rorosen/growd/internal/config"
	"github.com/rorosen/growd/internal/control"
	"github.com/rorosen/growd/internal/domainmgr"
	"github.com/rorosen/growd/internal/measurement"
	"github.com/rorosen/growd/internal/sampler"
	"github.com/rorosen/growd/internal/sensor/distance"
	"github.com/rorosen/growd/internal/sensor/gasair"
	"github.com/rorosen/growd/internal/sensor/light"
	"github.com/rorosen/growd/internal/service"
	"github.com/rorosen/growd/internal/store"
	"github.com/rorosen/growd/internal/threshold"
	"github.com/rorosen/growd/pkg/gpio"
	"github.com/rorosen/growd/pkg/i2c"
	"github.com/rorosen/growd/pkg/log"
	"github.com/rorosen/growd/pkg/process"
)

// defaultChildTimeout bounds how long a child process may take to shut
// down after its context is cancelled before oversight considers it
// stuck, matching the teacher's own operator default.
const defaultChildTimeout = 10 * time.Second

// Supervisor owns every domain manager and actuator controller for one
// grow chamber and runs them under a supervision tree until ctx is
// cancelled.
type Supervisor struct {
	cfg    config.Config
	store  *store.Store
	logger *slog.Logger
	tracer trace.Tracer
	lines  *gpio.LineGroup
}

// New constructs a Supervisor. store is expected to already be keyed by
// cfg.GrowID (the caller, cmd/growd, owns the Store's lifetime so the
// HTTP query server can share it).
func New(cfg config.Config, st *store.Store, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		store:  st,
		logger: logger,
		tracer: otel.Tracer("supervisor"),
		lines:  gpio.NewLineGroup(),
	}
}

// Run builds the supervision tree and blocks until ctx is cancelled or a
// child reports a fatal error.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.lines.Close()

	airBC := broadcast.New[[]measurement.Air]()
	lightBC := broadcast.New[[]measurement.Light]()
	waterLevelBC := broadcast.New[[]measurement.WaterLevel]()

	airSensors, err := s.buildAirSensors()
	if err != nil {
		return fmt.Errorf("build air sensors: %w", err)
	}
	lightSensors, err := s.buildLightSensors()
	if err != nil {
		return fmt.Errorf("build light sensors: %w", err)
	}
	waterLevelSensors, err := s.buildWaterLevelSensors()
	if err != nil {
		return fmt.Errorf("build water level sensors: %w", err)
	}

	airController, err := buildController("air", s.cfg.AirControl, s.cfg.GPIOPath, airBC, airLookup, measurement.AirFields, s.logger, s.lines)
	if err != nil {
		return fmt.Errorf("build air controller: %w", err)
	}
	lightController, err := buildController("light", s.cfg.LightControl, s.cfg.GPIOPath, lightBC, lightLookup, measurement.LightFields, s.logger, s.lines)
	if err != nil {
		return fmt.Errorf("build light controller: %w", err)
	}
	waterLevelController, err := buildController("water_level", s.cfg.WaterLevelControl, s.cfg.GPIOPath, waterLevelBC, waterLevelLookup, measurement.WaterLevelFields, s.logger, s.lines)
	if err != nil {
		return fmt.Errorf("build water level controller: %w", err)
	}
	// fan and air_pump have no sensors of their own: their Feedback mode,
	// if configured, evaluates the air / water_level domain's readings
	// respectively (see DESIGN.md's Open Question decision).
	fanController, err := buildController("fan", s.cfg.FanControl, s.cfg.GPIOPath, airBC, airLookup, measurement.AirFields, s.logger, s.lines)
	if err != nil {
		return fmt.Errorf("build fan controller: %w", err)
	}
	airPumpController, err := buildController("air_pump", s.cfg.AirPumpControl, s.cfg.GPIOPath, waterLevelBC, waterLevelLookup, measurement.WaterLevelFields, s.logger, s.lines)
	if err != nil {
		return fmt.Errorf("build air pump controller: %w", err)
	}

	airSampler := sampler.New[measurement.Air]("air", s.cfg.AirSample.Period(), airSensors, airBC, s.logger)
	lightSampler := sampler.New[measurement.Light]("light", s.cfg.LightSample.Period(), lightSensors, lightBC, s.logger)
	waterLevelSampler := sampler.New[measurement.WaterLevel]("water_level", s.cfg.WaterLevelSample.Period(), waterLevelSensors, waterLevelBC, s.logger)

	airMgr := domainmgr.New[measurement.Air]("air", airSampler, airController, airBC, s.store.AddAir, s.logger)
	lightMgr := domainmgr.New[measurement.Light]("light", lightSampler, lightController, lightBC, s.store.AddLight, s.logger)
	waterLevelMgr := domainmgr.New[measurement.WaterLevel]("water_level", waterLevelSampler, waterLevelController, waterLevelBC, s.store.AddWaterLevel, s.logger)

	services := []service.Service{
		airMgr,
		lightMgr,
		waterLevelMgr,
		controllerService{name: "fan", controller: fanController},
		controllerService{name: "air_pump", controller: airPumpController},
	}

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(s.logger)),
	)

	supervise := func(ctx context.Context, c chan error) {
		c <- tree.Start(ctx)
	}

	spawnProcs := func(ctx context.Context, c chan error) {
		for _, svc := range services {
			_, span := s.tracer.Start(ctx, "supervisor.add "+svc.Name())
			err := tree.Add(process.New(svc), oversight.Transient(), oversight.Timeout(defaultChildTimeout), svc.Name())
			span.End()
			if err != nil {
				c <- fmt.Errorf("add %s to supervision tree: %w", svc.Name(), err)
				return
			}
		}
	}

	s.logger.Info("starting grow chamber supervisor", "grow_id", s.cfg.GrowID)
	return nursery.RunConcurrentlyWithContext(ctx, supervise, spawnProcs)
}

// controllerService adapts a bare control.Controller (fan, air_pump: no
// sampler, no store writes) into a service.Service so it can share the
// same supervision tree as the DomainManagers.
type controllerService struct {
	name       string
	controller control.Controller
}

func (c controllerService) Name() string { return c.name }
func (c controllerService) Run(ctx context.Context) error {
	return c.controller.Run(ctx)
}

func airLookup(m measurement.Air, field string) (float64, bool) {
	return m.Field(measurement.AirField(field))
}

func waterLevelLookup(m measurement.WaterLevel, field string) (float64, bool) {
	return m.Field(measurement.WaterLevelField(field))
}

func lightLookup(m measurement.Light, field string) (float64, bool) {
	return m.Field(measurement.LightField(field))
}

func buildController[M any](name string, cc config.ControlConfig, gpioPath string, bc *broadcast.Broadcast[[]M], lookup threshold.FieldLookup[M], fields threshold.Fields, logger *slog.Logger, lines *gpio.LineGroup) (control.Controller, error) {
	switch cc.Mode {
	case config.ModeOff, "":
		return control.Disabled{}, nil

	case config.ModeCyclic:
		line, err := gpio.RequestLineByNumber(gpioPath, int(cc.Pin), gpio.AsOutputValue(0))
		if err != nil {
			return nil, fmt.Errorf("request %s line: %w", name, err)
		}
		lines.Add(name, line)
		onDur := secondsToDuration(cc.OnDurationSecs)
		offDur := secondsToDuration(cc.OffDurationSecs)
		return control.NewCyclic(line, onDur, offDur, name, logger), nil

	case config.ModeTimeBased:
		line, err := gpio.RequestLineByNumber(gpioPath, int(cc.Pin), gpio.AsOutputValue(0))
		if err != nil {
			return nil, fmt.Errorf("request %s line: %w", name, err)
		}
		lines.Add(name, line)
		activate := control.TimeOfDay(cc.ActivateTime.Duration())
		deactivate := control.TimeOfDay(cc.DeactivateTime.Duration())
		return control.NewTimeBased(line, activate, deactivate, name, logger)

	case config.ModeFeedback:
		line, err := gpio.RequestLineByNumber(gpioPath, int(cc.Pin), gpio.AsOutputValue(0))
		if err != nil {
			return nil, fmt.Errorf("request %s line: %w", name, err)
		}
		lines.Add(name, line)
		t, err := threshold.ParseThreshold(cc.ActivateCondition, cc.DeactivateCondition, fields)
		if err != nil {
			return nil, fmt.Errorf("parse %s threshold: %w", name, err)
		}
		return control.NewFeedback(line, bc, t, lookup, name, logger)

	default:
		return nil, fmt.Errorf("%s: unknown control mode %q", name, cc.Mode)
	}
}

func secondsToDuration(secs uint64) time.Duration {
	return time.Duration(secs) * time.Second
}

func (s *Supervisor) buildAirSensors() ([]sampler.Sensor[measurement.Air], error) {
	bus, err := busNumber(s.cfg.I2CPath)
	if err != nil {
		return nil, err
	}
	sensors := make([]sampler.Sensor[measurement.Air], 0, len(s.cfg.AirSample.Sensors))
	for label, sc := range s.cfg.AirSample.Sensors {
		conn, err := i2c.Open(i2c.NewConfig(i2c.WithBus(bus), i2c.WithAddress(uint16(sc.Address))))
		if err != nil {
			return nil, fmt.Errorf("open air sensor %s: %w", label, err)
		}
		sensor, err := gasair.New(conn, label)
		if err != nil {
			s.logger.Warn("omitting air sensor", "label", label, "error", err)
			_ = conn.Close()
			continue
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}

func (s *Supervisor) buildLightSensors() ([]sampler.Sensor[measurement.Light], error) {
	bus, err := busNumber(s.cfg.I2CPath)
	if err != nil {
		return nil, err
	}
	sensors := make([]sampler.Sensor[measurement.Light], 0, len(s.cfg.LightSample.Sensors))
	for label, sc := range s.cfg.LightSample.Sensors {
		conn, err := i2c.Open(i2c.NewConfig(i2c.WithBus(bus), i2c.WithAddress(uint16(sc.Address))))
		if err != nil {
			return nil, fmt.Errorf("open light sensor %s: %w", label, err)
		}
		sensors = append(sensors, light.New(conn, label))
	}
	return sensors, nil
}

func (s *Supervisor) buildWaterLevelSensors() ([]sampler.Sensor[measurement.WaterLevel], error) {
	bus, err := busNumber(s.cfg.I2CPath)
	if err != nil {
		return nil, err
	}
	sensors := make([]sampler.Sensor[measurement.WaterLevel], 0, len(s.cfg.WaterLevelSample.Sensors))
	for label, sc := range s.cfg.WaterLevelSample.Sensors {
		conn, err := i2c.Open(i2c.NewConfig(i2c.WithBus(bus), i2c.WithAddress(uint16(sc.Address))))
		if err != nil {
			return nil, fmt.Errorf("open water level sensor %s: %w", label, err)
		}
		sensors = append(sensors, distance.New(conn, label))
	}
	return sensors, nil
}

// busNumber extracts the bus number from a device path like
// "/dev/i2c-1", since pkg/i2c.Config identifies a bus by number while
// growd's configuration schema, like the original agent, names it by
// path.
func busNumber(path string) (int, error) {
	idx := strings.LastIndex(path, "-")
	if idx < 0 || idx == len(path)-1 {
		return 0, fmt.Errorf("%w: %s", errInvalidI2CPath, path)
	}
	n, err := strconv.Atoi(path[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidI2CPath, path)
	}
	return n, nil
}
