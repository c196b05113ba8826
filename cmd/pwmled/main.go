// pwmled drives an LED's brightness from two push buttons, using either
// timed GPIO toggling or the hardware PWM peripheral.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pwmled-go/bus"
	"pwmled-go/config"
	"pwmled-go/controller"
	"pwmled-go/gpio"
	"pwmled-go/regs"
	"pwmled-go/x/timex"
)

func main() {
	cfg := config.Default()
	flag.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO character device name")
	flag.IntVar(&cfg.UpButtonLine, "up-line", cfg.UpButtonLine, "brightness-up button line")
	flag.IntVar(&cfg.DownButtonLine, "down-line", cfg.DownButtonLine, "brightness-down button line")
	flag.IntVar(&cfg.LEDLine, "led-line", cfg.LEDLine, "LED output line")
	flag.IntVar(&cfg.MaxLevel, "max-level", cfg.MaxLevel, "brightness ceiling")
	flag.DurationVar(&cfg.PulsePeriod, "pulse-period", cfg.PulsePeriod, "software PWM cycle period")
	flag.DurationVar(&cfg.DebounceWindow, "debounce", 200*time.Millisecond, "button debounce window")
	flag.BoolVar(&cfg.HardwarePWM, "hw", false, "program the PWM peripheral instead of toggling the line")
	hwRange := flag.Uint("range", uint(cfg.BrightnessRange), "hardware PWM range register value")
	pulseHz := flag.Uint("pulse-hz", 0, "software PWM frequency; overrides -pulse-period when set")
	flag.Parse()
	cfg.BrightnessRange = uint32(*hwRange)
	if *pulseHz > 0 {
		cfg.PulsePeriod = timex.PeriodFromHz(uint32(*pulseHz))
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	b := bus.New(8)
	chip := gpio.NewCdevChip(cfg.Chip, "pwmled")
	defer func() { _ = chip.Close() }()

	ctrl, err := controller.New(cfg, controller.Deps{
		Chip: chip,
		OpenBank: func(base int64, size int) (regs.BankCloser, error) {
			return regs.OpenDevMem(base, size)
		},
		Log: log,
		Bus: b,
	})
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer func() { _ = ctrl.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(ctx) })
	g.Go(func() error {
		sub := b.Subscribe(bus.Topic{"led", bus.Wildcard})
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg := <-sub.Channel():
				if msg == nil {
					return nil
				}
				log.Info("led", zap.Strings("topic", []string(msg.Topic)), zap.Any("value", msg.Payload))
			}
		}
	})
	if err := g.Wait(); err != nil {
		log.Fatal("controller exited", zap.Error(err))
	}
}
