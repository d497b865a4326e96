package main

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/photonicat/simply_analog/internal/logger"
)

// Scheduler drives the minute redraw and the sensor poll.
type Scheduler struct {
	scheduler gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleMinuteTick redraws the face at the start of every minute.
func (s *Scheduler) ScheduleMinuteTick(w *Watchface) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob("* * * * *", false),
		gocron.NewTask(func() {
			if err := w.OnTick(time.Now()); err != nil {
				logger.Warn("tick render failed", "err", err)
			}
		}),
		gocron.WithName("minute-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick job: %w", err)
	}
	return nil
}

// ScheduleSensorPoll reads the sensors every interval, starting right away.
func (s *Scheduler) ScheduleSensorPoll(w *Watchface, src *SensorSource, interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			collectData(w, src, time.Now())
		}),
		gocron.WithName("sensor-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sensor poll job: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	logger.Info("starting scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	logger.Info("stopping scheduler")
	return s.scheduler.Shutdown()
}
