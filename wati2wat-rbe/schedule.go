package main

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

var cleanScheduler gocron.Scheduler

// StartExpiredCleanSchedule runs cleanTask every interval until
// StopScheduler.
func StartExpiredCleanSchedule(interval time.Duration) error {
	var err error
	cleanScheduler, err = gocron.NewScheduler()
	if err != nil {
		return err
	}
	job, err := cleanScheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(cleanTask))
	if err != nil {
		return err
	}
	logrus.WithField("job", job.ID()).Infof("cleaning expired entries every %s", interval)
	cleanScheduler.Start()
	return nil
}

func StopScheduler() {
	if cleanScheduler == nil {
		return
	}
	if err := cleanScheduler.Shutdown(); err != nil {
		logrus.Warn(err)
	}
	cleanScheduler = nil
}
