package main

import (
	"github.com/sirupsen/logrus"
	"github.com/tevino/abool/v2"
)

const cleanBatchLimit = 2000

var cleanRunning = abool.NewBool(false)

// cleanTask soft deletes one batch of expired cache entries. Overlapping
// runs return immediately.
func cleanTask() {
	if !cleanRunning.SetToIf(false, true) {
		return
	}
	defer cleanRunning.UnSet()

	expired, err := FindExpiredEntriesWithLimit(cleanBatchLimit)
	if err != nil {
		logrus.WithError(err).Warn("finding expired entries")
		return
	}
	if len(expired) == 0 {
		return
	}
	ids := make([]int64, 0, len(expired))
	for _, entry := range expired {
		ids = append(ids, entry.ID)
	}
	if err := DeleteEntries(ids); err != nil {
		logrus.WithError(err).Warn("deleting expired entries")
		return
	}
	logrus.WithField("count", len(ids)).Info("cleaned expired entries")
}
