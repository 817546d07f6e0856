package main

import "github.com/mikoim/go-loadavg"

// GetLoadAverage returns the one minute load average, or a negative value
// if it cannot be read.
func GetLoadAverage() float64 {
	l, err := loadavg.Parse()
	if err != nil {
		return -1
	}
	return l.LoadAverage1
}
