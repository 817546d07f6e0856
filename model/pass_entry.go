package model

import "gorm.io/plugin/soft_delete"

type PassEntry struct {
	ID int64 `json:"-" gorm:"primarykey"`
	// owning CompileEntry
	PID        int64  `json:"-" gorm:"column:pid;index:idx_pid"`
	Seq        int    `json:"seq"`
	Name       string `json:"name"`
	DurationNs int64  `json:"duration_ns"`
	BytesIn    int64  `json:"bytes_in"`
	BytesOut   int64  `json:"bytes_out"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `json:"-" gorm:"softDelete:flag;default:0"`
}

func (PassEntry) TableName() string {
	return "pass_entry"
}
