package main

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"wati2wat/model"
)

// SaveCompileEntry stores entry and its per-pass rows. A soft-deleted entry
// with the same key is purged first so the unique key index holds.
func SaveCompileEntry(entry *model.CompileEntry) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		var stale []int64
		if err := tx.Unscoped().Model(&model.CompileEntry{}).
			Where("`key`=? and `deleted`=1", entry.Key).
			Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) > 0 {
			if err := tx.Unscoped().Where("`pid` in ?", stale).Delete(&model.PassEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&model.CompileEntry{}, stale).Error; err != nil {
				return err
			}
		}

		passes := entry.Passes
		entry.Passes = nil
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		entry.Passes = passes
		if len(passes) == 0 {
			return nil
		}
		for i := range passes {
			passes[i].PID = entry.ID
		}
		return tx.Create(&passes).Error
	})
}

// FindCompileEntry returns the live entry for key, or nil.
func FindCompileEntry(key string) (*model.CompileEntry, error) {
	var entry model.CompileEntry
	err := DB.Preload("Passes", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq")
	}).Where("`key`=?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func UpdateEntryAccess(id int64) error {
	if err := DB.Model(&model.CompileEntry{}).Where("`id`=?", id).
		Update("last_access", time.Now().Unix()).Error; err != nil {
		return err
	}
	return nil
}

func FindExpiredEntriesWithLimit(limit int) ([]*model.CompileEntry, error) {
	var expired []*model.CompileEntry
	now := time.Now().Unix()
	if err := DB.Model(&model.CompileEntry{}).
		Where("`expired_duration` > 0 and `last_access`+`expired_duration` < ?", now).
		Limit(limit).Find(&expired).Error; err != nil {
		return nil, err
	}
	return expired, nil
}

// DeleteEntries soft deletes the entries with the given ids and their passes.
func DeleteEntries(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("`pid` in ?", ids).Delete(&model.PassEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CompileEntry{}, ids).Error
	})
}

func CountEntries() (int64, error) {
	var cnt int64
	err := DB.Model(&model.CompileEntry{}).Count(&cnt).Error
	return cnt, err
}
