package model

import "gorm.io/plugin/soft_delete"

type CompileEntry struct {
	ID int64 `json:"id" gorm:"primarykey"`
	// ulid handed back in X-Compile-Id
	RequestID string `json:"request_id" gorm:"index:idx_request_id"`
	// file name given by the client, informational only
	Name string `json:"name"`
	// hex blake3 of pipeline fingerprint and source
	Key string `json:"key" gorm:"index:idx_key,unique"`
	// wat text, zstd frame when Compressed
	Output     []byte `json:"-"`
	Compressed bool   `json:"compressed"`
	InputSize  int64  `json:"input_size"`
	OutputSize int64  `json:"output_size"`
	// per pass cost of the compile that produced Output
	Passes []*PassEntry `json:"passes" gorm:"foreignKey:PID;references:ID"`

	CreatedAt       int64
	LastAccess      int64 /* index_last_access */
	ExpiredDuration int64 /* seconds, 0 never expires */
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (CompileEntry) TableName() string {
	return "compile_entry"
}
