package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// FileKind tags an uploaded work file with its purpose.
type FileKind string

const (
	FileKindTask     FileKind = "task"
	FileKindSolution FileKind = "solution"
	FileKindRevision FileKind = "revision"
)

// ParseFileKind converts a raw label into a FileKind.
func ParseFileKind(raw string) (FileKind, bool) {
	switch FileKind(raw) {
	case FileKindTask, FileKindSolution, FileKindRevision:
		return FileKind(raw), true
	default:
		return "", false
	}
}

// WorkFile records an attachment acknowledged by the storage subsystem.
type WorkFile struct {
	bun.BaseModel `bun:"table:order_files,alias:f"`

	ID         int64     `bun:",pk,autoincrement" json:"id"`
	OrderID    int64     `bun:"order_id,notnull" json:"order_id"`
	UploaderID int64     `bun:"uploader_id,notnull" json:"uploader_id"`
	Kind       FileKind  `bun:"kind,notnull" json:"kind"`
	Name       string    `bun:"name,notnull" json:"name"`
	StorageKey string    `bun:"storage_key,notnull" json:"storage_key"`
	Size       int64     `bun:"size" json:"size"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
