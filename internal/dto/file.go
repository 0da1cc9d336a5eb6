package dto

import (
	"time"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

// FileResponse represents a stored work file.
type FileResponse struct {
	ID         int64     `json:"id"`
	OrderID    int64     `json:"order_id"`
	UploaderID int64     `json:"uploader_id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	StorageKey string    `json:"storage_key"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// Files converts a slice of work files.
func Files(files []entity.WorkFile) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for i := range files {
		out = append(out, File(&files[i]))
	}
	return out
}

// File converts a single work file.
func File(f *entity.WorkFile) FileResponse {
	return FileResponse{
		ID:         f.ID,
		OrderID:    f.OrderID,
		UploaderID: f.UploaderID,
		Kind:       string(f.Kind),
		Name:       f.Name,
		StorageKey: f.StorageKey,
		Size:       f.Size,
		CreatedAt:  f.CreatedAt,
	}
}
