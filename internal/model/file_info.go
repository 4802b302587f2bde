package model

import "time"

// RemoteEntry is one item of a remote directory listing. It is produced
// fresh on every listing and is never cached.
type RemoteEntry struct {
	Name       string
	Path       string
	Size       int64
	IsDir      bool
	Mode       string
	ModifiedAt time.Time
}

type FileItem struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	SizeHuman   string    `json:"size_human,omitempty"`
	Extension   string    `json:"extension,omitempty"`
	ModifiedAt  time.Time `json:"modified_at"`
	Permissions string    `json:"permissions"`
}

type DirectoryListData struct {
	CurrentPath string     `json:"current_path"`
	ParentPath  string     `json:"parent_path"`
	Items       []FileItem `json:"items"`
}
