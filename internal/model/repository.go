package model

type IndexMode string

const (
	IndexModeManual IndexMode = "manual"
	IndexModeGuided IndexMode = "guided"
	IndexModeFull   IndexMode = "full"
)

func (m IndexMode) Valid() bool {
	switch m {
	case IndexModeManual, IndexModeGuided, IndexModeFull:
		return true
	}
	return false
}

type Repository struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RootPath      string    `json:"root_path"`
	Mode          IndexMode `json:"mode"`
	LastIndexedAt int64     `json:"last_indexed_at"`
	Ctime         int64     `json:"ctime"`
}
