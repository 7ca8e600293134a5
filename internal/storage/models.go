package storage

// MediaEntry is one item of a media listing. Src is always a forward-slash URL
// path rooted at the public media root.
type MediaEntry struct {
	IsFile   bool   `json:"isFile"`
	Size     uint64 `json:"size"`
	Src      string `json:"src"`
	Filename string `json:"filename"`
}

type ListPage struct {
	Files       []MediaEntry `json:"files"`
	Directories []string     `json:"directories"`
	Cursor      *string      `json:"cursor"`
	Error       string       `json:"error,omitempty"`
}

type UploadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OperationResult answers mkdir and delete requests.
type OperationResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type RouteNotFound struct {
	Error    string   `json:"error"`
	Action   string   `json:"action"`
	Segments []string `json:"segments"`
}

func emptyListPage() *ListPage {
	return &ListPage{
		Files:       []MediaEntry{},
		Directories: []string{},
	}
}
