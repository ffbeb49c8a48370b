package model

// ImportResult reports the outcome of a CSV import. Committed counts rows
// in chunks that were fully written; on failure Error holds the backend
// message of the chunk that stopped the import.
type ImportResult struct {
	Total     int    `json:"total"`
	Committed int    `json:"committed"`
	Chunks    int    `json:"chunks"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

// ImportPreview describes an uploaded CSV before it is imported.
type ImportPreview struct {
	Headers []string            `json:"headers"`
	Mapping map[string]string   `json:"mapping"`
	Rows    []map[string]string `json:"rows"`
	Total   int                 `json:"total"`
}

// UploadResponse returns the public URL of a stored file.
type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}
