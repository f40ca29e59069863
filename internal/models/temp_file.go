package models

import "time"

// TempFile describes an uploaded document held on disk for one request.
type TempFile struct {
	SessionID    string    `json:"session_id"`
	OriginalName string    `json:"original_name"`
	StoredPath   string    `json:"stored_path"`
	Size         int64     `json:"size"`
	TextChars    int       `json:"text_chars"`
	CreatedAt    time.Time `json:"created_at"`
}
