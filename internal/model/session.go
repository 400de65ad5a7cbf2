package model

// ScreenshotRef points at a stored screenshot blob; the bytes themselves live
// in the file store.
type ScreenshotRef struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// SessionContext is the latest transcript segment and screenshot for one
// recording session. Each field is overwritten independently by its producer
// (last writer wins per field), never merged.
type SessionContext struct {
	SessionID         string         `json:"session_id"`
	TranscriptSegment string         `json:"transcript_segment"`
	TranscriptVersion int64          `json:"transcript_version"`
	Screenshot        *ScreenshotRef `json:"screenshot,omitempty"`
	ScreenshotVersion int64          `json:"screenshot_version"`
	UpdatedAt         int64          `json:"updated_at"`
}
