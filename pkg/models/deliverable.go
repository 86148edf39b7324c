package models

import "time"

// GeneratedImage is an optional visual accompanying a deliverable.
type GeneratedImage struct {
	// ID is the unique identifier for this image.
	ID string `json:"id"`
	// Prompt is the generation prompt that produced the image.
	Prompt string `json:"prompt"`
	// Base64Data is the encoded image payload.
	Base64Data string `json:"base64Data"`
	// MimeType is the image content type.
	MimeType string `json:"mimeType"`
	// Category is the originating task's category.
	Category TaskCategory `json:"category"`
	// TaskID references the originating task.
	TaskID string `json:"taskId,omitempty"`
	// Timestamp is when the image was generated.
	Timestamp time.Time `json:"timestamp"`
}

// GeneratedVideo is an optional video asset for enterprise-tier runs.
type GeneratedVideo struct {
	// ID is the unique identifier for this video.
	ID string `json:"id"`
	// Prompt is the generation prompt that produced the video.
	Prompt string `json:"prompt"`
	// VideoURL locates the video asset.
	VideoURL string `json:"videoUrl"`
	// ThumbnailURL locates a preview frame, if any.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// Duration is the clip length in seconds.
	Duration int `json:"duration"`
	// Category is the originating task's category.
	Category TaskCategory `json:"category"`
	// Timestamp is when the video was generated.
	Timestamp time.Time `json:"timestamp"`
}

// GeneratedDeliverable is the content produced for one micro-task.
// It is immutable after creation; Evaluation and Assembly only read it.
type GeneratedDeliverable struct {
	// TaskID references the originating task.
	TaskID string `json:"taskId"`
	// TaskDescription repeats the task text for self-contained rendering.
	TaskDescription string `json:"taskDescription"`
	// Category is the originating task's category.
	Category TaskCategory `json:"category"`
	// Provider is the payment address of the producing provider.
	Provider string `json:"provider"`
	// ProviderName is the human-readable provider label.
	ProviderName string `json:"providerName"`
	// Content is the generated markdown document.
	Content string `json:"content"`
	// TokensUsed is the total token count the generation consumed.
	TokensUsed int64 `json:"tokensUsed"`
	// Timestamp is when the deliverable was produced.
	Timestamp time.Time `json:"timestamp"`
	// Image is the optional accompanying visual.
	Image *GeneratedImage `json:"image,omitempty"`
}
