package gateway

import (
	"encoding/json"
	"strings"

	"studio/internal/draft"
	"studio/internal/services/summarizer"
	"studio/internal/store"
)

// TTSRequest is the body of POST /api/generate-tts.
type TTSRequest struct {
	ProjectPath    string `json:"projectPath"`
	APIKey         string `json:"apiKey"`
	PromptAudioURL string `json:"promptAudioUrl"`
	PromptText     string `json:"promptText"`
	Inputs         string `json:"inputs"`
	EmoText        string `json:"emoText,omitempty"`
	UseEmoText     bool   `json:"useEmoText"`
}

// TTSResponse reports the clip written for a TTSRequest.
type TTSResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ImageRequest is the body of the generate-image-text and
// generate-image-reference endpoints. Either name field may carry the name.
type ImageRequest struct {
	ProjectPath    string   `json:"projectPath"`
	ImageType      string   `json:"imageType"`
	Prompt         string   `json:"prompt"`
	AspectRatio    string   `json:"aspectRatio,omitempty"`
	CharacterName  string   `json:"characterName,omitempty"`
	BackgroundName string   `json:"backgroundName,omitempty"`
	ImagePaths     []string `json:"imagePaths,omitempty"`
}

// Name returns whichever name field is set.
func (r ImageRequest) Name() string {
	if name := strings.TrimSpace(r.CharacterName); name != "" {
		return name
	}
	return strings.TrimSpace(r.BackgroundName)
}

// ImageResponse reports a generated image file.
type ImageResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ImagePreview is an image inlined as a data URL.
type ImagePreview struct {
	Success bool   `json:"success"`
	DataURL string `json:"data_url,omitempty"`
	Message string `json:"message,omitempty"`
}

// DraftRequest is the body of the save/load/clear draft endpoints.
type DraftRequest struct {
	ProjectPath string          `json:"projectPath"`
	DraftData   json.RawMessage `json:"draftData,omitempty"`
}

// DraftResponse carries a loaded draft.
type DraftResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *draft.Snapshot `json:"data,omitempty"`
}

// CopywritingSaveRequest is the body of POST /api/save-copywriting.
type CopywritingSaveRequest struct {
	ProjectPath string          `json:"projectPath"`
	TTSData     json.RawMessage `json:"ttsData"`
	ImageData   json.RawMessage `json:"imageData"`
}

// CopywritingRequest is the body of POST /api/generate-copywriting.
type CopywritingRequest struct {
	VideoURL string `json:"videoUrl"`
}

// CopywritingResponse carries generated copywriting.
type CopywritingResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    *summarizer.Result `json:"data,omitempty"`
}

// TTSDefaults is the configured speech credential set offered to new
// workspaces.
type TTSDefaults struct {
	APIKey             string `json:"apiKey"`
	PromptAudioURL     string `json:"promptAudioUrl"`
	PromptText         string `json:"promptText"`
	DefaultProjectRoot string `json:"defaultProjectRoot"`
}

// FolderRequest is the body of the open-folder endpoints.
type FolderRequest struct {
	ProjectPath string `json:"projectPath,omitempty"`
	FilePath    string `json:"filePath,omitempty"`
}

// PathResponse is the generic {success, message, path} answer.
type PathResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ReferenceImage is an inline base64 reference for free-create.
type ReferenceImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType,omitempty"`
}

// FreeCreateRequest is the body of POST /api/free-create-image.
type FreeCreateRequest struct {
	ProjectPath     string           `json:"projectPath"`
	Prompt          string           `json:"prompt"`
	AspectRatio     string           `json:"aspectRatio,omitempty"`
	SaveFolder      string           `json:"saveFolder,omitempty"`
	ReferenceImages []ReferenceImage `json:"referenceImages,omitempty"`
}

// FreeCreateResponse reports a free-create image.
type FreeCreateResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"imagePath,omitempty"`
	ImageData string `json:"imageData,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SaveFreeCreateRequest is the body of POST /api/save-free-create-image.
type SaveFreeCreateRequest struct {
	ImagePath    string `json:"imagePath"`
	TargetFolder string `json:"targetFolder"`
}

// SaveFreeCreateResponse reports where the copy landed.
type SaveFreeCreateResponse struct {
	Success    bool   `json:"success"`
	TargetPath string `json:"targetPath,omitempty"`
	Message    string `json:"message,omitempty"`
}

// HistoryResponse lists free-create history, newest first.
type HistoryResponse struct {
	Success bool                 `json:"success"`
	Data    []store.HistoryEntry `json:"data"`
}
