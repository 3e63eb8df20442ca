package draft

import (
	"bytes"
	"encoding/json"
	"fmt"

	"studio/internal/services"
)

// Snapshot is the full restorable state of one project workspace. Field
// names match the JSON keys the web front-end writes, so snapshots saved by
// either client load in the other.
type Snapshot struct {
	ProjectID string `json:"projectId"`
	Timestamp int64  `json:"timestamp"`

	VideoURL       string `json:"videoUrl"`
	APIKey         string `json:"apiKey"`
	PromptAudioURL string `json:"promptAudioUrl"`
	PromptText     string `json:"promptText"`
	TTSInput       string `json:"ttsInput"`
	EmoText        string `json:"emoText"`
	BatchTTSInput  string `json:"batchTTSInput"`
	BatchEmoText   string `json:"batchEmoText"`

	CharacterName           string `json:"characterName"`
	CharacterPrompt         string `json:"characterPrompt"`
	CharacterAspectRatio    string `json:"characterAspectRatio"`
	CharacterRefName        string `json:"characterRefName"`
	CharacterRefImagePath   string `json:"characterRefImagePath"`
	CharacterAddedPrompt    string `json:"characterAddedPrompt"`
	CharacterRefAspectRatio string `json:"characterRefAspectRatio"`
	CharacterImagePath      string `json:"characterImagePath"`
	CharacterResultPathText string `json:"characterResultPathText"`
	CharacterResultPathRef  string `json:"characterResultPathRef"`

	BackgroundName           string `json:"backgroundName"`
	BackgroundPrompt         string `json:"backgroundPrompt"`
	BackgroundAspectRatio    string `json:"backgroundAspectRatio"`
	BackgroundRefName        string `json:"backgroundRefName"`
	BackgroundRefImagePaths  string `json:"backgroundRefImagePaths"`
	BackgroundAddedPrompt    string `json:"backgroundAddedPrompt"`
	BackgroundRefAspectRatio string `json:"backgroundRefAspectRatio"`
	BackgroundImagePath      string `json:"backgroundImagePath"`
	BackgroundResultPathText string `json:"backgroundResultPathText"`
	BackgroundResultPathRef  string `json:"backgroundResultPathRef"`

	CharacterResultDisplayTextVisible  bool `json:"characterResultDisplayTextVisible"`
	CharacterResultDisplayRefVisible   bool `json:"characterResultDisplayRefVisible"`
	BackgroundResultDisplayTextVisible bool `json:"backgroundResultDisplayTextVisible"`
	BackgroundResultDisplayRefVisible  bool `json:"backgroundResultDisplayRefVisible"`
	CharacterResultContainerVisible    bool `json:"characterResultContainerVisible"`
	BackgroundResultContainerVisible   bool `json:"backgroundResultContainerVisible"`

	CharacterImageTextSrc  string `json:"characterImageTextSrc"`
	CharacterImageRefSrc   string `json:"characterImageRefSrc"`
	BackgroundImageTextSrc string `json:"backgroundImageTextSrc"`
	BackgroundImageRefSrc  string `json:"backgroundImageRefSrc"`
}

// Decode parses a persisted snapshot. Unknown fields are ignored; anything
// that is not a JSON object is a persistence error.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return snap, services.Wrap(services.ErrPersistence, "draft", "decode", "snapshot is not a JSON object", nil)
	}
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return snap, services.Wrap(services.ErrPersistence, "draft", "decode", "invalid snapshot", err)
	}
	return snap, nil
}

// Encode renders the snapshot as indented JSON.
func Encode(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
