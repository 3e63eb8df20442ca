// Package tts talks to the voice-cloning speech endpoint used for single and
// batch narration. The response body is the audio file itself.
package tts
