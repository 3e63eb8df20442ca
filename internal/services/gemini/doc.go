// Package gemini calls an image-capable Gemini model through the
// generateContent REST endpoint.
//
// Reference images travel as inline base64 parts ahead of the text prompt;
// the first inline image in the first candidate is the result. Responses
// without one fail with a semantic error whose message ("no candidates",
// "bad response format", "no image data") is shown to the user as-is.
package gemini
