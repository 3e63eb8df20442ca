// Package summarizer turns a video link into narration and image
// copywriting by calling an external workflow webhook.
package summarizer
