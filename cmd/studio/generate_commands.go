package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studio/internal/api"
	"studio/internal/gateway"
	"studio/internal/invoker"
	"studio/internal/services"
)

func newInvokeCommand(ctx *commandContext) *cobra.Command {
	var req invoker.Request
	var addedPrompt string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Generate a character or background image",
		Example: `  studio invoke --project ~/studio/demo --type character --mode text --name hero --prompt "a knight"
  studio invoke --project ~/studio/demo --type background --mode reference --ref a.png --prompt "castle"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompt = invoker.ComposePrompt(req.Prompt, addedPrompt)
			resp, err := ctx.client().InvokeImage(cmd.Context(), req)
			if err != nil {
				return generationError(err)
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %s (%s)\n", resp.FilePath, api.FileSize(resp.FileSize))
			fmt.Fprintf(out, "Task: %s\n", resp.TaskID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.ProjectPath, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&req.ImageType, "type", "character", "Image type: character or background")
	cmd.Flags().StringVar(&req.Mode, "mode", "text", "Generation mode: text or reference")
	cmd.Flags().StringVar(&req.Name, "name", "", "Output name (required except for background by text)")
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "Prompt text")
	cmd.Flags().StringVar(&addedPrompt, "added-prompt", "", "Extra prompt appended on its own line")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect-ratio", "", "Aspect ratio such as 16:9")
	cmd.Flags().StringSliceVar(&req.ReferencePaths, "ref", nil, "Reference image path (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newTTSCommand(ctx *commandContext) *cobra.Command {
	var req gateway.TTSRequest
	var inputFile string
	cmd := &cobra.Command{
		Use:   "tts",
		Short: "Synthesize one speech clip into the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFile != "" {
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				req.Inputs = string(data)
			}
			if err := fillTTSDefaults(cmd, ctx, &req.APIKey, &req.PromptAudioURL, &req.PromptText); err != nil {
				return err
			}
			req.UseEmoText = strings.TrimSpace(req.EmoText) != ""
			resp, err := ctx.client().GenerateTTS(cmd.Context(), req)
			if err != nil {
				return generationError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", resp.Message, resp.Filename)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.ProjectPath, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&req.Inputs, "text", "", "Text to synthesize")
	cmd.Flags().StringVar(&inputFile, "text-file", "", "Read the text to synthesize from a file")
	cmd.Flags().StringVar(&req.EmoText, "emo-text", "", "Emotion guidance text")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "TTS API key (defaults to the daemon's)")
	cmd.Flags().StringVar(&req.PromptAudioURL, "prompt-audio-url", "", "Voice prompt audio URL (defaults to the daemon's)")
	cmd.Flags().StringVar(&req.PromptText, "prompt-text", "", "Voice prompt transcript (defaults to the daemon's)")
	return cmd
}

// fillTTSDefaults fills blank credentials from the daemon's configured
// defaults, the way the workspace pre-fills a new project.
func fillTTSDefaults(cmd *cobra.Command, ctx *commandContext, apiKey, audioURL, promptText *string) error {
	if *apiKey != "" && *audioURL != "" && *promptText != "" {
		return nil
	}
	defaults, err := ctx.client().DefaultTTSConfig(cmd.Context())
	if err != nil {
		return err
	}
	if *apiKey == "" {
		*apiKey = defaults.APIKey
	}
	if *audioURL == "" {
		*audioURL = defaults.PromptAudioURL
	}
	if *promptText == "" {
		*promptText = defaults.PromptText
	}
	return nil
}

// generationError keeps the daemon's user-facing reason and adds a hint for
// the busy-control case.
func generationError(err error) error {
	if errors.Is(err, services.ErrConflict) {
		return fmt.Errorf("%s (wait for it to finish; see `studio tasks`)", services.Reason(err))
	}
	return errors.New(services.Reason(err))
}
