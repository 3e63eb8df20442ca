package gateway

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"studio/internal/batch"
	"studio/internal/logging"
	"studio/internal/services"
	"studio/internal/services/tts"
	"studio/internal/workspace"
)

// GenerateTTS synthesizes req.Inputs and stores the clip as tts/N.wav with
// its text beside it as tts/text/N.txt, where N is one past the highest
// existing clip number.
func (s *Service) GenerateTTS(ctx context.Context, req TTSRequest) (TTSResponse, error) {
	project := strings.TrimSpace(req.ProjectPath)
	if project == "" {
		return TTSResponse{}, invalid("缺少项目路径")
	}
	if strings.TrimSpace(req.Inputs) == "" {
		return TTSResponse{}, invalid("请输入要合成的文本")
	}
	if s.speech == nil {
		return TTSResponse{}, services.Wrap(services.ErrConfiguration, "gateway", "generate tts", "speech client not configured", nil)
	}

	audio, err := s.speech.Synthesize(ctx, tts.Request{
		APIKey:         req.APIKey,
		Input:          req.Inputs,
		PromptAudioURL: req.PromptAudioURL,
		PromptText:     req.PromptText,
		EmoText:        req.EmoText,
		UseEmoText:     req.UseEmoText,
	})
	if err != nil {
		return TTSResponse{}, err
	}

	layout := workspace.New(project)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := workspace.Ensure(layout.TTSTextDir()); err != nil {
		return TTSResponse{}, services.Wrap(services.ErrPersistence, "gateway", "generate tts", "", err)
	}
	n, err := workspace.NextNumber(layout.TTSDir(), "wav")
	if err != nil {
		return TTSResponse{}, services.Wrap(services.ErrPersistence, "gateway", "generate tts", "", err)
	}
	filename := fmt.Sprintf("%d.wav", n)
	audioPath := filepath.Join(layout.TTSDir(), filename)
	if err := s.writeArtifact(ctx, layout.Root, audioPath, audio); err != nil {
		return TTSResponse{}, services.Wrap(services.ErrPersistence, "gateway", "write audio", "", err)
	}
	textPath := filepath.Join(layout.TTSTextDir(), fmt.Sprintf("%d.txt", n))
	if err := workspace.WriteFileAtomic(textPath, []byte(req.Inputs)); err != nil {
		return TTSResponse{}, services.Wrap(services.ErrPersistence, "gateway", "write transcript", "", err)
	}

	s.logger.Info("tts clip saved",
		logging.String(logging.FieldProject, project),
		logging.String("file", audioPath),
		logging.Int("bytes", len(audio)),
	)
	return TTSResponse{Success: true, Filename: filename, Message: "语音生成成功"}, nil
}

// BatchSynthesizer adapts the service to the batch pipeline.
func (s *Service) BatchSynthesizer() batch.Synthesizer {
	return batchSynthesizer{svc: s}
}

type batchSynthesizer struct {
	svc *Service
}

func (b batchSynthesizer) GenerateTTS(ctx context.Context, req batch.SynthesisRequest) (batch.SynthesisResult, error) {
	resp, err := b.svc.GenerateTTS(ctx, TTSRequest{
		ProjectPath:    req.ProjectPath,
		APIKey:         req.Credentials.APIKey,
		PromptAudioURL: req.Credentials.PromptAudioURL,
		PromptText:     req.Credentials.PromptText,
		Inputs:         req.Text,
		EmoText:        req.EmoText,
		UseEmoText:     req.UseEmoText,
	})
	if err != nil {
		return batch.SynthesisResult{}, err
	}
	return batch.SynthesisResult{Filename: resp.Filename}, nil
}
