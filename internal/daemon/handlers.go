package daemon

import (
	"net/http"
	"strings"

	"studio/internal/api"
	"studio/internal/batch"
	"studio/internal/draft"
	"studio/internal/gateway"
	"studio/internal/invoker"
	"studio/internal/services"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	status := s.daemon.Status(r.Context())
	started := ""
	if !status.StartedAt.IsZero() {
		started = status.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Success: true,
		Data: api.DaemonStatus{
			Session:      status.Session,
			Running:      status.Running,
			PID:          pid(),
			Version:      Version,
			StartedAt:    started,
			RunningBatch: status.RunningBatch,
			ActiveTasks:  status.ActiveTasks,
			DatabasePath: status.DatabasePath,
			LockFilePath: status.LockFilePath,
			Preflight:    api.FromPreflight(status.Preflight),
		},
	})
}

func (s *apiServer) handleTasks(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	tasks, err := s.daemon.registry.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TasksResponse{
		Success: true,
		Session: s.daemon.session,
		Data:    api.FromTasks(tasks),
	})
}

func (s *apiServer) handleControls(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, api.ControlsResponse{Success: true, Data: s.daemon.controls.Snapshot()})
}

func (s *apiServer) handleInvokeImage(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req invoker.Request
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.daemon.invoker.Invoke(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.InvokeResponse{
		Success:  true,
		TaskID:   res.TaskID,
		FilePath: res.FilePath,
		FileSize: res.FileSize,
		DataURL:  res.PreviewDataURL,
		Message:  "图片生成成功: " + res.FilePath,
	})
}

func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap, err := s.daemon.CurrentBatch(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.BatchResponse{Success: true, Data: api.FromBatchSnapshot(snap)})
	case http.MethodPost:
		var req api.BatchStartRequest
		if !s.decode(w, r, &req) {
			return
		}
		snap, err := s.daemon.StartBatch(batch.Request{
			ProjectPath: strings.TrimSpace(req.ProjectPath),
			Credentials: batch.Credentials{
				APIKey:         req.APIKey,
				PromptAudioURL: req.PromptAudioURL,
				PromptText:     req.PromptText,
			},
			Input:         req.Input,
			AuxiliaryText: req.EmoText,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, api.BatchStartResponse{Success: true, RunID: snap.RunID, Total: len(snap.Items)})
	default:
		s.allow(w, r, http.MethodGet)
	}
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrTransport, "daemon", "test notification", message, err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Success: sent, Message: message})
}

func (s *apiServer) handleGenerateTTS(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.TTSRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.GenerateTTS(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleGenerateImageText(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.ImageRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.GenerateImage(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleGenerateImageReference(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.ImageRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.GenerateImageReference(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleGetImage(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	resp, err := s.daemon.gateway.GetImage(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.DraftRequest
	if !s.decode(w, r, &req) {
		return
	}
	snap, err := draft.Decode(req.DraftData)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "daemon", "save draft", "draftData must be a JSON object", err))
		return
	}
	if err := s.daemon.gateway.SaveDraft(r.Context(), req.ProjectPath, snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gateway.DraftResponse{Success: true, Message: "草稿已保存"})
}

func (s *apiServer) handleLoadDraft(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.DraftRequest
	if !s.decode(w, r, &req) {
		return
	}
	snap, err := s.daemon.gateway.LoadDraft(r.Context(), req.ProjectPath)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gateway.DraftResponse{Success: true, Data: &snap})
}

func (s *apiServer) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.DraftRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.daemon.gateway.ClearDraft(r.Context(), req.ProjectPath); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gateway.DraftResponse{Success: true, Message: "草稿已清除"})
}

func (s *apiServer) handleSaveCopywriting(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.CopywritingSaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.SaveCopywriting(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleGenerateCopywriting(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.CopywritingRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.daemon.gateway.GenerateCopywriting(r.Context(), req.VideoURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gateway.CopywritingResponse{Success: true, Data: &res})
}

func (s *apiServer) handleDefaultTTSConfig(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		Success bool                `json:"success"`
		Data    gateway.TTSDefaults `json:"data"`
	}{Success: true, Data: s.daemon.gateway.DefaultTTSConfig()})
}

func (s *apiServer) handleOpenFolder(kind gateway.FolderKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(w, r, http.MethodPost) {
			return
		}
		var req gateway.FolderRequest
		if !s.decode(w, r, &req) {
			return
		}
		resp, err := s.daemon.gateway.OpenFolder(r.Context(), kind, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *apiServer) handleFreeCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.FreeCreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.FreeCreate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleSaveFreeCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req gateway.SaveFreeCreateRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.daemon.gateway.SaveFreeCreate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleFreeCreateHistory(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	entries, err := s.daemon.gateway.History(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, gateway.HistoryResponse{Success: true, Data: entries})
}
