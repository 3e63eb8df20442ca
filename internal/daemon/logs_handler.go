package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"studio/internal/api"
	"studio/internal/logs"
	"studio/internal/services"
)

const (
	defaultLogLines = 200
	maxLogLines     = 2000
	maxFollowWait   = 30 * time.Second
)

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	opts, err := parseLogQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := logs.Tail(r.Context(), s.daemon.cfg.CurrentLogPath(), opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, r, services.Wrap(services.ErrPersistence, "daemon", "read log", "Unable to read daemon log", err))
		return
	}
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Success: true, Lines: lines, Offset: result.Offset})
}

func parseLogQuery(r *http.Request) (logs.TailOptions, error) {
	q := r.URL.Query()
	opts := logs.TailOptions{Offset: -1, Limit: defaultLogLines}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, services.Wrap(services.ErrValidation, "daemon", "parse offset", "offset must be an integer", err)
		}
		opts.Offset = offset
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, services.Wrap(services.ErrValidation, "daemon", "parse limit", "limit must be a non-negative integer", err)
		}
		opts.Limit = min(limit, maxLogLines)
	}
	if q.Get("follow") == "1" {
		opts.Follow = true
		opts.Wait = maxFollowWait
		if raw := q.Get("wait"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs < 0 {
				return opts, services.Wrap(services.ErrValidation, "daemon", "parse wait", "wait must be a non-negative number of seconds", err)
			}
			opts.Wait = min(time.Duration(secs)*time.Second, maxFollowWait)
		}
	}
	return opts, nil
}
