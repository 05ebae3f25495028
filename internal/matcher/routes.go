package matcher

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the match-keywords endpoint backed by m.
func RegisterRoutes(r chi.Router, m Matcher) {
	r.Post("/api/issues/match-keywords", handleMatch(m))
}

func handleMatch(m Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IssueDetails == nil {
			writeError(w, http.StatusBadRequest, ErrNoIssue.Error())
			return
		}

		result, err := m.Match(r.Context(), req)
		if err != nil {
			slog.Error("match failed", "repo", req.Owner+"/"+req.Repo, "error", err)
			status := http.StatusInternalServerError
			if errors.Is(err, ErrNoFiles) {
				status = http.StatusUnprocessableEntity
			}
			writeError(w, status, "Error analyzing issue: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
