package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/corkboard/pkg/core"
)

const (
	maxNotesBody = 32 << 20
	maxMusicBody = 96 << 20
)

// musicUpload is the body of POST /api/music.
type musicUpload struct {
	Name string `json:"name" validate:"required,max=255"`
	Data string `json:"data" validate:"required,base64"`
}

type musicRef struct {
	Ref string `json:"ref"`
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAll(r.Context())
	if err != nil {
		s.logger.Error("failed to load notes", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Failed to load notes")
		return
	}
	writeJSON(w, http.StatusOK, core.LiteSnapshot(records))
}

func (s *Server) replaceNotes(w http.ResponseWriter, r *http.Request) {
	var records []core.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotesBody))
	if err := dec.Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if err := s.validate.Struct(rec); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("note %d: %v", i, err))
			return
		}
		if _, dup := seen[rec.ID]; dup {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("duplicate note id %q", rec.ID))
			return
		}
		seen[rec.ID] = struct{}{}
	}

	if err := s.store.ReplaceAll(r.Context(), core.LiteSnapshot(records)); err != nil {
		s.logger.Error("failed to save notes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save notes")
		return
	}
	s.logger.Info("notes replaced", "count", len(records))
	writeJSON(w, http.StatusOK, map[string]int{"count": len(records)})
}

func (s *Server) uploadMusic(w http.ResponseWriter, r *http.Request) {
	var req musicUpload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMusicBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audio encoding")
		return
	}

	name := safeName(req.Name)
	ref := uuid.NewString() + "-" + name
	if err := os.MkdirAll(s.musicDir, 0o755); err != nil {
		s.logger.Error("failed to create music dir", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store audio")
		return
	}
	if err := os.WriteFile(filepath.Join(s.musicDir, ref), data, 0o644); err != nil {
		s.logger.Error("failed to store audio", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store audio")
		return
	}
	s.logger.Info("audio stored", "ref", ref, "bytes", len(data))
	writeJSON(w, http.StatusCreated, musicRef{Ref: ref})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// safeName keeps the base name of an uploaded file and drops characters
// that are awkward in file names.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "track"
	}
	return name
}

