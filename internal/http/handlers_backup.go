package http

import (
	"net/http"

	"contas/internal/core"
)

func (s *Server) handleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	dump, err := s.backups.DumpAll(r.Context())
	if err != nil {
		respondError(w, r, err, "failed to export backup")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="finance-backup.json"`)
	writeJSON(w, http.StatusOK, dump)
}

// handleRestoreBackup replaces the whole database with the posted snapshot.
// The wipe and the inserts are one atomic unit.
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var b core.Backup
	if err := decodeJSONLimit(w, r, &b, maxBackupBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup payload", err.Error())
		return
	}
	if err := s.backups.RestoreAll(r.Context(), b); err != nil {
		respondError(w, r, err, "failed to restore backup")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) handleWipeBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.backups.WipeAll(r.Context()); err != nil {
		respondError(w, r, err, "failed to wipe data")
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}
