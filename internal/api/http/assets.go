package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vertechie/vertechie-learn/internal/rbac"
	"github.com/vertechie/vertechie-learn/internal/storage"
)

// MountAssets wires authoring asset upload and serving. Uploads are keyed
// per tutorial so deleting a tutorial's media later is a prefix walk.
// Writes need authoring rights; reads only need lesson access since blocks
// embed these URLs in published content.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/{tutorialID}  multipart file=
	r.With(rbac.Require("assets:write")).Post("/{tutorialID}", func(w http.ResponseWriter, r *http.Request) {
		tutorialID := chi.URLParam(r, "tutorialID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		key := "tutorials/" + tutorialID + "/" + uuid.NewString() + ext
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		url, _ := bs.PublicURL(key)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key, "url": url})
	})

	// GET /assets/*  serves the blob at whatever follows the prefix
	r.With(rbac.Require("lesson:view")).Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
