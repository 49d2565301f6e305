package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// Upload size cap for CSV imports.
const importMaxBytes = 5 << 20

// handleImport serves the upload form on GET and runs the batch on POST.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderImportForm(w, r)
	case http.MethodPost:
		s.runImport(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderImportForm(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "import.html", nil); err != nil {
		slog.ErrorContext(r.Context(), "Import template execution failed", "error", err, "template", "import.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	body, err := importBody(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	defer body.Close()

	res, err := s.importer.Import(r.Context(), io.LimitReader(body, importMaxBytes))
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		InternalServerError("Import failed").Write(w)
		return
	}

	// Imported rows can land in any month.
	if res.Imported > 0 {
		s.purgeCaches()
	}

	slog.InfoContext(r.Context(), "Import completed",
		"succeeded", res.Imported,
		"failed", res.Failed)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}

	if s.templates == nil {
		NewHTMXResponse().
			TriggerImportCompleted(res.Imported, res.Failed).
			BodyHTML(fmt.Sprintf(`<div class="success">Imported %d rows, %d failed</div>`, res.Imported, res.Failed)).
			Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	NewHTMXResponse().
		TriggerImportCompleted(res.Imported, res.Failed).
		Write(w)
	if err := s.templates.ExecuteTemplate(w, "import_result.html", res); err != nil {
		slog.ErrorContext(r.Context(), "Import result template execution failed", "error", err, "template", "import_result.html")
	}
}

// handleAPIImport runs the same batch as POST /import but always answers
// with the JSON result shape.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	body, err := importBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer body.Close()

	res, err := s.importer.Import(r.Context(), io.LimitReader(body, importMaxBytes))
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "import failed"})
		return
	}

	if res.Imported > 0 {
		s.purgeCaches()
	}

	slog.InfoContext(r.Context(), "Import completed",
		"succeeded", res.Imported,
		"failed", res.Failed)

	writeJSON(w, http.StatusOK, res)
}

// importBody returns the CSV stream from a multipart upload (field "file")
// or, for API clients, from a raw text/csv request body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(importMaxBytes); err != nil {
			return nil, fmt.Errorf("invalid upload: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file field: %w", err)
		}
		return file, nil
	}

	if mediaType == "text/csv" || mediaType == "text/plain" {
		return r.Body, nil
	}

	return nil, fmt.Errorf("unsupported content type %q", ct)
}

// wantsJSON reports whether the client asked for a JSON result.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
