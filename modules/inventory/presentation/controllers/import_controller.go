package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/application"
)

const uploadField = "file"

type ImportController struct {
	importer      *services.ImportService
	maxUploadSize int64
	basePath      string
}

func NewImportController(app application.Application, maxUploadSize int64) application.Controller {
	return &ImportController{
		importer:      app.Service(services.ImportService{}).(*services.ImportService),
		maxUploadSize: maxUploadSize,
		basePath:      apiPrefix + "/import",
	}
}

func (c *ImportController) Key() string {
	return c.basePath
}

func (c *ImportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/preview", c.Preview).Methods(http.MethodPost)
	router.HandleFunc("/{runId}/apply", c.Apply).Methods(http.MethodPost)
}

// Preview accepts a multipart upload under "file" and returns the validated rows.
func (c *ImportController) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, map[string]string{
				"code":    "UPLOAD_TOO_LARGE",
				"message": "the file exceeds the upload limit",
			})
			return
		}
		writeBadRequest(w, r, "INVALID_UPLOAD", "expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeBadRequest(w, r, "INVALID_UPLOAD", "missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, spreadsheet.ErrUnreadableFile.WithMessage("%s: %v", header.Filename, err))
		return
	}

	preview, err := c.importer.Preview(r.Context(), spreadsheet.File{Name: header.Filename, Data: data})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

func (c *ImportController) Apply(w http.ResponseWriter, r *http.Request) {
	var opts services.ApplyOptions
	if r.ContentLength != 0 {
		var dto struct {
			CreateProjects bool `json:"createProjects"`
		}
		if !decodeJSON(w, r, &dto) {
			return
		}
		opts.CreateProjects = dto.CreateProjects
	}
	res, err := c.importer.ApplyRun(r.Context(), mux.Vars(r)["runId"], opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"result":  res,
		"summary": res.Summary(),
	})
}
