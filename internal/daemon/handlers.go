package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photoreport/internal/imageuri"
	"photoreport/internal/ingest"
	"photoreport/internal/printview"
	"photoreport/internal/report"
	"photoreport/internal/session"
)

const (
	maxUploadBytes  = 512 << 20
	multipartMemory = 32 << 20
)

type photoView struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Type    string `json:"type,omitempty"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
	Size    string `json:"size"`
}

type reportView struct {
	report.Metadata
	Key    string      `json:"key"`
	Photos []photoView `json:"photos"`
}

type failureView struct {
	Name   string `json:"name"`
	Error  string `json:"error"`
	Notice string `json:"notice"`
}

type uploadView struct {
	Added   []photoView   `json:"added"`
	Failed  []failureView `json:"failed"`
	Skipped []string      `json:"skipped"`
}

// metadataPatch updates only the fields present in the request body.
type metadataPatch struct {
	ClientName   *string `json:"clientName"`
	PropertyName *string `json:"propertyName"`
	ReportDate   *string `json:"reportDate"`
	PreparedBy   *string `json:"preparedBy"`
	Summary      *string `json:"summary"`
}

func (p metadataPatch) apply(meta *report.Metadata) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&meta.ClientName, p.ClientName)
	set(&meta.PropertyName, p.PropertyName)
	set(&meta.ReportDate, p.ReportDate)
	set(&meta.PreparedBy, p.PreparedBy)
	set(&meta.Summary, p.Summary)
}

func toPhotoView(card report.PhotoCard, index int) photoView {
	mediaType, _ := imageuri.MediaType(card.PreviewImage)
	return photoView{
		Type:    mediaType,
		ID:      card.ID.String(),
		Index:   index,
		Image:   card.PreviewImage,
		Caption: card.Caption,
		Size:    card.SizeLabel,
	}
}

func (s *apiServer) currentReport() reportView {
	snapshot := s.ctrl.Snapshot()
	view := reportView{
		Metadata: snapshot.Metadata,
		Key:      s.ctrl.Key(),
		Photos:   make([]photoView, 0, len(snapshot.Photos)),
	}
	for i, card := range snapshot.Photos {
		view.Photos = append(view.Photos, toPhotoView(card, i))
	}
	return view
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{
		"status": "ok",
		"key":    s.ctrl.Key(),
		"photos": len(s.ctrl.Cards()),
	})
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.currentReport())
}

func (s *apiServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var patch metadataPatch
	if err := s.readJSON(w, r, &patch); err != nil {
		s.badRequest(w, err)
		return
	}
	s.ctrl.UpdateMetadata(patch.apply)
	s.writeJSON(w, http.StatusOK, s.currentReport())
}

func (s *apiServer) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Save(r.Context()); err != nil {
		s.failure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"notice": session.NoticeSaved, "key": s.ctrl.Key()})
}

func (s *apiServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Load(r.Context()); err != nil {
		s.failure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.currentReport())
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Clear()
	s.writeJSON(w, http.StatusOK, s.currentReport())
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, err := readUploads(w, r, "files")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if len(files) == 0 {
		s.errorResponse(w, http.StatusBadRequest, `no files in form field "files"`)
		return
	}

	outcomes := s.ctrl.Ingest(r.Context(), files)
	positions := make(map[uuid.UUID]int)
	for i, card := range s.ctrl.Cards() {
		positions[card.ID] = i
	}

	view := uploadView{Added: []photoView{}, Failed: []failureView{}, Skipped: []string{}}
	for _, outcome := range outcomes {
		switch {
		case outcome.Card != nil:
			index, ok := positions[outcome.Card.ID]
			if !ok {
				index = -1
			}
			view.Added = append(view.Added, toPhotoView(*outcome.Card, index))
		case errors.Is(outcome.Err, ingest.ErrNotAnImage):
			view.Skipped = append(view.Skipped, outcome.Input.Name)
		case outcome.Err != nil:
			view.Failed = append(view.Failed, failureView{
				Name:   outcome.Input.Name,
				Error:  outcome.Err.Error(),
				Notice: session.Notice(outcome.Err),
			})
		}
	}

	status := http.StatusOK
	if len(view.Added) > 0 {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, view)
}

func (s *apiServer) handleAddEmpty(w http.ResponseWriter, r *http.Request) {
	card := s.ctrl.AddCard()
	s.writeJSON(w, http.StatusCreated, toPhotoView(card, len(s.ctrl.Cards())-1))
}

func (s *apiServer) handleReplaceImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.cardID(w, r)
	if !ok {
		return
	}
	files, err := readUploads(w, r, "file")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if len(files) != 1 {
		s.errorResponse(w, http.StatusBadRequest, `expected exactly one file in form field "file"`)
		return
	}
	card, err := s.ctrl.ReplaceImage(r.Context(), id, files[0])
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPhotoView(card, s.indexOf(card.ID)))
}

func (s *apiServer) handleCaption(w http.ResponseWriter, r *http.Request) {
	id, ok := s.cardID(w, r)
	if !ok {
		return
	}
	var input struct {
		Caption string `json:"caption"`
	}
	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.ctrl.SetCaption(id, input.Caption); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.cardID(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.RemoveCard(id); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handlePrint(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	doc, err := s.ctrl.Print(r.Context(), printview.HTMLPrinter{W: &buf})
	if err != nil {
		s.failure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Photo-Count", strconv.Itoa(doc.EntryCount()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *apiServer) cardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid photo id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *apiServer) indexOf(id uuid.UUID) int {
	for i, card := range s.ctrl.Cards() {
		if card.ID == id {
			return i
		}
	}
	return -1
}

func readUploads(w http.ResponseWriter, r *http.Request, field string) ([]ingest.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("parse upload: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[field]
	files := make([]ingest.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
		}
		files = append(files, ingest.NewFile(header.Filename, header.Header.Get("Content-Type"), data))
	}
	return files, nil
}
