package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/Brownie44l1/fer-gallery/internal/labels"
	"github.com/Brownie44l1/fer-gallery/internal/model"
	"github.com/Brownie44l1/fer-gallery/internal/render"
)

const maxUpload = 10 << 20

// Model is what the handlers need from the inference server.
type Model interface {
	model.Predictor
	Predict(inputData []float32) (*model.PredictionResponse, error)
}

type Handler struct {
	model    Model
	metadata model.Metadata
	logger   *zap.Logger
}

func NewHandler(m Model, metadata model.Metadata, logger *zap.Logger) *Handler {
	return &Handler{
		model:    m,
		metadata: metadata,
		logger:   logger,
	}
}

// Routes registers every endpoint on mux behind the CORS middleware.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", EnableCORS(h.Health))
	mux.HandleFunc("/predict", EnableCORS(h.Predict))
	mux.HandleFunc("/predict/image", EnableCORS(h.PredictFromImage))
	mux.HandleFunc("/titles", EnableCORS(h.Titles))
	mux.HandleFunc("/gallery", EnableCORS(h.Gallery))
}

func EnableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "Invalid JSON", http.StatusBadRequest)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if expectedSize := h.metadata.InputSize(); len(req.Image) != expectedSize {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	result, err := h.model.Predict(req.Image)
	if err != nil {
		h.logger.Error("Prediction failed", zap.Error(err))
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func decodeUpload(fh *multipart.FileHeader) (image.Image, string, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()
	return image.Decode(file)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}

	img, format, err := decodeUpload(files[0])
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	h.logger.Debug("Received image",
		zap.String("file", files[0].Filename),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	result, err := h.model.Predict(model.Preprocess(img, h.metadata.ImageSize))
	if err != nil {
		h.logger.Error("Prediction failed", zap.Error(err))
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type TitlesRequest struct {
	Labels      []labels.Vector `json:"labels"`
	Predictions []labels.Vector `json:"predictions"`
}

type TitlesResponse struct {
	Titles []string       `json:"titles"`
	Colors []labels.Color `json:"colors"`
}

type errorResponse struct {
	Error string `json:"error"`
	Index *int   `json:"index,omitempty"`
}

// Titles resolves display titles for labels and predictions posted as JSON.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TitlesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpload)).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}

	titles, colors, err := labels.ResolveBatchTitles(req.Labels, req.Predictions)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TitlesResponse{Titles: titles, Colors: colors})
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	var se *labels.SampleError
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: se.Err.Error(), Index: &se.Index})
	case errors.Is(err, labels.ErrBatchMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Title resolution failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "title resolution failed"})
	}
}

// Gallery predicts up to nine uploaded images, each paired with a "label"
// class name, and answers with a PNG grid of the verdicts.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["image"]
	names := r.MultipartForm.Value["label"]
	if len(files) == 0 || len(files) > render.GridSize {
		http.Error(w, fmt.Sprintf("Provide 1 to %d 'image' files", render.GridSize), http.StatusBadRequest)
		return
	}
	if len(names) != len(files) {
		http.Error(w, fmt.Sprintf("Expected %d 'label' values, got %d", len(files), len(names)), http.StatusBadRequest)
		return
	}

	images := make([]image.Image, len(files))
	truth := make([]labels.Vector, len(files))
	for i, fh := range files {
		img, _, err := decodeUpload(fh)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid image %q. Supported: JPEG, PNG", fh.Filename), http.StatusBadRequest)
			return
		}
		class, ok := labels.ClassIndex(names[i])
		if !ok {
			http.Error(w, fmt.Sprintf("Unknown class %q", names[i]), http.StatusBadRequest)
			return
		}
		images[i] = img
		truth[i], _ = labels.OneHot(class)
	}

	preds, err := h.model.PredictImages(r.Context(), images)
	if err != nil {
		h.logger.Error("Prediction failed", zap.Error(err))
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	titles, colors, err := labels.ResolveBatchTitles(truth, preds)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	fig := render.NewFigure()
	var buf bytes.Buffer
	err = render.DisplayPredictions(fig, images, titles, colors)
	if err == nil {
		err = fig.Show(&buf, render.FormatPNG)
	}
	if err != nil {
		h.logger.Error("Rendering failed", zap.Error(err))
		http.Error(w, "Rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
