package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/Brownie44l1/fer-gallery/internal/labels"
)

var ErrInputSize = errors.New("input size does not match model")

type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	logger       *zap.Logger
}

// LoadMetadata reads the JSON file describing the model's tensors and classes.
func LoadMetadata(path string) (Metadata, error) {
	var metadata Metadata

	metaFile, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(metadata.InputShape) == 0 || len(metadata.OutputShape) == 0 {
		return metadata, fmt.Errorf("metadata %s: input and output shapes are required", path)
	}
	return metadata, nil
}

// CheckClasses compares the model's class list with the label table and
// returns a description of the first disagreement, or "" when they match.
func (m Metadata) CheckClasses() string {
	table := labels.ClassNames()
	if len(m.Classes) != len(table) {
		return fmt.Sprintf("model has %d classes, label table has %d", len(m.Classes), len(table))
	}
	for i, c := range m.Classes {
		if !strings.EqualFold(c, table[i]) {
			return fmt.Sprintf("class %d is %q in the model and %q in the label table", i, c, table[i])
		}
	}
	return ""
}

func NewServer(modelPath, metadataPath string, logger *zap.Logger) (*Server, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	if msg := metadata.CheckClasses(); msg != "" {
		logger.Warn("Model classes disagree with label table", zap.String("detail", msg))
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputShape := ort.NewShape(metadata.InputShape...)
	outputShape := ort.NewShape(metadata.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("Model loaded",
		zap.String("model", modelPath),
		zap.Int64s("input_shape", metadata.InputShape),
		zap.Strings("classes", metadata.Classes))

	return &Server{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		logger:       logger,
	}, nil
}

// run copies one sample into the input tensor and returns a copy of the
// class scores. Callers must hold s.mu.
func (s *Server) run(inputData []float32) ([]float32, error) {
	if want := s.Metadata.InputSize(); len(inputData) != want {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInputSize, want, len(inputData))
	}
	copy(s.inputTensor.GetData(), inputData)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := s.outputTensor.GetData()
	n := len(s.Metadata.Classes)
	if n > len(outputData) {
		n = len(outputData)
	}
	scores := make([]float32, n)
	copy(scores, outputData[:n])
	return scores, nil
}

func (s *Server) Predict(inputData []float32) (*PredictionResponse, error) {
	s.mu.Lock()
	scores, err := s.run(inputData)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("model produced no class scores")
	}

	maxIdx := 0
	maxVal := scores[0]
	predictions := make(map[string]float32, len(scores))

	for i, val := range scores {
		predictions[s.Metadata.Classes[i]] = val
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	return &PredictionResponse{
		Class:       s.Metadata.Classes[maxIdx],
		Confidence:  maxVal,
		Predictions: predictions,
	}, nil
}

// PredictImages runs every image through the model in order. Inference is
// serialised because the session shares one pair of tensors.
func (s *Server) PredictImages(ctx context.Context, images []image.Image) ([]labels.Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vectors := make([]labels.Vector, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scores, err := s.run(Preprocess(img, s.Metadata.ImageSize))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}

		v := make(labels.Vector, len(scores))
		for j, score := range scores {
			v[j] = float64(score)
		}
		vectors = append(vectors, v)
	}

	s.logger.Debug("Predicted batch", zap.Int("images", len(images)))
	return vectors, nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
