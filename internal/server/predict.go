package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goliatone/go-predictform/pkg/knn"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

const (
	msgModelUnavailable = "Modelo de previsão não está disponível. Contate o administrador."
	msgFormat           = "Erro no formato dos dados: %s"
	msgNotObject        = "Formato de dados inválido. Esperado um objeto JSON."
	msgMissingFeature   = "Dado ausente no formulário: '%s'. Verifique o preenchimento."
	msgInternal         = "Ocorreu um erro interno ao processar a previsão."
)

// handlePredict answers POST /predict with the estimated scores or an
// {"error": ...} payload.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.model.Ready() {
		s.logger.Error().Msg("prediction requested without a loaded model")
		respondError(w, http.StatusInternalServerError, msgModelUnavailable)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, formatMessage(err))
		return
	}

	var input model.FormInput
	if err := input.UnmarshalJSON(raw); err != nil {
		s.logger.Debug().Err(err).Msg("rejected prediction payload")
		respondError(w, http.StatusBadRequest, formatMessage(err))
		return
	}

	result, serverErr := s.estimate(r.Context(), input)
	if serverErr != nil {
		respondError(w, serverErr.StatusCode, serverErr.Message(msgInternal))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// estimate runs the model and maps failures to the endpoint's status codes
// and messages.
func (s *Server) estimate(ctx context.Context, input model.FormInput) (model.PredictionResult, *predict.ServerError) {
	result, err := s.model.Predict(ctx, input)
	if err == nil {
		return result, nil
	}

	var missing *knn.MissingFeatureError
	switch {
	case errors.Is(err, knn.ErrModelNotLoaded):
		return nil, serverError(http.StatusInternalServerError, msgModelUnavailable)
	case errors.As(err, &missing):
		s.logger.Debug().Str("feature", missing.Name).Msg("prediction input missing feature")
		return nil, serverError(http.StatusBadRequest, fmt.Sprintf(msgMissingFeature, missing.Name))
	default:
		s.logger.Error().Err(err).Msg("prediction failed")
		return nil, serverError(http.StatusInternalServerError, msgInternal)
	}
}

// endpointPredictor serves page submissions without a network hop. Errors
// carry the same status and message POST /predict would answer with.
type endpointPredictor struct {
	server *Server
}

func (p endpointPredictor) Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error) {
	result, serverErr := p.server.estimate(ctx, input)
	if serverErr != nil {
		return nil, serverErr
	}
	return result, nil
}

func serverError(status int, message string) *predict.ServerError {
	return &predict.ServerError{StatusCode: status, Payload: model.NewErrorPayload(message)}
}

func formatMessage(err error) string {
	if errors.Is(err, model.ErrNotObject) {
		return fmt.Sprintf(msgFormat, msgNotObject)
	}
	return fmt.Sprintf(msgFormat, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, model.NewErrorPayload(message))
}
