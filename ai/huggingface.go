package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/korjavin/docquizbot/logger"
)

const huggingFaceAPIURL = "https://api-inference.huggingface.co/models/"

// HuggingFaceClient calls a text2text-generation model on the Hugging Face
// inference API.
type HuggingFaceClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewHuggingFaceClient(apiKey, model string, log *logger.Logger) *HuggingFaceClient {
	return &HuggingFaceClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: huggingFaceAPIURL,
		http:    &http.Client{},
		log:     log.With("component", "HuggingFaceClient", "model", model),
	}
}

type hfParameters struct {
	MaxLength          int `json:"max_length"`
	NumReturnSequences int `json:"num_return_sequences"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Infer returns the first generated sequence for prompt.
func (c *HuggingFaceClient) Infer(ctx context.Context, prompt string) (string, error) {
	reqBody := hfRequest{
		Inputs:     prompt,
		Parameters: hfParameters{MaxLength: 128, NumReturnSequences: 1},
		Options:    hfOptions{WaitForModel: true},
	}

	var out []hfGeneration
	if err := postJSON(ctx, c.http, c.log, c.baseURL+c.model, c.apiKey, reqBody, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.New("no generations in API response")
	}
	return strings.TrimSpace(out[0].GeneratedText), nil
}
