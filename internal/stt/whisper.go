package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// whisperEngine talks to a whisper.cpp server instance over HTTP. The server
// accepts a WAV upload on /inference and returns the transcription as JSON.
type whisperConfig struct {
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
}

type whisperEngine struct {
	baseURL  string
	language string
}

type whisperResponse struct {
	Text string `json:"text"`
}

func (e *whisperEngine) Name() string {
	return "whisper"
}

func (e *whisperEngine) Available() bool {
	return e.baseURL != ""
}

func (e *whisperEngine) Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	if e.baseURL == "" {
		return "", nil
	}
	endpoint := strings.TrimRight(e.baseURL, "/") + "/inference"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if err := writeWAV(part, audio, sampleRate); err != nil {
		return "", err
	}
	if e.language != "" {
		if err := writer.WriteField("language", e.language); err != nil {
			return "", err
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("whisper request failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// writeWAV wraps raw 16-bit mono PCM into a minimal WAV container.
func writeWAV(w io.Writer, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	dataLen := uint32(len(pcm))
	byteRate := uint32(sampleRate * 2)

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+dataLen))
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&header, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&header, binary.LittleEndian, byteRate)
	binary.Write(&header, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&header, binary.LittleEndian, uint16(16)) // bits per sample
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, dataLen)

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

func createWhisperEngine(args interface{}) (Engine, error) {
	cfg := &whisperConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &whisperEngine{
		baseURL:  strings.TrimSpace(cfg.BaseURL),
		language: strings.TrimSpace(cfg.Language),
	}, nil
}

func init() {
	Register("whisper", createWhisperEngine)
}
