package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pbdna/pbdna_backend/config"
	"github.com/pbdna/pbdna_backend/models"
)

func newTestAgentService() *AgentService {
	return &AgentService{cfg: &config.Config{}}
}

func TestRun_VoiceAnalysisNeedsTranscriptOrAudio(t *testing.T) {
	s := newTestAgentService()

	_, err := s.run(context.Background(), &models.ContentJob{
		Kind: models.JobKindVoiceAnalysis,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transcript or audio")
}

func TestRun_UnknownKind(t *testing.T) {
	s := newTestAgentService()

	_, err := s.run(context.Background(), &models.ContentJob{Kind: "video_editing"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job kind")
}

func TestTranscribe_RejectsFailedAudioFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := newTestAgentService()
	_, err := s.transcribe(context.Background(), server.URL+"/recordings/missing.mp3")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "audio fetch returned status 404")
}

func TestTranscribe_RejectsBadURL(t *testing.T) {
	s := newTestAgentService()
	_, err := s.transcribe(context.Background(), "://not-a-url")
	assert.Error(t, err)
}
