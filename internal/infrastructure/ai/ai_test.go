package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"puro":            `{"items":[]}`,
		"markdown":        "```json\n{\"items\":[]}\n```",
		"texto alrededor": "Claro, aquí está: {\"items\":[]} ¡listo!",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, `{"items":[]}`, extractJSON(in))
		})
	}
	assert.Empty(t, extractJSON("sin json"))
}

func TestAnthropicService_ExtractLineItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "document", req.Messages[0].Content[0].Type)
		assert.Equal(t, "application/pdf", req.Messages[0].Content[0].Source.MediaType)

		text := "```json\n{\"items\":[{\"name\":\"Arroz\",\"identifier\":null,\"quantity\":12,\"unitPrice\":2.5}]}\n```"
		body, err := json.Marshal(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
		require.NoError(t, err)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	svc := NewAnthropicService("test-key", "claude-test").WithEndpoint(srv.URL)
	items, err := svc.ExtractLineItems(context.Background(), "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Name)
	assert.Equal(t, "Arroz", *items[0].Name)
	assert.Nil(t, items[0].Identifier)
	assert.Equal(t, 12.0, *items[0].Quantity)
}

func TestAnthropicService_ErrorDeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	svc := NewAnthropicService("bad", "claude-test").WithEndpoint(srv.URL)
	_, err := svc.ExtractLineItems(context.Background(), "image/png", []byte{0x89})
	assert.ErrorContains(t, err, "authentication_error")
}

func TestAnthropicService_Validaciones(t *testing.T) {
	_, err := NewAnthropicService("", "m").ExtractLineItems(context.Background(), "image/png", nil)
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")

	_, err = NewAnthropicService("k", "m").ExtractLineItems(context.Background(), "text/plain", nil)
	assert.ErrorContains(t, err, "no soportado")
}

func TestGeminiService_ExtractLineItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Contents[0].Parts[0].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[0].InlineData.MimeType)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"items\":[{\"name\":\"Sal\",\"identifier\":\"SAL-1\",\"quantity\":3,\"unitPrice\":null}]}"}]}}]}`))
	}))
	defer srv.Close()

	svc := NewGeminiService("g-key", "gemini-test").WithBaseURL(srv.URL)
	items, err := svc.ExtractLineItems(context.Background(), "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SAL-1", *items[0].Identifier)
	assert.Nil(t, items[0].UnitPrice)
}
