package gemini

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/mailgenie/gmail"
)

func TestBuildPromptPrefersPlainText(t *testing.T) {
	prompt, err := BuildPrompt(&gmail.MessageDetail{
		BodyText: "Please review the attached report.",
		BodyHTML: "<p>ignored</p>",
		Snippet:  "ignored too",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Please review the attached report.")
	assert.Contains(t, prompt, "professional email assistant")
	assert.NotContains(t, prompt, "ignored")
}

func TestBuildPromptFallsBackToSnippet(t *testing.T) {
	prompt, err := BuildPrompt(&gmail.MessageDetail{
		BodyHTML: "<p>html only</p>",
		Snippet:  "Quarterly numbers are in",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Quarterly numbers are in")
}

func TestBuildPromptEmptyMessage(t *testing.T) {
	_, err := BuildPrompt(&gmail.MessageDetail{BodyText: "   ", Snippet: "\n"})
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.ErrorIs(t, err, errNoContent)
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{
			name: "single candidate",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []genai.Part{genai.Text("  Hello!\n")}}},
				},
			},
			want: "Hello!",
		},
		{
			name: "multiple parts concatenated",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []genai.Part{genai.Text("Dear "), genai.Text("Alice,")}}},
				},
			},
			want: "Dear Alice,",
		},
		{
			name: "nil content skipped",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: nil}},
			},
			want: "",
		},
		{
			name: "no candidates",
			resp: &genai.GenerateContentResponse{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responseText(tt.resp))
		})
	}
}

func TestGenerationErrorWrapsCause(t *testing.T) {
	cause := errors.New("quota exhausted")
	err := &GenerationError{Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "quota exhausted")
}
