package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
)

func TestAssistService_Ingest(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())
	st.fetcher.Add("https://bank.example/q3.txt", "text/plain", "Third quarter net interest margin widened to 2.1 percent.")
	ctx := context.Background()

	require.NoError(t, st.assist.Ingest(ctx, []string{"https://bank.example/q3.txt"}))

	n, err := st.store.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	results, err := st.assist.Retrieve(ctx, "net interest margin", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.Content, "net interest margin")
	assert.Equal(t, "https://bank.example/q3.txt", results[0].Chunk.Metadata[domain.MetaSource])
}

func TestAssistService_Ingest_EmptyListIsNoop(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())

	require.NoError(t, st.assist.Ingest(context.Background(), []string{}))

	assert.Empty(t, st.fetcher.Fetched())
	assert.Equal(t, 0, st.index.Batches())
	assert.Equal(t, 0, st.embedder.Calls())
}

func TestAssistService_Ingest_NilList(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())

	err := st.assist.Ingest(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestAssistService_Ingest_OneBadURLCommitsNothing(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())
	st.fetcher.Add("https://bank.example/a.txt", "text/plain", "Alpha report text.")
	st.fetcher.Add("https://bank.example/c.txt", "text/plain", "Gamma report text.")

	err := st.assist.Ingest(context.Background(), []string{
		"https://bank.example/a.txt",
		"https://unreachable.invalid/b.txt",
		"https://bank.example/c.txt",
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindFetch, domain.KindOf(err))
	assert.Empty(t, st.index.Chunks())
	assert.Equal(t, 0, st.index.Batches())
}

func TestAssistService_Ingest_LongDocumentSplits(t *testing.T) {
	st := newTestStack(postprocessors.TokenChunkConfig{ChunkSize: 20, MinChunkSizeChars: 10})
	content := strings.Repeat("Loan impairments fell sharply in the retail segment. ", 10)
	st.fetcher.Add("https://bank.example/long.txt", "text/plain", content)

	require.NoError(t, st.assist.Ingest(context.Background(), []string{"https://bank.example/long.txt"}))

	chunks := st.index.Chunks()
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, 1, st.index.Batches())
}

func TestAssistService_GetAnswer(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())
	st.fetcher.Add("https://bank.example/doc.txt", "text/plain", "The main topic is capital adequacy.")
	ctx := context.Background()
	require.NoError(t, st.assist.Ingest(ctx, []string{"https://bank.example/doc.txt"}))

	text, err := st.assist.GetAnswer(ctx, "What is the main topic?")

	require.NoError(t, err)
	assert.Equal(t, "The answer.", text)
	assert.Contains(t, st.llm.LastPrompt(), "capital adequacy")
}

func TestAssistService_GetAnswer_UnrelatedQuestionStillAnswers(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())

	text, err := st.assist.GetAnswer(context.Background(), "What is the weather?")

	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestAssistService_Retrieve_BlankKeyword(t *testing.T) {
	st := newTestStack(postprocessors.DefaultTokenChunkConfig())

	_, err := st.assist.Retrieve(context.Background(), "  ", domain.SearchOptions{})

	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}
