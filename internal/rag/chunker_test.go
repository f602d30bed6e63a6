package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk_Paragraph(t *testing.T) {
	text := "first paragraph.\n\nsecond paragraph.\n\n\nthird."
	chunks := Chunk(text, ChunkOptions{Strategy: ChunkByParagraph})
	require.Equal(t, []string{"first paragraph.", "second paragraph.", "third."}, chunks)
}

func TestChunk_Sentence(t *testing.T) {
	text := "One. Two! Three?"
	chunks := Chunk(text, ChunkOptions{Strategy: ChunkBySentence})
	require.Equal(t, []string{"One.", "Two!", "Three?"}, chunks)
}

func TestChunk_FixedSize(t *testing.T) {
	text := "abcdefghij"
	chunks := Chunk(text, ChunkOptions{Strategy: ChunkFixedSize, Size: 4})
	require.Equal(t, []string{"abcd", "efgh", "ij"}, chunks)
}

func TestChunk_WholeFile(t *testing.T) {
	chunks := Chunk("  some content  ", ChunkOptions{Strategy: ChunkWholeFile})
	require.Equal(t, []string{"some content"}, chunks)
}

func TestChunk_EmptyInputYieldsNoChunks(t *testing.T) {
	require.Empty(t, Chunk("   \n\n  ", ChunkOptions{Strategy: ChunkByParagraph}))
}
