package facts

// ChunkText splits text into fixed-size chunks with overlap so quotes that
// straddle a boundary still appear whole in at least one chunk. Text at or
// under the chunk size comes back as a single chunk.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 12000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 500
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
