package blobupload

// Block is a test-visible view of the computed block layout.
type Block struct {
	Index     int
	EncodedID string
	Start     int
	End       int
}

// SplitBlocks exposes the block layout computation for tests.
func SplitBlocks(size int, fileName string) []Block {
	blocks := splitBlocks(size, fileName)
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, Block{Index: b.index, EncodedID: b.encodedID, Start: b.start, End: b.end})
	}
	return out
}
