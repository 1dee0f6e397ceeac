package domain

const (
	// MaxBatches is the number of upload batches accepted per report.
	MaxBatches = 2
	// BatchSize is the maximum number of images per batch.
	BatchSize = 4
)

// Image is a raster image supplied as a decodable PNG or JPEG byte buffer.
type Image struct {
	Name string
	Data []byte
}

// ImageBatch is one ordered group of uploaded images, capped at BatchSize.
type ImageBatch []Image
