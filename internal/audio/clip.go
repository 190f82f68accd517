package audio

// MP3ContentType is the MIME type of encoded answers.
const MP3ContentType = "audio/mpeg"

// DefaultClipFilename names uploads that have no better name.
const DefaultClipFilename = "recording.mp3"

// Clip is one recorded answer ready for upload.
type Clip struct {
	Data        []byte
	Filename    string
	ContentType string
	// PCMBytes is the raw capture size before encoding.
	PCMBytes int64
}

// FilenameOrDefault returns Filename, or DefaultClipFilename when unset.
func (c Clip) FilenameOrDefault() string {
	if c.Filename == "" {
		return DefaultClipFilename
	}

	return c.Filename
}

// ContentTypeOrDefault returns ContentType, or the generic binary type.
func (c Clip) ContentTypeOrDefault() string {
	if c.ContentType == "" {
		return "application/octet-stream"
	}

	return c.ContentType
}
