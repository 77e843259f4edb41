package validation

// Document describes the uploaded file as declared by the client.
type Document struct {
	SourceType string `json:"sourceType"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
}

// Storage locates the uploaded object.
type Storage struct {
	Provider string `json:"provider"`
	Bucket   string `json:"bucket"`
	Path     string `json:"path"`
}

// Integrity carries the digest of the stored bytes.
type Integrity struct {
	SHA256 string `json:"sha256"`
}

// Payload is the analysis request. The base shape leaves Integrity nil; the
// full shape sent to the backend always carries it.
type Payload struct {
	RequestID   string     `json:"requestId"`
	ExtractMode string     `json:"extractMode"`
	Document    Document   `json:"document"`
	Storage     Storage    `json:"storage"`
	Integrity   *Integrity `json:"integrity,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Payload) Clone() *Payload {
	c := *p
	if p.Integrity != nil {
		in := *p.Integrity
		c.Integrity = &in
	}
	return &c
}

// CleanupRequest asks for best-effort removal of a server-written object.
type CleanupRequest struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

// UploadRequest asks for an upload credential.
type UploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}
