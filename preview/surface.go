package preview

// Surface is a locked-down, render-only presentation sink. It receives
// decrypted content for display and must never expose it as a
// downloadable resource handle. Clear is called on every session exit
// path and must drop all retained content.
type Surface interface {
	Render(content []byte, mimeType string, truncated bool) error
	Clear()
}
