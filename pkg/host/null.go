package host

import "fmt"

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// NullRenderer discards everything; RenderOffscreen returns an empty
// buffer of the requested size.
type NullRenderer struct{}

func (NullRenderer) RegisterShape(id int, data []byte)                 {}
func (NullRenderer) RegisterBitmap(id, width, height int, rgba []byte) {}
func (NullRenderer) UpdateTexture(id int, rgba []byte)                 {}
func (NullRenderer) RenderOffscreen(id, width, height int) []byte {
	return make([]byte, width*height*4)
}

// NullAudio plays nothing; handles are still unique so stop calls can be
// matched up.
type NullAudio struct {
	nextHandle int
}

func (a *NullAudio) RegisterSound(id int, data []byte) {}
func (a *NullAudio) StartSound(id, loops int) int {
	a.nextHandle++
	return a.nextHandle
}
func (a *NullAudio) StopSound(handle int)           {}
func (a *NullAudio) SetGlobalVolume(volume float64) {}
func (a *NullAudio) StopAll()                       {}

// NullUI accepts everything and remembers the clipboard, which is enough
// for scripts that copy then paste.
type NullUI struct {
	clipboard string
	cursor    string
}

func (u *NullUI) SetMouseCursor(cursor string)      { u.cursor = cursor }
func (u *NullUI) SetFullscreen(enabled bool) error  { return nil }
func (u *NullUI) SetClipboard(text string)          { u.clipboard = text }
func (u *NullUI) Clipboard() string                 { return u.clipboard }
func (u *NullUI) ShowVirtualKeyboard(visible bool)  {}
func (u *NullUI) Gamepads() []string                { return nil }

// MemoryStorage keeps shared objects in a map; the test and headless
// default.
type MemoryStorage struct {
	blobs map[string][]byte
}

// NewMemoryStorage creates an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func storageKey(origin, name string) string { return origin + "\x00" + name }

func (s *MemoryStorage) Load(origin, name string) ([]byte, bool, error) {
	blob, ok := s.blobs[storageKey(origin, name)]
	return blob, ok, nil
}

func (s *MemoryStorage) Save(origin, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[storageKey(origin, name)] = cp
	return nil
}

func (s *MemoryStorage) Delete(origin, name string) error {
	delete(s.blobs, storageKey(origin, name))
	return nil
}
