package domain

import "sync"

// AudioTrack — извлечённая аудиодорожка видео.
// Транзиентный ресурс одного прогона слияния, освобождается вместе с кадрами.
type AudioTrack struct {
	Data       []byte
	SampleRate int
	Channels   int
	Duration   float64 // секунды
}

// Frame — один сэмплированный кадр видео
type Frame struct {
	TimestampMs int64
	Data        []byte
	MimeType    string
}

// FrameBatch владеет буферами сэмплированных кадров одного прогона слияния.
// Освобождение обязательно на любом пути выхода; повторный Release безопасен.
type FrameBatch struct {
	mu     sync.Mutex
	frames []Frame
}

func NewFrameBatch(frames []Frame) *FrameBatch {
	return &FrameBatch{frames: frames}
}

// Frames возвращает кадры батча. После Release возвращает nil.
func (b *FrameBatch) Frames() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Len возвращает количество кадров в батче
func (b *FrameBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Release освобождает буферы кадров. Идемпотентен.
func (b *FrameBatch) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.frames {
		b.frames[i].Data = nil
	}
	b.frames = nil
}

// Released сообщает, были ли буферы уже освобождены
func (b *FrameBatch) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames == nil
}
