package usecase

import (
	"encoding/json"
	"sync"
	"time"

	"yinlink/internal/domain"
)

// welcomeText seeds every new session's transcript.
const welcomeText = "Translation enabled"

// transcriptLog is the append-only, arrival-ordered transcript for one
// session. Entries are immutable once appended and are never reordered,
// merged, or deduplicated.
type transcriptLog struct {
	mu      sync.Mutex
	nextID  uint64
	entries []domain.TranscriptEntry
	dropped uint64
	now     func() time.Time
}

func newTranscriptLog(now func() time.Time) *transcriptLog {
	if now == nil {
		now = time.Now
	}
	log := &transcriptLog{now: now}
	log.append(domain.SpeakerSystem, welcomeText, "", domain.LanguageEnglish)
	return log
}

// Ingest decodes one side-channel payload into an entry. Payloads that
// are not transcript JSON are dropped without error: the side channel
// legitimately carries other traffic.
func (l *transcriptLog) Ingest(raw []byte) (domain.TranscriptEntry, bool) {
	var msg domain.TranscriptMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != domain.TranscriptMessageType {
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
		return domain.TranscriptEntry{}, false
	}

	// Defaults apply only when a field is absent; unrecognized values
	// pass through as the agent sent them.
	speaker := domain.Speaker(msg.Speaker)
	if speaker == "" {
		speaker = domain.SpeakerA
	}
	language := domain.Language(msg.Language)
	if language == "" {
		language = domain.LanguageEnglish
	}

	return l.append(speaker, msg.Original, msg.Translated, language), true
}

func (l *transcriptLog) append(speaker domain.Speaker, original string, translated string, language domain.Language) domain.TranscriptEntry {
	// System notices never carry a translation.
	if speaker == domain.SpeakerSystem {
		translated = ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	entry := domain.TranscriptEntry{
		ID:         l.nextID,
		Speaker:    speaker,
		Original:   original,
		Translated: translated,
		Language:   language,
		ReceivedAt: l.now(),
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a snapshot of the transcript in arrival order.
func (l *transcriptLog) Entries() []domain.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), l.entries...)
}

// Dropped reports how many side-channel payloads were ignored.
func (l *transcriptLog) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
