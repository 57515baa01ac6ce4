package moderation

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// NoteStore keeps named notes per chat. Names are case-sensitive and notes are never deleted.
type NoteStore struct {
	mu    sync.RWMutex
	rooms map[int64]map[string]string
}

func NewNoteStore() *NoteStore {
	return &NoteStore{rooms: make(map[int64]map[string]string)}
}

func (s *NoteStore) SetNote(chatID int64, name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, ok := s.rooms[chatID]
	if !ok {
		notes = make(map[string]string)
		s.rooms[chatID] = notes
	}
	notes[name] = text
}

func (s *NoteStore) Note(chatID int64, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.rooms[chatID][name]
	if !ok {
		return "", errors.Wrapf(ErrNoteNotFound, "note %q", name)
	}
	return text, nil
}

const (
	DefaultRules           = "📜 Group Rules:\n1. Be respectful\n2. No spam\n3. Follow admin instructions"
	DefaultWelcomeTemplate = "👋 Welcome {mention} to {title}!"

	mentionPlaceholder = "{mention}"
	titlePlaceholder   = "{title}"
)

// ConfigStore holds the rules text and the welcome template. Both are shared by every chat
// the process serves.
type ConfigStore struct {
	mu      sync.RWMutex
	rules   string
	welcome string
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		rules:   DefaultRules,
		welcome: DefaultWelcomeTemplate,
	}
}

func (s *ConfigStore) SetRules(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = text
}

func (s *ConfigStore) Rules() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

func (s *ConfigStore) SetWelcome(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcome = template
}

func (s *ConfigStore) Welcome() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcome
}

// RenderWelcome substitutes {mention} and {title} in one pass over the template.
// Substituted values are not scanned again, so a mention containing "{title}" stays as is.
func (s *ConfigStore) RenderWelcome(mention, title string) string {
	return renderTemplate(s.Welcome(), mention, title)
}

func renderTemplate(template, mention, title string) string {
	return strings.NewReplacer(
		mentionPlaceholder, mention,
		titlePlaceholder, title,
	).Replace(template)
}
