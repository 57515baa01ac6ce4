package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/moderation"
)

type restrictCall struct {
	userID      int64
	permissions moderation.Permissions
	until       time.Time
}

type fakePlatform struct {
	mu sync.Mutex

	statuses map[int64]string
	users    map[int64]moderation.User
	admins   []moderation.Member

	replies   []moderation.Reply
	restricts []restrictCall
	bans      []time.Time
	calls     []string
	deleted   [][]int
	cleaned   chan int
	nextMsgID int

	failOp  string
	failErr error
	panicOp string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		statuses:  map[int64]string{},
		users:     map[int64]moderation.User{},
		cleaned:   make(chan int, 8),
		nextMsgID: 1000,
	}
}

func (p *fakePlatform) enter(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, op)
	if p.panicOp == op {
		panic(op + " exploded")
	}
	if p.failOp == op {
		return moderation.Remote(op, p.failErr)
	}
	return nil
}

func (p *fakePlatform) MemberStatus(_ context.Context, _ int64, userID int64) (string, error) {
	if err := p.enter("memberStatus"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if status, ok := p.statuses[userID]; ok {
		return status, nil
	}
	return moderation.StatusMember, nil
}

func (p *fakePlatform) Administrators(context.Context, int64) ([]moderation.Member, error) {
	if err := p.enter("administrators"); err != nil {
		return nil, err
	}
	return p.admins, nil
}

func (p *fakePlatform) UserByID(_ context.Context, userID int64) (*moderation.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[userID]; ok {
		return &u, nil
	}
	return nil, fmt.Errorf("no user %d", userID)
}

func (p *fakePlatform) UserByHandle(_ context.Context, handle string) (*moderation.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if strings.EqualFold(u.UserName, handle) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("no user @%s", handle)
}

func (p *fakePlatform) HistoryPage(_ context.Context, _ int64, beforeID int, limit int) ([]int, error) {
	if err := p.enter("history"); err != nil {
		return nil, err
	}
	var ids []int
	for id := beforeID - 1; id > 0 && len(ids) < limit; id-- {
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *fakePlatform) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	p.cleaned <- messageID
	return nil
}

func (p *fakePlatform) DeleteMessages(_ context.Context, _ int64, messageIDs []int) error {
	if err := p.enter("deleteMessages"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, append([]int(nil), messageIDs...))
	return nil
}

func (p *fakePlatform) Send(_ context.Context, reply moderation.Reply) (int, error) {
	if err := p.enter("send"); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply)
	p.nextMsgID++
	return p.nextMsgID, nil
}

func (p *fakePlatform) Pin(context.Context, int64, int) error { return p.enter("pin") }
func (p *fakePlatform) Unpin(context.Context, int64) error    { return p.enter("unpin") }

func (p *fakePlatform) Restrict(_ context.Context, _ int64, userID int64, permissions moderation.Permissions, until time.Time) error {
	if err := p.enter("restrict"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restricts = append(p.restricts, restrictCall{userID: userID, permissions: permissions, until: until})
	return nil
}

func (p *fakePlatform) Ban(_ context.Context, _ int64, _ int64, until time.Time) error {
	if err := p.enter("ban"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bans = append(p.bans, until)
	return nil
}

func (p *fakePlatform) Unban(context.Context, int64, int64) error   { return p.enter("unban") }
func (p *fakePlatform) Promote(context.Context, int64, int64) error { return p.enter("promote") }
func (p *fakePlatform) Demote(context.Context, int64, int64) error  { return p.enter("demote") }

func (p *fakePlatform) SetTitle(context.Context, int64, string) error {
	return p.enter("setTitle")
}

func (p *fakePlatform) SetDescription(context.Context, int64, string) error {
	return p.enter("setDescription")
}

func (p *fakePlatform) count(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, call := range p.calls {
		if call == op {
			n++
		}
	}
	return n
}

func (p *fakePlatform) lastReply() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return ""
	}
	return p.replies[len(p.replies)-1].Text
}

type fakeJournal struct {
	mu      sync.Mutex
	actions []*db.ModAction
}

func (j *fakeJournal) AddAction(_ context.Context, action *db.ModAction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.actions = append(j.actions, action)
	return nil
}

func (j *fakeJournal) RecentActions(_ context.Context, chatID int64, limit int) ([]*db.ModAction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var res []*db.ModAction
	for i := len(j.actions) - 1; i >= 0 && len(res) < limit; i-- {
		if j.actions[i].ChatID == chatID {
			res = append(res, j.actions[i])
		}
	}
	return res, nil
}

func (j *fakeJournal) PruneBefore(context.Context, time.Time) (int64, error) { return 0, nil }
func (j *fakeJournal) GetKV(context.Context, string) (string, error)       { return "", nil }
func (j *fakeJournal) SetKV(context.Context, string, string) error         { return nil }
func (j *fakeJournal) Close() error                                        { return nil }

func (j *fakeJournal) kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	kinds := make([]string, 0, len(j.actions))
	for _, a := range j.actions {
		kinds = append(kinds, a.Action)
	}
	return kinds
}

type fakeService struct {
	journal db.Journal
}

func (s *fakeService) GetBot() *api.BotAPI { return nil }

func (s *fakeService) GetJournal() db.Journal { return s.journal }

func (s *fakeService) GetLanguage(context.Context, int64, *api.User) string { return "en" }

type fakeTranslator struct {
	lang string
	err  error
}

func (t *fakeTranslator) Translate(_ context.Context, text, lang string) (string, error) {
	t.lang = lang
	if t.err != nil {
		return "", t.err
	}
	return strings.ToUpper(text), nil
}
