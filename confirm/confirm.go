package confirm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/leeineian/logbot/sys"
)

const (
	EmojiApprove = "👍"
	EmojiReject  = "👎"
)

// State of a prompt. Prompted is the only non-terminal state.
type State int

const (
	Prompted State = iota
	Confirmed
	Declined
	TimedOut
)

func (s State) String() string {
	switch s {
	case Prompted:
		return "prompted"
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	case TimedOut:
		return "timed out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Channel is where prompts and notices are posted.
type Channel interface {
	Send(ctx context.Context, content string) (snowflake.ID, error)
	React(ctx context.Context, messageID snowflake.ID, emoji string) error
}

// Request describes one yes/no question. Action runs only on approval.
type Request struct {
	UserID      snowflake.ID
	Prompt      string
	Action      func(ctx context.Context) error
	SuccessText string
}

type prompt struct {
	userID  snowflake.ID
	mu      sync.Mutex
	state   State
	decided chan State
}

// resolve moves the prompt to a terminal state. Only the first call wins.
func (p *prompt) resolve(s State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Prompted {
		return false
	}
	p.state = s
	p.decided <- s
	return true
}

// Service tracks open prompts and routes reactions to them.
type Service struct {
	timeout time.Duration

	mu      sync.Mutex
	pending map[snowflake.ID]*prompt
}

func NewService(timeout time.Duration) *Service {
	return &Service{
		timeout: timeout,
		pending: make(map[snowflake.ID]*prompt),
	}
}

func (s *Service) Timeout() time.Duration {
	return s.timeout
}

// Request posts the prompt, waits for the invoking user's reaction and
// returns the terminal state. Cancelling ctx counts as a timeout.
func (s *Service) Request(ctx context.Context, ch Channel, req Request) (State, error) {
	id := uuid.NewString()

	msgID, err := ch.Send(ctx, req.Prompt)
	if err != nil {
		return Prompted, fmt.Errorf("send prompt: %w", err)
	}

	p := &prompt{userID: req.UserID, decided: make(chan State, 1)}
	s.mu.Lock()
	s.pending[msgID] = p
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msgID)
		s.mu.Unlock()
	}()

	sys.LogConfirm(sys.MsgConfirmPrompted, id, msgID, req.UserID)

	for _, emoji := range []string{EmojiApprove, EmojiReject} {
		if err := ch.React(ctx, msgID, emoji); err != nil {
			sys.LogWarn(sys.MsgConfirmReactFail, id, emoji, err)
		}
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var state State
	select {
	case state = <-p.decided:
	case <-timer.C:
		p.resolve(TimedOut)
		state = <-p.decided
	case <-ctx.Done():
		p.resolve(TimedOut)
		state = <-p.decided
	}
	sys.LogConfirm(sys.MsgConfirmResolved, id, msgID, state)

	switch state {
	case Confirmed:
		notice := req.SuccessText
		if req.Action != nil {
			if err := req.Action(ctx); err != nil {
				sys.LogError(sys.MsgConfirmActionFail, id, err)
				notice = sys.ErrConfirmActionFailed
			}
		}
		s.notify(ctx, ch, id, notice)
	case Declined:
		s.notify(ctx, ch, id, sys.MsgConfirmCancelled)
	case TimedOut:
		s.notify(ctx, ch, id, sys.MsgConfirmTimedOut)
	}
	return state, nil
}

func (s *Service) notify(ctx context.Context, ch Channel, id, text string) {
	if text == "" {
		return
	}
	if _, err := ch.Send(context.WithoutCancel(ctx), text); err != nil {
		sys.LogWarn(sys.MsgConfirmNotifyFail, id, err)
	}
}

// HandleReaction resolves the prompt behind messageID if the reaction comes
// from its user and is one of the two choices. It reports whether it did.
func (s *Service) HandleReaction(messageID, userID snowflake.ID, emoji string) bool {
	s.mu.Lock()
	p, ok := s.pending[messageID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if p.userID != userID {
		sys.LogDebug(sys.MsgConfirmForeignVote, messageID, userID)
		return false
	}

	switch emoji {
	case EmojiApprove:
		return p.resolve(Confirmed)
	case EmojiReject:
		return p.resolve(Declined)
	}
	return false
}

// Pending returns the number of open prompts.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
