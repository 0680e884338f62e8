package home

import (
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/logbot/archive"
	"github.com/leeineian/logbot/sys"
	"golang.org/x/time/rate"
)

// MessageSender is the slice of the REST client used for alerts.
type MessageSender interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// ErrorNotifier posts write failures to the configured error channel, at
// most one alert per interval.
type ErrorNotifier struct {
	channelID snowflake.ID
	limiter   *rate.Limiter

	mu     sync.RWMutex
	sender MessageSender
	wg     sync.WaitGroup
}

func NewErrorNotifier(channelID snowflake.ID, every time.Duration) *ErrorNotifier {
	return &ErrorNotifier{
		channelID: channelID,
		limiter:   rate.NewLimiter(rate.Every(every), 1),
	}
}

// SetSender attaches the REST client once the bot is created.
func (n *ErrorNotifier) SetSender(s MessageSender) {
	n.mu.Lock()
	n.sender = s
	n.mu.Unlock()
}

// ReportWriteFailure sends the alert. The archive has already logged err.
func (n *ErrorNotifier) ReportWriteFailure(_ archive.Folder, _ error) {
	n.mu.RLock()
	sender := n.sender
	n.mu.RUnlock()
	if sender == nil || n.channelID == 0 || !n.limiter.Allow() {
		return
	}

	n.wg.Add(1)
	sys.Go(func() {
		defer n.wg.Done()
		msg := discord.NewMessageCreateBuilder().SetContent(sys.MsgArchiveWriteAlert).Build()
		if _, err := sender.CreateMessage(n.channelID, msg); err != nil {
			sys.LogWarn(sys.MsgArchiveNotifyFail, err)
		}
	})
}

// Wait blocks until in-flight alerts are sent.
func (n *ErrorNotifier) Wait() {
	n.wg.Wait()
}
