package emailsvc

import (
	"sync"

	"github.com/schoolier/backend/core"
)

var (
	// SentMessages captures everything the dummy service "sent".
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// dummyService renders synchronously and records messages instead of
// sending them. Test-suite only.
type dummyService struct {
	consoleService
}

func NewDummyService(conf *core.Config) core.EmailService {
	return &dummyService{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromEmail(),
			subjPrefix:       "[" + conf.AppName + "] ",
			disableOutput:    true,
		},
	}
}

func (svc *dummyService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		svc.sendMessage(msg)
		mu.Lock()
		SentMessages = append(SentMessages, *msg)
		mu.Unlock()
	}
}

// ResetSentMessages clears the capture between tests.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}
