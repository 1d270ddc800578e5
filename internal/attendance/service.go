package attendance

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"studentattendance/internal/metrics"
	"studentattendance/internal/queue"
)

// Publisher receives attendance events.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Options tunes a Service.
type Options struct {
	// SwallowListErrors makes ListActiveSessions log query failures and
	// return an empty list instead of surfacing them.
	SwallowListErrors bool
	// Now defaults to time.Now.
	Now func() time.Time
	// Codes draws session codes; defaults to a uniform draw from [100000, 999999].
	Codes func() (string, error)
}

// Service coordinates sessions, check-ins and history.
type Service struct {
	repo    *Repository
	bus     Publisher
	metrics *metrics.Metrics
	log     *zap.Logger

	swallowListErrors bool
	now               func() time.Time
	codes             func() (string, error)
}

// NewService creates a service backed by a repository. bus, m and logger may be nil.
func NewService(repo *Repository, bus Publisher, m *metrics.Metrics, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Codes == nil {
		opts.Codes = RandomCode
	}
	return &Service{
		repo:              repo,
		bus:               bus,
		metrics:           m,
		log:               logger,
		swallowListErrors: opts.SwallowListErrors,
		now:               opts.Now,
		codes:             opts.Codes,
	}
}

// RandomCode draws a 6-digit code uniformly from [100000, 999999].
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// ValidCode reports whether code has the 6-digit session code shape.
func ValidCode(code string) bool {
	if len(code) != 6 || code[0] == '0' {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Service) publish(ctx context.Context, typ, sessionID string, body any) {
	if s.bus == nil {
		return
	}
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			s.log.Warn("encode event", zap.String("type", typ), zap.Error(err))
			return
		}
	}
	if err := s.bus.Publish(ctx, queue.Message{Type: typ, SessionID: sessionID, Body: raw}); err != nil {
		s.log.Warn("event publish failed", zap.String("type", typ), zap.String("sessionID", sessionID), zap.Error(err))
	}
}
