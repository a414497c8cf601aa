// Package scheduler manages timerd's fleet of named timers: creation and
// lifecycle control over HTTP, persistence of every run, and the expiry
// pipeline (metrics, redis events and webhook delivery).
package scheduler

import (
	"sync"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
	gateway "github.com/timerd/timerd/apigateway"
	"github.com/timerd/timerd/fields"
	"github.com/timerd/timerd/timer"
	"gorm.io/gorm"
)

var log = logrus.New()

// Auther is the slice of gateway.JWTAuth the service needs. Tests can swap
// in their own implementation.
type Auther interface {
	VerifyJWT(token string) (*gateway.TokenClaims, error)
	GenerateJWT(userID uint, username string) (string, error)
}

// Service is timerd's scheduler. Every handler hangs off it, and it owns
// the in-memory registry of live countdowns keyed by uuid. The database
// rows are the durable view; the registry is what actually ticks.
type Service struct {
	Db     *gorm.DB
	Redis  *redis.Client
	Logger *logrus.Logger
	Config fields.Config
	Auth   Auther
	Clock  fields.Clock

	mu   sync.Mutex
	live map[string]*timer.Timer
}

func (s *Service) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return fields.SystemClock.Now()
}

func (s *Service) track(uuid string, t *timer.Timer) {
	s.mu.Lock()
	if s.live == nil {
		s.live = make(map[string]*timer.Timer)
	}
	s.live[uuid] = t
	s.mu.Unlock()
}

func (s *Service) lookup(uuid string) (*timer.Timer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.live[uuid]
	return t, ok
}

func (s *Service) untrack(uuid string) {
	s.mu.Lock()
	delete(s.live, uuid)
	s.mu.Unlock()
}

// ensureLive returns the live countdown for record, rebuilding it when the
// registry lost it (e.g. across a daemon restart).
func (s *Service) ensureLive(record fields.TimerRecord) (*timer.Timer, error) {
	if t, ok := s.lookup(record.UUID); ok {
		return t, nil
	}
	t, err := timer.New(record.DurationMicros, s.fired, record.UUID, record.Payload)
	if err != nil {
		return nil, err
	}
	s.track(record.UUID, t)
	return t, nil
}

// fired is the callback every managed countdown carries. The args are the
// uuid and payload retained when the timer was built.
func (s *Service) fired(args ...interface{}) {
	uuid, _ := args[0].(string)
	payload, _ := args[1].(string)

	record, err := fields.GetTimerByUUID(uuid, s.Db)
	if err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"uuid":  uuid,
		}).Error("fired timer has no record")
		return
	}

	now := s.now()
	record.State = fields.StateExpired
	record.Expired = true
	// elapsed is reported as the requested duration, mirroring the core
	record.ElapsedMicros = record.DurationMicros
	record.FiredAt = &now
	if err := s.Db.Save(&record).Error; err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"uuid":  uuid,
		}).Error("unable to persist expiry")
	}

	event := fields.FiringEvent{
		TimerUUID:     uuid,
		ElapsedMicros: record.DurationMicros,
		Expired:       true,
		Payload:       payload,
	}

	if record.WebhookURL != "" {
		status, err := s.DeliverWebhook(record.WebhookURL, &event)
		event.WebhookStatus = status
		if err != nil {
			event.Note = err.Error()
		}
	}

	if err := s.Db.Create(&event).Error; err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"uuid":  uuid,
		}).Error("unable to persist firing event")
	}
	s.publishFiring(&event)
	fields.RecordFiring(true)
}
