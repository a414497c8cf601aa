package scheduler

import (
	"github.com/sirupsen/logrus"
	"github.com/timerd/timerd/fields"
	"github.com/timerd/timerd/utils"
)

// publishFiring pushes the event JSON to the redis firings channel and onto
// the capped recent list. Running without redis (dev and test setups) is a
// no-op.
func (s *Service) publishFiring(event *fields.FiringEvent) {
	if s.Redis == nil {
		return
	}
	data, err := event.Encode()
	if err != nil {
		s.logger().Printf("unable to encode firing event: %v", err)
		return
	}

	channel := s.Config.FiringsChannel
	if channel == "" {
		channel = "timerd:firings"
	}
	if err := s.Redis.Publish(channel, data).Err(); err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"uuid":  event.TimerUUID,
		}).Info("unable to publish firing event")
	}

	key := s.Config.RecentFiringsKey
	if key == "" {
		key = "timerd:recent_firings"
	}
	if err := utils.SaveRedisList(s.Redis, key, data, s.Config.RecentFiringsLimit); err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"uuid":  event.TimerUUID,
		}).Info("unable to push firing event to the recent list")
	}
}
